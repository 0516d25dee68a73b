// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import "go.uber.org/zap"

// Debug reports whether per-packet logging is enabled.
func (c *Controller) Debug() bool {
	return c.debug
}

func (c *Controller) SetDebug(debug bool) {
	c.debug = debug
	c.log.Info("set debug",
		zap.Bool("debug", debug),
	)
}

// Threshold returns the suppression threshold given to new records.
func (c *Controller) Threshold() uint32 {
	return c.threshold
}

// SetThreshold changes the suppression threshold. Records already in the
// history keep the threshold they were created with.
func (c *Controller) SetThreshold(threshold uint32) {
	c.threshold = threshold
	c.log.Info("set count threshold",
		zap.Uint32("count", threshold),
	)
}

func (c *Controller) Stats() Stats {
	return c.stats
}

// HistoryLen returns the number of remembered broadcasts.
func (c *Controller) HistoryLen() int {
	return c.history.len()
}

// Packets returns the bookkeeping of every remembered broadcast, oldest
// first.
func (c *Controller) Packets() []RecordSnapshot {
	return c.history.snapshot()
}
