// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DebugHandler   = "debug"
	CountHandler   = "count"
	StatsHandler   = "stats"
	PacketsHandler = "packets"
)

var (
	ErrUnknownHandler = errors.New("unknown handler")
	ErrReadOnly       = errors.New("handler is read-only")
	ErrValueFormat    = errors.New("malformed handler value")
)

// HandlerNames lists the handlers in the order they are documented.
func HandlerNames() []string {
	return []string{DebugHandler, CountHandler, StatsHandler, PacketsHandler}
}

// ReadHandler renders the named handler as text.
func (c *Controller) ReadHandler(name string) (string, error) {
	switch name {
	case DebugHandler:
		return strconv.FormatBool(c.debug) + "\n", nil
	case CountHandler:
		return strconv.FormatUint(uint64(c.threshold), 10) + "\n", nil
	case StatsHandler:
		return fmt.Sprintf("originated %d\ntx %d\nrx %d\n",
			c.stats.Originated,
			c.stats.Transmitted,
			c.stats.Received,
		), nil
	case PacketsHandler:
		return c.formatPackets(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
}

// WriteHandler parses [value] and applies it to the named handler. State is
// left unchanged on error.
func (c *Controller) WriteHandler(name, value string) error {
	value = strings.TrimSpace(value)
	switch name {
	case DebugHandler:
		debug, err := parseBool(value)
		if err != nil {
			return err
		}
		c.SetDebug(debug)
		return nil
	case CountHandler:
		count, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: count %q: %w", ErrValueFormat, value, err)
		}
		c.SetThreshold(uint32(count))
		return nil
	case StatsHandler, PacketsHandler:
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: debug %q", ErrValueFormat, value)
	}
}

// formatPackets prints one line per remembered broadcast, oldest first.
// Times are relative to the scheduler's current time.
func (c *Controller) formatPackets() string {
	now := c.scheduler.Now()
	sb := strings.Builder{}
	for _, p := range c.history.snapshot() {
		delay := time.Duration(0)
		if !p.ScheduledSendAt.IsZero() {
			delay = p.ScheduledSendAt.Sub(p.FirstSeenAt)
		}
		fmt.Fprintf(&sb,
			"%d src %s rx %d threshold %d state %s forwarded %t sent %t first_rx %s ago delay %s\n",
			p.Seq,
			p.ID.Origin,
			p.ReceiveCount,
			p.Threshold,
			p.State,
			p.Forwarded,
			p.ActuallySent,
			now.Sub(p.FirstSeenAt),
			delay,
		)
	}
	return sb.String()
}
