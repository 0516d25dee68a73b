// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package timer

import "time"

// Timer is a handle to a callback registered with a Scheduler.
type Timer interface {
	// Stop prevents the callback from running. It returns true if the call
	// stopped the timer, false if the callback already ran or the timer was
	// already stopped.
	Stop() bool

	// Deadline returns the time the callback was scheduled for.
	Deadline() time.Time
}

// Scheduler runs callbacks once, at or after a requested time.
//
// Callbacks registered with the same Scheduler never run concurrently with
// each other, and they run in non-decreasing order of their deadlines.
// Callbacks with equal deadlines run in the order they were scheduled.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// Schedule registers [f] to be run at [deadline]. A deadline in the past
	// runs as soon as the scheduler gets to it.
	Schedule(deadline time.Time, f func()) Timer
}

type stopper interface {
	stop(e *entry) bool
}

type handle struct {
	owner stopper
	e     *entry
}

func (h *handle) Stop() bool {
	return h.owner.stop(h.e)
}

func (h *handle) Deadline() time.Time {
	return h.e.deadline
}
