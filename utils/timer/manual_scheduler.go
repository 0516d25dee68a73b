// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package timer

import (
	"time"

	"github.com/ava-labs/counterflood/utils/timer/mockable"
)

var _ Scheduler = (*ManualScheduler)(nil)

// ManualScheduler is a Scheduler whose time only moves when it is advanced.
// Callbacks run synchronously on the goroutine calling Advance or AdvanceTo.
//
// It is not safe for concurrent use.
type ManualScheduler struct {
	clock *mockable.Clock
	queue *deadlineQueue
}

// NewManualScheduler returns a scheduler whose clock starts at [start].
func NewManualScheduler(start time.Time) *ManualScheduler {
	clock := &mockable.Clock{}
	clock.Set(start)
	return NewManualSchedulerWithClock(clock)
}

// NewManualSchedulerWithClock returns a scheduler that drives [clock].
func NewManualSchedulerWithClock(clock *mockable.Clock) *ManualScheduler {
	return &ManualScheduler{
		clock: clock,
		queue: newDeadlineQueue(),
	}
}

func (s *ManualScheduler) Now() time.Time {
	return s.clock.Time()
}

func (s *ManualScheduler) Schedule(deadline time.Time, f func()) Timer {
	return &handle{
		owner: s,
		e:     s.queue.push(deadline, f),
	}
}

func (s *ManualScheduler) stop(e *entry) bool {
	return s.queue.remove(e)
}

// Advance moves the clock forward by [d], running every callback that becomes
// due. It returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.Now().Add(d))
}

// AdvanceTo moves the clock to [t], running every callback whose deadline is
// not after [t]. While a callback runs, the clock reads its deadline.
// Callbacks scheduled by other callbacks are run too if they become due.
// If [t] is before the current time the clock is not moved back.
func (s *ManualScheduler) AdvanceTo(t time.Time) int {
	ran := 0
	for {
		e, ok := s.queue.popDue(t)
		if !ok {
			break
		}
		if e.deadline.After(s.clock.Time()) {
			s.clock.Set(e.deadline)
		}
		e.state = fired
		f := e.f
		e.f = nil
		f()
		ran++
	}
	if t.After(s.clock.Time()) {
		s.clock.Set(t)
	}
	return ran
}

// RunNext advances the clock to the earliest pending deadline and runs the
// callbacks due at that time. It returns false if nothing is pending.
func (s *ManualScheduler) RunNext() bool {
	e, ok := s.queue.next()
	if !ok {
		return false
	}
	s.AdvanceTo(e.deadline)
	return true
}

// NextDeadline returns the earliest pending deadline.
func (s *ManualScheduler) NextDeadline() (time.Time, bool) {
	e, ok := s.queue.next()
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Pending returns the number of callbacks that have been scheduled but have
// neither run nor been stopped.
func (s *ManualScheduler) Pending() int {
	return s.queue.len()
}
