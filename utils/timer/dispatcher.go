// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package timer

import (
	"sync"
	"time"
)

var _ Scheduler = (*Dispatcher)(nil)

// Dispatcher is a wall-clock Scheduler. Callbacks are run by the goroutine
// executing Dispatch, while holding the lock passed to NewDispatcher.
//
// Because callbacks only run while that lock is held, a Timer stopped by a
// caller holding the lock is guaranteed to never run afterwards.
type Dispatcher struct {
	// callbackLock is held while callbacks run
	callbackLock sync.Locker

	// lock protects queue
	lock  sync.Mutex
	queue *deadlineQueue

	wake         chan struct{}
	shutdownOnce sync.Once
	shutdown     chan struct{}
}

func NewDispatcher(callbackLock sync.Locker) *Dispatcher {
	return &Dispatcher{
		callbackLock: callbackLock,
		queue:        newDeadlineQueue(),
		wake:         make(chan struct{}, 1),
		shutdown:     make(chan struct{}),
	}
}

func (*Dispatcher) Now() time.Time {
	return time.Now()
}

func (d *Dispatcher) Schedule(deadline time.Time, f func()) Timer {
	d.lock.Lock()
	e := d.queue.push(deadline, f)
	next, _ := d.queue.next()
	d.lock.Unlock()

	// Only wake the dispatch loop if its next deadline moved earlier.
	if next == e {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	return &handle{
		owner: d,
		e:     e,
	}
}

func (d *Dispatcher) stop(e *entry) bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.queue.remove(e)
}

// Len returns the number of pending callbacks.
func (d *Dispatcher) Len() int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.queue.len()
}

// Dispatch runs callbacks as they become due. It returns once Stop is called.
func (d *Dispatcher) Dispatch() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		d.lock.Lock()
		next, ok := d.queue.next()
		var wait time.Duration
		if ok {
			wait = time.Until(next.deadline)
		}
		d.lock.Unlock()

		if ok && wait <= 0 {
			d.fireDue()
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		var due <-chan time.Time
		if ok {
			timer.Reset(wait)
			due = timer.C
		}

		select {
		case <-due:
		case <-d.wake:
		case <-d.shutdown:
			return
		}
	}
}

func (d *Dispatcher) fireDue() {
	d.callbackLock.Lock()
	defer d.callbackLock.Unlock()

	for {
		select {
		case <-d.shutdown:
			return
		default:
		}

		d.lock.Lock()
		e, ok := d.queue.popDue(time.Now())
		var f func()
		if ok {
			e.state = fired
			f = e.f
			e.f = nil
		}
		d.lock.Unlock()

		if !ok {
			return
		}
		f()
	}
}

// Stop terminates Dispatch and drops every pending callback.
func (d *Dispatcher) Stop() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		d.lock.Lock()
		d.queue.clear()
		d.lock.Unlock()
	})
}
