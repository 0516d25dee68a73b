// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package timer

import (
	"time"

	"github.com/google/btree"
)

const defaultTreeDegree = 2

type entryState uint8

const (
	scheduled entryState = iota
	stopped
	fired
)

type entry struct {
	// id breaks ties between equal deadlines, preserving scheduling order
	id       uint64
	deadline time.Time
	f        func()
	state    entryState
}

func (e *entry) Less(other *entry) bool {
	switch {
	case e.deadline.Before(other.deadline):
		return true
	case other.deadline.Before(e.deadline):
		return false
	default:
		return e.id < other.id
	}
}

// deadlineQueue orders scheduled entries by deadline. It is not safe for
// concurrent use.
type deadlineQueue struct {
	nextID  uint64
	entries *btree.BTreeG[*entry]
}

func newDeadlineQueue() *deadlineQueue {
	return &deadlineQueue{
		entries: btree.NewG(defaultTreeDegree, (*entry).Less),
	}
}

func (q *deadlineQueue) push(deadline time.Time, f func()) *entry {
	e := &entry{
		id:       q.nextID,
		deadline: deadline,
		f:        f,
	}
	q.nextID++
	q.entries.ReplaceOrInsert(e)
	return e
}

// remove marks [e] as stopped. Returns false if [e] already fired or was
// already stopped.
func (q *deadlineQueue) remove(e *entry) bool {
	if e.state != scheduled {
		return false
	}
	e.state = stopped
	e.f = nil
	q.entries.Delete(e)
	return true
}

// next returns the earliest scheduled entry without removing it.
func (q *deadlineQueue) next() (*entry, bool) {
	return q.entries.Min()
}

// popDue removes and returns the earliest entry if its deadline is not after
// [now].
func (q *deadlineQueue) popDue(now time.Time) (*entry, bool) {
	e, ok := q.entries.Min()
	if !ok || e.deadline.After(now) {
		return nil, false
	}
	q.entries.DeleteMin()
	return e, true
}

func (q *deadlineQueue) len() int {
	return q.entries.Len()
}

func (q *deadlineQueue) clear() {
	q.entries.Ascend(func(e *entry) bool {
		e.state = stopped
		e.f = nil
		return true
	})
	q.entries.Clear(false)
}
