// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"github.com/ava-labs/counterflood/ids"
	"github.com/ava-labs/counterflood/utils/linked"
)

// history is a bounded, insertion-ordered window of recently seen
// broadcasts. Once full, inserting a new broadcast evicts the oldest one.
//
// An evicted broadcast is forgotten: if it is heard again it looks brand new.
type history struct {
	capacity int
	records  *linked.Hashmap[ids.BroadcastID, *record]
	// onEvict is called after an evicted record has been released.
	onEvict func(*record)
}

func newHistory(capacity int, onEvict func(*record)) *history {
	return &history{
		capacity: capacity,
		records:  linked.NewHashmapWithSize[ids.BroadcastID, *record](capacity),
		onEvict:  onEvict,
	}
}

func (h *history) get(id ids.BroadcastID) (*record, bool) {
	return h.records.Get(id)
}

// put inserts [r] as the newest record, replacing any record with the same
// ID, then evicts the oldest records until the window fits its capacity.
func (h *history) put(r *record) {
	if old, ok := h.records.Get(r.id); ok {
		h.records.Delete(r.id)
		h.evict(old)
	}
	h.records.Put(r.id, r)
	h.trim()
}

func (h *history) trim() {
	for h.records.Len() > h.capacity {
		id, oldest, ok := h.records.Oldest()
		if !ok {
			return
		}
		h.records.Delete(id)
		h.evict(oldest)
	}
}

func (h *history) evict(r *record) {
	r.release()
	if h.onEvict != nil {
		h.onEvict(r)
	}
}

func (h *history) len() int {
	return h.records.Len()
}

// snapshot returns every record's bookkeeping, oldest first.
func (h *history) snapshot() []RecordSnapshot {
	snapshots := make([]RecordSnapshot, 0, h.records.Len())
	it := h.records.NewIterator()
	for it.Next() {
		snapshots = append(snapshots, it.Value().snapshot())
	}
	return snapshots
}

// clear releases and drops every record without calling onEvict.
func (h *history) clear() {
	it := h.records.NewIterator()
	for it.Next() {
		it.Value().release()
	}
	h.records.Clear()
}
