// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/counterflood/ids"
	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/timer"
)

var errUnknownState = errors.New("unknown state")

// State of a broadcast record with respect to transmission.
type State uint8

const (
	// Pending records have a retransmission scheduled.
	Pending State = iota
	// Forwarded records were retransmitted (or originated) by this node.
	Forwarded
	// Suppressed records had their retransmission cancelled because enough
	// duplicates were heard first.
	Suppressed
	// ReceiveOnly records were never eligible for retransmission.
	ReceiveOnly
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Forwarded:
		return "forwarded"
	case Suppressed:
		return "suppressed"
	case ReceiveOnly:
		return "receive-only"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state := Pending; state <= ReceiveOnly; state++ {
		if string(text) == state.String() {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errUnknownState, text)
}

// record tracks a single broadcast for as long as it stays in the history.
type record struct {
	id         ids.BroadcastID
	originated bool
	// frame is owned by the record until it is forwarded, suppressed or
	// evicted.
	frame *message.Frame

	// threshold is the suppression threshold in force when the record was
	// created.
	threshold    uint32
	receiveCount uint32

	firstSeenAt     time.Time
	scheduledSendAt time.Time

	forwarded    bool
	actuallySent bool
	state        State

	// pendingTimer is non-nil only while a retransmission is scheduled.
	pendingTimer timer.Timer
}

func newRecord(frame *message.Frame, originated bool, now time.Time, threshold uint32) *record {
	return &record{
		id:           frame.ID(),
		originated:   originated,
		frame:        frame,
		threshold:    threshold,
		receiveCount: 1,
		firstSeenAt:  now,
	}
}

// stopTimer cancels the pending retransmission, if any.
func (r *record) stopTimer() {
	if r.pendingTimer != nil {
		r.pendingTimer.Stop()
		r.pendingTimer = nil
	}
}

// release stops the timer and drops the payload. It must run before the
// record is dropped from the history.
func (r *record) release() {
	r.stopTimer()
	r.frame = nil
}

// RecordSnapshot is a read-only copy of a record's bookkeeping.
type RecordSnapshot struct {
	ID              ids.BroadcastID `json:"id"`
	Seq             uint32          `json:"seq"`
	Originated      bool            `json:"originated"`
	ReceiveCount    uint32          `json:"receiveCount"`
	Threshold       uint32          `json:"threshold"`
	FirstSeenAt     time.Time       `json:"firstSeenAt"`
	ScheduledSendAt time.Time       `json:"scheduledSendAt,omitempty"`
	Forwarded       bool            `json:"forwarded"`
	ActuallySent    bool            `json:"actuallySent"`
	State           State           `json:"state"`
}

func (r *record) snapshot() RecordSnapshot {
	return RecordSnapshot{
		ID:              r.id,
		Seq:             r.id.Seq,
		Originated:      r.originated,
		ReceiveCount:    r.receiveCount,
		Threshold:       r.threshold,
		FirstSeenAt:     r.firstSeenAt,
		ScheduledSendAt: r.scheduledSendAt,
		Forwarded:       r.forwarded,
		ActuallySent:    r.actuallySent,
		State:           r.state,
	}
}
