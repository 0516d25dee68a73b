// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

var errMissingSeparator = errors.New("missing '#' separator")

// BroadcastID identifies a single broadcast: the address of the node that
// originated it and the sequence number that node assigned to it. Sequence
// numbers are only unique per originator.
type BroadcastID struct {
	Origin netip.Addr
	Seq    uint32
}

func NewBroadcastID(origin netip.Addr, seq uint32) BroadcastID {
	return BroadcastID{
		Origin: origin.Unmap(),
		Seq:    seq,
	}
}

// BroadcastIDFromString is the inverse of BroadcastID.String()
func BroadcastIDFromString(s string) (BroadcastID, error) {
	originStr, seqStr, ok := strings.Cut(s, "#")
	if !ok {
		return BroadcastID{}, fmt.Errorf("couldn't parse %q: %w", s, errMissingSeparator)
	}
	origin, err := netip.ParseAddr(originStr)
	if err != nil {
		return BroadcastID{}, fmt.Errorf("couldn't parse origin of %q: %w", s, err)
	}
	seq, err := strconv.ParseUint(seqStr, 10, 32)
	if err != nil {
		return BroadcastID{}, fmt.Errorf("couldn't parse sequence of %q: %w", s, err)
	}
	return NewBroadcastID(origin, uint32(seq)), nil
}

func (id BroadcastID) String() string {
	return id.Origin.String() + "#" + strconv.FormatUint(uint64(id.Seq), 10)
}

func (id BroadcastID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *BroadcastID) UnmarshalText(text []byte) error {
	parsed, err := BroadcastIDFromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
