// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed Link.
var ErrClosed = errors.New("link closed")

// Link is a broadcast medium. Every frame sent is heard by each neighbor of
// this node, and never by this node itself.
type Link interface {
	// Send broadcasts [frame] to the neighbors. It doesn't block on slow
	// neighbors.
	Send(frame []byte) error
	// Receive blocks until a frame is heard, the link is closed or [ctx] is
	// done.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
