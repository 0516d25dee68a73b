// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const defaultInboxSize = 1024

var (
	_ Link = (*MemoryLink)(nil)

	errDuplicateName = errors.New("duplicate link name")
	errUnknownLink   = errors.New("unknown link")
	errSelfLoop      = errors.New("link can't neighbor itself")
)

// MemoryHub is an in-process broadcast medium. Links created by the hub hear
// the frames sent by the links they are connected to.
type MemoryHub struct {
	inboxSize int

	lock  sync.RWMutex
	links map[string]*MemoryLink
}

func NewMemoryHub() *MemoryHub {
	return NewMemoryHubWithInboxSize(defaultInboxSize)
}

// NewMemoryHubWithInboxSize returns a hub whose links buffer at most
// [inboxSize] unread frames. Frames sent to a full inbox are lost.
func NewMemoryHubWithInboxSize(inboxSize int) *MemoryHub {
	return &MemoryHub{
		inboxSize: inboxSize,
		links:     make(map[string]*MemoryLink),
	}
}

// NewLink attaches a new link named [name] to the hub.
func (h *MemoryHub) NewLink(name string) (*MemoryLink, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.links[name]; ok {
		return nil, fmt.Errorf("%w: %q", errDuplicateName, name)
	}
	l := &MemoryLink{
		hub:       h,
		name:      name,
		inbox:     make(chan []byte, h.inboxSize),
		closed:    make(chan struct{}),
		neighbors: make(map[string]*MemoryLink),
	}
	h.links[name] = l
	return l, nil
}

// Connect makes [a] and [b] hear each other.
func (h *MemoryHub) Connect(a, b string) error {
	if a == b {
		return fmt.Errorf("%w: %q", errSelfLoop, a)
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	la, ok := h.links[a]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLink, a)
	}
	lb, ok := h.links[b]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLink, b)
	}
	la.addNeighbor(lb)
	lb.addNeighbor(la)
	return nil
}

// Links returns the names of the attached links, sorted.
func (h *MemoryHub) Links() []string {
	h.lock.RLock()
	defer h.lock.RUnlock()

	names := maps.Keys(h.links)
	slices.Sort(names)
	return names
}

func (h *MemoryHub) detach(l *MemoryLink) {
	h.lock.Lock()
	delete(h.links, l.name)
	h.lock.Unlock()

	l.lock.RLock()
	neighbors := maps.Values(l.neighbors)
	l.lock.RUnlock()
	for _, neighbor := range neighbors {
		neighbor.removeNeighbor(l.name)
	}
}

// MemoryLink is a Link attached to a MemoryHub.
type MemoryLink struct {
	hub  *MemoryHub
	name string

	inbox     chan []byte
	closeOnce sync.Once
	closed    chan struct{}

	lock      sync.RWMutex
	neighbors map[string]*MemoryLink
	// lost counts frames that didn't fit in this link's inbox.
	lost uint64
}

func (l *MemoryLink) Name() string {
	return l.name
}

// Neighbors returns the names of the links that hear this one, sorted.
func (l *MemoryLink) Neighbors() []string {
	l.lock.RLock()
	defer l.lock.RUnlock()

	names := maps.Keys(l.neighbors)
	slices.Sort(names)
	return names
}

func (l *MemoryLink) addNeighbor(neighbor *MemoryLink) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.neighbors[neighbor.name] = neighbor
}

func (l *MemoryLink) removeNeighbor(name string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	delete(l.neighbors, name)
}

// Send copies [frame] into the inbox of every neighbor.
func (l *MemoryLink) Send(frame []byte) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	l.lock.RLock()
	neighbors := maps.Values(l.neighbors)
	l.lock.RUnlock()

	for _, neighbor := range neighbors {
		neighbor.deliver(slices.Clone(frame))
	}
	return nil
}

func (l *MemoryLink) deliver(frame []byte) {
	select {
	case l.inbox <- frame:
	default:
		l.lock.Lock()
		l.lost++
		l.lock.Unlock()
	}
}

func (l *MemoryLink) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-l.inbox:
		return frame, nil
	case <-l.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryReceive returns the next buffered frame without blocking.
func (l *MemoryLink) TryReceive() ([]byte, bool) {
	select {
	case frame := <-l.inbox:
		return frame, true
	default:
		return nil, false
	}
}

// Buffered returns the number of frames waiting to be received.
func (l *MemoryLink) Buffered() int {
	return len(l.inbox)
}

// Lost returns the number of frames dropped because the inbox was full.
func (l *MemoryLink) Lost() uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.lost
}

// Close detaches the link from its hub.
func (l *MemoryLink) Close() error {
	err := ErrClosed
	l.closeOnce.Do(func() {
		close(l.closed)
		l.hub.detach(l)
		err = nil
	})
	return err
}
