// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newLine(t *testing.T, hub *MemoryHub, names ...string) []*MemoryLink {
	require := require.New(t)

	links := make([]*MemoryLink, len(names))
	for i, name := range names {
		l, err := hub.NewLink(name)
		require.NoError(err)
		links[i] = l
		if i > 0 {
			require.NoError(hub.Connect(names[i-1], name))
		}
	}
	return links
}

func TestMemoryLinkBroadcastsToNeighbors(t *testing.T) {
	require := require.New(t)

	hub := NewMemoryHub()
	links := newLine(t, hub, "a", "b", "c")
	a, b, c := links[0], links[1], links[2]

	require.Equal([]string{"a", "b", "c"}, hub.Links())
	require.Equal([]string{"a", "c"}, b.Neighbors())

	frame := []byte{1, 2, 3}
	require.NoError(b.Send(frame))
	frame[0] = 9

	got, err := a.Receive(context.Background())
	require.NoError(err)
	require.Equal([]byte{1, 2, 3}, got)

	got, ok := c.TryReceive()
	require.True(ok)
	require.Equal([]byte{1, 2, 3}, got)

	// A sender never hears itself.
	_, ok = b.TryReceive()
	require.False(ok)

	// a and c aren't neighbors.
	require.NoError(a.Send([]byte{4}))
	require.Equal(1, b.Buffered())
	require.Zero(c.Buffered())
}

func TestMemoryHubErrors(t *testing.T) {
	require := require.New(t)

	hub := NewMemoryHub()
	_, err := hub.NewLink("a")
	require.NoError(err)

	_, err = hub.NewLink("a")
	require.ErrorIs(err, errDuplicateName)
	require.ErrorIs(hub.Connect("a", "a"), errSelfLoop)
	require.ErrorIs(hub.Connect("a", "b"), errUnknownLink)
}

func TestMemoryLinkFullInbox(t *testing.T) {
	require := require.New(t)

	hub := NewMemoryHubWithInboxSize(2)
	links := newLine(t, hub, "a", "b")
	a, b := links[0], links[1]

	for i := 0; i < 5; i++ {
		require.NoError(a.Send([]byte{byte(i)}))
	}
	require.Equal(2, b.Buffered())
	require.Equal(uint64(3), b.Lost())
}

func TestMemoryLinkClose(t *testing.T) {
	require := require.New(t)

	hub := NewMemoryHub()
	links := newLine(t, hub, "a", "b")
	a, b := links[0], links[1]

	done := make(chan error, 1)
	go func() {
		_, err := a.Receive(context.Background())
		done <- err
	}()

	require.NoError(a.Close())
	require.ErrorIs(a.Close(), ErrClosed)
	require.ErrorIs(<-done, ErrClosed)
	require.ErrorIs(a.Send([]byte{1}), ErrClosed)

	require.Equal([]string{"b"}, hub.Links())
	require.Empty(b.Neighbors())
}

func TestMemoryLinkReceiveContext(t *testing.T) {
	require := require.New(t)

	hub := NewMemoryHub()
	l, err := hub.NewLink("a")
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Receive(ctx)
	require.ErrorIs(err, context.DeadlineExceeded)
}
