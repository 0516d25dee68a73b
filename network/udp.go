// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

const (
	socketBufferSize = 1 << 20
	// maxDatagramSize is the largest UDP payload.
	maxDatagramSize = 65_507
)

var _ Link = (*UDPLink)(nil)

// UDPLink emulates a broadcast medium over UDP by unicasting every frame to a
// fixed list of neighbors.
type UDPLink struct {
	log       logging.Logger
	conn      *net.UDPConn
	neighbors []*net.UDPAddr

	closeOnce sync.Once
	closed    chan struct{}
	buf       []byte

	// watching is the context whose cancellation unblocks reads. It is owned
	// by the receiving goroutine.
	watching    context.Context
	stopWatch   chan struct{}
	watchExited chan struct{}
}

// NewUDPLink listens on [listenAddr] and sends to every address in
// [neighbors]. A link without neighbors only receives.
func NewUDPLink(log logging.Logger, listenAddr string, neighbors []string) (*UDPLink, error) {
	addrs := make([]*net.UDPAddr, len(neighbors))
	for i, neighbor := range neighbors {
		addr, err := net.ResolveUDPAddr("udp", neighbor)
		if err != nil {
			return nil, fmt.Errorf("couldn't resolve neighbor %q: %w", neighbor, err)
		}
		addrs[i] = addr
	}

	laddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve listen address %q: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %q: %w", listenAddr, err)
	}
	_ = conn.SetReadBuffer(socketBufferSize)
	_ = conn.SetWriteBuffer(socketBufferSize)

	log.Info("listening for frames",
		zap.Stringer("addr", conn.LocalAddr()),
		zap.Strings("neighbors", neighbors),
	)
	return &UDPLink{
		log:       log,
		conn:      conn,
		neighbors: addrs,
		closed:    make(chan struct{}),
		buf:       make([]byte, maxDatagramSize),
	}, nil
}

// LocalAddr returns the address the link receives on.
func (l *UDPLink) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Send writes [frame] to every neighbor. It returns the errors of the
// neighbors that couldn't be written to.
func (l *UDPLink) Send(frame []byte) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	errs := wrappers.AllErrs{}
	for _, neighbor := range l.neighbors {
		if _, err := l.conn.WriteToUDP(frame, neighbor); err != nil {
			errs.Add(fmt.Errorf("couldn't send to %s: %w", neighbor, err))
		}
	}
	return errs.Err()
}

// Receive returns the next datagram. It must not be called concurrently.
func (l *UDPLink) Receive(ctx context.Context) ([]byte, error) {
	if err := l.watch(ctx); err != nil {
		return nil, l.readErr(ctx, err)
	}

	n, from, err := l.conn.ReadFromUDP(l.buf)
	if err != nil {
		return nil, l.readErr(ctx, err)
	}
	l.log.Verbo("read datagram",
		zap.Stringer("from", from),
		zap.Int("length", n),
	)
	return slices.Clone(l.buf[:n]), nil
}

// watch makes the cancellation of [ctx] unblock reads. Successive calls with
// the same context share a single watcher.
func (l *UDPLink) watch(ctx context.Context) error {
	if ctx == l.watching {
		return nil
	}
	l.stopWatching()
	if err := l.conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}

	stop := make(chan struct{})
	exited := make(chan struct{})
	l.watching = ctx
	l.stopWatch = stop
	l.watchExited = exited
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			_ = l.conn.SetReadDeadline(time.Now())
		case <-stop:
		case <-l.closed:
		}
	}()
	return nil
}

// stopWatching waits for the current watcher to exit, so that it can't move
// the read deadline once a new context is watched.
func (l *UDPLink) stopWatching() {
	if l.stopWatch == nil {
		return
	}
	close(l.stopWatch)
	<-l.watchExited
	l.watching = nil
	l.stopWatch = nil
	l.watchExited = nil
}

func (l *UDPLink) readErr(ctx context.Context, err error) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (l *UDPLink) Close() error {
	err := ErrClosed
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.conn.Close()
	})
	return err
}
