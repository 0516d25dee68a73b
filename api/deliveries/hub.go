// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deliveries streams the payloads delivered to the local upper layer
// to websocket clients.
package deliveries

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/network"
	"github.com/ava-labs/counterflood/utils/logging"
)

const (
	// clientBufferSize is the number of payloads queued for a client before
	// payloads to it are dropped.
	clientBufferSize = 256
	writeTimeout     = 10 * time.Second
)

var _ network.Subscriber = (*Hub)(nil)

// Hub fans out delivered payloads to every connected websocket client. Each
// payload is sent as one binary message.
type Hub struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	lock    sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// dropped counts payloads that didn't fit in [send].
	dropped uint64
}

// Deliver queues [payload] for every client without blocking. Slow clients
// miss payloads.
func (h *Hub) Deliver(payload []byte) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			c.dropped++
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams payloads to it
// until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed",
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientBufferSize),
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	// Clients never send anything meaningful; reading detects them leaving.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug("websocket read failed",
						zap.Error(err),
					)
				}
				return
			}
		}
	}()

	h.writeLoop(c, readerDone)
	h.unregister(c)
	_ = conn.Close()
	<-readerDone
}

func (h *Hub) writeLoop(c *client, readerDone <-chan struct{}) {
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeTimeout),
				)
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				h.log.Debug("websocket write failed",
					zap.Error(err),
				)
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if c.dropped > 0 {
		h.log.Info("websocket client missed payloads",
			zap.Uint64("dropped", c.dropped),
		)
	}
}

// Close disconnects every client. Connections opened afterwards are refused.
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
