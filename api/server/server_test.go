// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/utils/logging"
)

func TestServeAndShutdown(t *testing.T) {
	require := require.New(t)

	s, err := New(logging.NoLog{}, Config{
		Host:           "127.0.0.1",
		AllowedOrigins: []string{"*"},
	})
	require.NoError(err)

	require.NoError(s.AddRoute(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}), "ping", ""))

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- s.Dispatch()
	}()

	resp, err := http.Get("http://" + s.Addr().String() + "/ext/ping")
	require.NoError(err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("pong", string(body))

	resp, err = http.Get("http://" + s.Addr().String() + "/ext/missing")
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusNotFound, resp.StatusCode)

	require.NoError(s.Shutdown())
	require.NoError(<-dispatched)
}

func TestShutdownWithoutDispatch(t *testing.T) {
	s, err := New(logging.NoLog{}, Config{Host: "127.0.0.1"})
	require.NoError(t, err)
	require.NoError(t, s.Shutdown())
}

func TestProxyProtocol(t *testing.T) {
	require := require.New(t)

	s, err := New(logging.NoLog{}, Config{
		Host:          "127.0.0.1",
		ProxyProtocol: true,
	})
	require.NoError(err)
	require.NoError(s.AddRoute(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.RemoteAddr))
	}), "whoami", ""))

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- s.Dispatch()
	}()

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(err)
	_, err = conn.Write([]byte(
		"PROXY TCP4 192.0.2.1 127.0.0.1 56324 9650\r\n" +
			"GET /ext/whoami HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n",
	))
	require.NoError(err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.NoError(conn.Close())
	require.Equal("192.0.2.1:56324", string(body))

	require.NoError(s.Shutdown())
	require.NoError(<-dispatched)
}
