// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package control

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
	"github.com/ava-labs/counterflood/version"
)

type recordingOutputs struct {
	sent [][]byte
}

func (o *recordingOutputs) SendToNetwork(frame []byte) {
	o.sent = append(o.sent, frame)
}

func (*recordingOutputs) DeliverToHost([]byte) {}

type lockCounter struct {
	locks int
}

func (l *lockCounter) Lock() {
	l.locks++
}

func (*lockCounter) Unlock() {}

type testEnv struct {
	client  Client
	lock    *lockCounter
	outputs *recordingOutputs
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)

	config := flood.DefaultConfig()
	config.EtherType = 0x0a0a
	config.IP = netip.MustParseAddr("10.0.0.1")
	config.BroadcastIP = netip.MustParseAddr("10.255.255.255")
	config.MAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	config.Count = 3

	outputs := &recordingOutputs{}
	controller, err := flood.New(
		config,
		logging.NoLog{},
		timer.NewManualScheduler(time.Unix(0, 0)),
		sampler.NewSource(1),
		outputs,
		prometheus.NewRegistry(),
	)
	require.NoError(err)

	lock := &lockCounter{}
	handler, err := NewService(logging.NoLog{}, lock, controller)
	require.NoError(err)

	mux := http.NewServeMux()
	mux.Handle("/ext/"+ServiceName, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		client:  NewClient(server.URL),
		lock:    lock,
		outputs: outputs,
	}
}

func TestDebug(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	debug, err := env.client.GetDebug(ctx)
	require.NoError(err)
	require.False(debug)

	require.NoError(env.client.SetDebug(ctx, true))

	debug, err = env.client.GetDebug(ctx)
	require.NoError(err)
	require.True(debug)
	require.Equal(3, env.lock.locks)
}

func TestCount(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	count, err := env.client.GetCount(ctx)
	require.NoError(err)
	require.Equal(uint32(3), count)

	require.NoError(env.client.SetCount(ctx, 0))

	count, err = env.client.GetCount(ctx)
	require.NoError(err)
	require.Zero(count)
}

func TestOriginateAndStats(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(env.client.Originate(ctx, []byte("hello")))
	require.Len(env.outputs.sent, 1)

	stats, err := env.client.GetStats(ctx)
	require.NoError(err)
	require.Equal(flood.Stats{Originated: 1, Transmitted: 1}, stats)

	packets, err := env.client.GetPackets(ctx)
	require.NoError(err)
	require.Len(packets, 1)
	require.True(packets[0].Originated)
	require.Equal(flood.Forwarded, packets[0].State)
	require.Equal(netip.MustParseAddr("10.0.0.1"), packets[0].ID.Origin)

	require.Error(env.client.Originate(ctx, nil))
	require.Len(env.outputs.sent, 1)
}

func TestHandlers(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(env.client.WriteHandler(ctx, flood.CountHandler, "5"))
	value, err := env.client.ReadHandler(ctx, flood.CountHandler)
	require.NoError(err)
	require.Equal("5\n", value)

	value, err = env.client.ReadHandler(ctx, flood.StatsHandler)
	require.NoError(err)
	require.Equal("originated 0\ntx 0\nrx 0\n", value)

	err = env.client.WriteHandler(ctx, flood.CountHandler, "five")
	require.ErrorContains(err, flood.ErrValueFormat.Error())

	err = env.client.WriteHandler(ctx, flood.StatsHandler, "1")
	require.ErrorContains(err, flood.ErrReadOnly.Error())

	_, err = env.client.ReadHandler(ctx, "bogus")
	require.ErrorContains(err, flood.ErrUnknownHandler.Error())
}

func TestGetNodeVersion(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	reply, err := env.client.GetNodeVersion(context.Background())
	require.NoError(err)
	require.Equal(version.Current, reply.Version)
	require.Equal(version.GitCommit, reply.GitCommit)
	require.Zero(env.lock.locks)
}
