// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/counterflood/ids"
	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
)

const testEtherType = 0x0a0a

var (
	testStart       = time.Unix(1_700_000_000, 0)
	testIP          = netip.MustParseAddr("10.0.0.1")
	testBroadcastIP = netip.MustParseAddr("10.255.255.255")
	testMAC         = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	neighborMAC     = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	remoteOrigin    = netip.MustParseAddr("10.0.0.7")
)

// fixedSource always returns the same value, capped at the requested bound.
type fixedSource uint64

func (s fixedSource) Uint64Inclusive(n uint64) uint64 {
	if uint64(s) > n {
		return n
	}
	return uint64(s)
}

// fixedDelay makes every retransmission due [d] after the broadcast was
// first heard.
func fixedDelay(d time.Duration) sampler.Source {
	return fixedSource(d)
}

type recordingOutputs struct {
	sent      [][]byte
	delivered [][]byte
}

func (o *recordingOutputs) SendToNetwork(frame []byte) {
	o.sent = append(o.sent, frame)
}

func (o *recordingOutputs) DeliverToHost(payload []byte) {
	o.delivered = append(o.delivered, payload)
}

func testConfig(count uint32) Config {
	config := DefaultConfig()
	config.EtherType = testEtherType
	config.IP = testIP
	config.BroadcastIP = testBroadcastIP
	config.MAC = testMAC
	config.Count = count
	return config
}

type testEnv struct {
	controller *Controller
	scheduler  *timer.ManualScheduler
	outputs    *recordingOutputs
	registry   *prometheus.Registry
}

func newTestEnv(t *testing.T, config Config, source sampler.Source) *testEnv {
	require := require.New(t)

	env := &testEnv{
		scheduler: timer.NewManualScheduler(testStart),
		outputs:   &recordingOutputs{},
		registry:  prometheus.NewRegistry(),
	}
	c, err := New(
		config,
		logging.NoLog{},
		env.scheduler,
		source,
		env.outputs,
		env.registry,
	)
	require.NoError(err)
	env.controller = c
	return env
}

func networkFrame(t *testing.T, origin netip.Addr, seq uint32, payload []byte) []byte {
	f := &message.Frame{
		DstMAC:      message.BroadcastMAC,
		SrcMAC:      neighborMAC,
		EtherType:   testEtherType,
		Origin:      origin,
		Destination: testBroadcastIP,
		Seq:         seq,
		Payload:     payload,
	}
	b, err := f.Bytes()
	require.NoError(t, err)
	return b
}

func (env *testEnv) hear(t *testing.T, seq uint32) {
	env.controller.Push(NetworkPort, networkFrame(t, remoteOrigin, seq, []byte{byte(seq)}))
}

func (env *testEnv) record(origin netip.Addr, seq uint32) (*record, bool) {
	return env.controller.history.get(ids.NewBroadcastID(origin, seq))
}
