// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/counterflood/ids"
	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
)

// arrival is a frame heard [gap] after the previous one.
type arrival struct {
	seq uint32
	gap time.Duration
}

func zipArrivals(seqs []uint32, gapsMs []int) []arrival {
	n := len(seqs)
	if len(gapsMs) < n {
		n = len(gapsMs)
	}
	arrivals := make([]arrival, n)
	for i := range arrivals {
		arrivals[i] = arrival{
			seq: seqs[i],
			gap: time.Duration(gapsMs[i]) * time.Millisecond,
		}
	}
	return arrivals
}

type propertyEnv struct {
	controller *Controller
	scheduler  *timer.ManualScheduler
	outputs    *recordingOutputs
}

func newPropertyEnv(config Config, source sampler.Source) (*propertyEnv, error) {
	env := &propertyEnv{
		scheduler: timer.NewManualScheduler(testStart),
		outputs:   &recordingOutputs{},
	}
	c, err := New(
		config,
		logging.NoLog{},
		env.scheduler,
		source,
		env.outputs,
		prometheus.NewRegistry(),
	)
	env.controller = c
	return env, err
}

// hear advances time by [a.gap], running any retransmissions due by then,
// and pushes the frame.
func (env *propertyEnv) hear(a arrival) error {
	env.scheduler.Advance(a.gap)
	f := &message.Frame{
		DstMAC:      message.BroadcastMAC,
		SrcMAC:      neighborMAC,
		EtherType:   testEtherType,
		Origin:      remoteOrigin,
		Destination: testBroadcastIP,
		Seq:         a.seq,
	}
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	env.controller.Push(NetworkPort, b)
	return nil
}

// sentSeqs counts transmissions per sequence number.
func (env *propertyEnv) sentSeqs() (map[uint32]int, error) {
	sent := make(map[uint32]int)
	for _, b := range env.outputs.sent {
		f, err := message.Parse(b)
		if err != nil {
			return nil, err
		}
		sent[f.Seq]++
	}
	return sent, nil
}

func TestFloodProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("count 0 forwards every broadcast once without delay", prop.ForAll(
		func(seqs []uint32, gapsMs []int) string {
			env, err := newPropertyEnv(testConfig(0), sampler.NewSource(0))
			if err != nil {
				return err.Error()
			}
			distinct := make(map[uint32]struct{})
			for _, a := range zipArrivals(seqs, gapsMs) {
				if err := env.hear(a); err != nil {
					return err.Error()
				}
				distinct[a.seq] = struct{}{}
				if env.scheduler.Pending() != 0 {
					return "retransmission was scheduled"
				}
			}
			sent, err := env.sentSeqs()
			if err != nil {
				return err.Error()
			}
			if len(sent) != len(distinct) {
				return fmt.Sprintf("forwarded %d of %d broadcasts", len(sent), len(distinct))
			}
			for seq, n := range sent {
				if n != 1 {
					return fmt.Sprintf("seq %d forwarded %d times", seq, n)
				}
			}
			return ""
		},
		gen.SliceOf(gen.UInt32Range(0, 9)),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("count 1 never forwards", prop.ForAll(
		func(seqs []uint32, gapsMs []int, seed uint64) string {
			env, err := newPropertyEnv(testConfig(1), sampler.NewSource(seed))
			if err != nil {
				return err.Error()
			}
			for _, a := range zipArrivals(seqs, gapsMs) {
				if err := env.hear(a); err != nil {
					return err.Error()
				}
			}
			env.scheduler.Advance(DefaultMaxDelay)
			if n := env.controller.Stats().Transmitted; n != 0 {
				return fmt.Sprintf("transmitted %d frames", n)
			}
			return ""
		},
		gen.SliceOf(gen.UInt32Range(0, 9)),
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.UInt64(),
	))

	properties.Property("count k forwards exactly when fewer than k copies precede the deadline", prop.ForAll(
		func(count uint32, seqs []uint32, gapsMs []int, seed uint64) string {
			env, err := newPropertyEnv(testConfig(count), sampler.NewSource(seed))
			if err != nil {
				return err.Error()
			}

			var (
				now      = testStart
				deadline = make(map[uint32]time.Time)
				early    = make(map[uint32]uint32)
			)
			for _, a := range zipArrivals(seqs, gapsMs) {
				now = now.Add(a.gap)
				if d, ok := deadline[a.seq]; ok && now.Before(d) {
					early[a.seq]++
				}
				if err := env.hear(a); err != nil {
					return err.Error()
				}
				if _, ok := deadline[a.seq]; !ok {
					r, ok := env.controller.history.get(remoteID(a.seq))
					if !ok {
						return fmt.Sprintf("seq %d not remembered", a.seq)
					}
					deadline[a.seq] = r.scheduledSendAt
					early[a.seq] = 1
				}
			}
			env.scheduler.Advance(DefaultMaxDelay)

			sent, err := env.sentSeqs()
			if err != nil {
				return err.Error()
			}
			for seq, n := range early {
				expected := 0
				if n < count {
					expected = 1
				}
				if sent[seq] != expected {
					return fmt.Sprintf("seq %d heard %d times early, forwarded %d times", seq, n, sent[seq])
				}
				r, _ := env.controller.history.get(remoteID(seq))
				if r.forwarded != (expected == 1) || r.actuallySent != (expected == 1) {
					return fmt.Sprintf("seq %d has forwarded=%t", seq, r.forwarded)
				}
			}
			return ""
		},
		gen.UInt32Range(2, 5),
		gen.SliceOf(gen.UInt32Range(0, 9)),
		gen.SliceOf(gen.IntRange(0, 300)),
		gen.UInt64(),
	))

	properties.Property("evicted broadcasts are never forwarded", prop.ForAll(
		func(historySize int, numSeqs int) string {
			config := testConfig(3)
			config.History = historySize
			env, err := newPropertyEnv(config, fixedDelay(600*time.Millisecond))
			if err != nil {
				return err.Error()
			}
			for seq := 0; seq < numSeqs; seq++ {
				if err := env.hear(arrival{seq: uint32(seq), gap: time.Millisecond}); err != nil {
					return err.Error()
				}
			}
			env.scheduler.Advance(time.Second)

			sent, err := env.sentSeqs()
			if err != nil {
				return err.Error()
			}
			firstKept := numSeqs - historySize
			if firstKept < 0 {
				firstKept = 0
			}
			if len(sent) != numSeqs-firstKept {
				return fmt.Sprintf("forwarded %d broadcasts, expected %d", len(sent), numSeqs-firstKept)
			}
			for seq := range sent {
				if int(seq) < firstKept {
					return fmt.Sprintf("evicted seq %d was forwarded", seq)
				}
			}
			if env.controller.history.len() > historySize {
				return "history exceeds its capacity"
			}
			return ""
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func remoteID(seq uint32) ids.BroadcastID {
	return ids.NewBroadcastID(remoteOrigin, seq)
}
