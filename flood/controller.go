// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flood

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/counterflood/message"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
)

const metricsNamespace = "counterflood"

var errNilDependency = errors.New("nil dependency")

// Stats are the aggregate counters of a Controller.
type Stats struct {
	Originated  uint64 `json:"originated"`
	Transmitted uint64 `json:"transmitted"`
	Received    uint64 `json:"received"`
}

// Controller implements counter-based flood suppression.
//
// A broadcast heard for the first time is remembered in a bounded history.
// Depending on the count threshold it is forwarded at once, never, or after a
// random delay. A delayed forward is cancelled if the broadcast is heard
// [threshold] times before the delay elapses.
//
// Controller is not safe for concurrent use. Push, the scheduler's callbacks
// and the command methods must be serialized by the caller, for example with
// the lock given to a timer.Dispatcher.
type Controller struct {
	log       logging.Logger
	scheduler timer.Scheduler
	source    sampler.Source
	outputs   Outputs
	metrics   *metrics

	etherType   uint16
	ip          netip.Addr
	broadcastIP netip.Addr
	mac         net.HardwareAddr
	maxDelay    time.Duration

	debug     bool
	threshold uint32
	nextSeq   uint32
	closed    bool

	history *history
	stats   Stats
}

// New returns a Controller. Metrics are registered with [registerer].
func New(
	config Config,
	log logging.Logger,
	scheduler timer.Scheduler,
	source sampler.Source,
	outputs Outputs,
	registerer prometheus.Registerer,
) (*Controller, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	switch {
	case log == nil:
		return nil, fmt.Errorf("%w: logger", errNilDependency)
	case scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", errNilDependency)
	case source == nil:
		return nil, fmt.Errorf("%w: random source", errNilDependency)
	case outputs == nil:
		return nil, fmt.Errorf("%w: outputs", errNilDependency)
	case registerer == nil:
		return nil, fmt.Errorf("%w: registerer", errNilDependency)
	}

	m, err := newMetrics(metricsNamespace, registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't register metrics: %w", err)
	}

	c := &Controller{
		log:         log,
		scheduler:   scheduler,
		source:      source,
		outputs:     outputs,
		metrics:     m,
		etherType:   config.EtherType,
		ip:          config.IP.Unmap(),
		broadcastIP: config.BroadcastIP.Unmap(),
		mac:         slices.Clone(config.MAC),
		maxDelay:    config.MaxDelay,
		debug:       config.Debug,
		threshold:   config.Count,
		// Start at a random sequence number so that a restarted node isn't
		// mistaken for a duplicate of its previous run.
		nextSeq: uint32(source.Uint64Inclusive(math.MaxUint32)),
	}
	c.history = newHistory(config.History, c.evicted)
	return c, nil
}

// Push is the single intake of packets. The controller takes ownership of
// [packet].
//
// Packets from the network that can't be parsed or don't belong to this
// flood are dropped silently.
func (c *Controller) Push(port Port, packet []byte) {
	if c.closed {
		c.metrics.dropped.WithLabelValues(droppedClosed).Inc()
		return
	}

	switch port {
	case NetworkPort:
		c.receive(packet)
	case HostPort:
		c.originate(packet)
	default:
		c.metrics.dropped.WithLabelValues(droppedUnknownPort).Inc()
		c.log.Warn("dropping packet from unknown port",
			zap.Stringer("port", port),
		)
	}
}

func (c *Controller) originate(payload []byte) {
	if len(payload) > message.MaxPayloadLen {
		c.metrics.dropped.WithLabelValues(droppedMalformed).Inc()
		c.log.Warn("dropping oversized payload from host",
			zap.Int("length", len(payload)),
		)
		return
	}

	seq := c.nextSeq
	c.nextSeq++

	frame := &message.Frame{
		DstMAC:      message.BroadcastMAC,
		SrcMAC:      c.mac,
		EtherType:   c.etherType,
		Origin:      c.ip,
		Destination: c.broadcastIP,
		Seq:         seq,
		Payload:     payload,
	}
	r := newRecord(frame, true, c.scheduler.Now(), c.threshold)
	c.insert(r)

	c.stats.Originated++
	c.metrics.originated.Inc()
	c.logPacket("originating broadcast",
		zap.Stringer("id", r.id),
		zap.Int("length", len(payload)),
	)

	// The source of a broadcast always sends it, whatever the threshold.
	c.forward(r)
}

func (c *Controller) receive(packet []byte) {
	// Frames of other protocols are dropped before the body is decoded.
	if etherType, ok := message.PeekEtherType(packet); ok && etherType != c.etherType {
		c.metrics.dropped.WithLabelValues(droppedEtherType).Inc()
		c.log.Verbo("dropping frame of another protocol",
			zap.Uint16("etherType", etherType),
		)
		return
	}
	frame, err := message.Parse(packet)
	if err != nil {
		c.metrics.dropped.WithLabelValues(droppedMalformed).Inc()
		c.log.Verbo("dropping malformed frame",
			zap.Error(err),
		)
		return
	}
	if frame.Destination.Unmap() != c.broadcastIP {
		c.metrics.dropped.WithLabelValues(droppedDestination).Inc()
		c.log.Verbo("dropping frame not sent to the broadcast address",
			zap.Stringer("destination", frame.Destination),
		)
		return
	}

	c.stats.Received++
	c.metrics.received.Inc()

	id := frame.ID()
	if r, ok := c.history.get(id); ok {
		c.duplicate(r)
		return
	}

	if id.Origin == c.ip {
		// One of our own broadcasts, relayed back after we forgot about it.
		// Flooding it again would only repeat what we already sent.
		c.metrics.dropped.WithLabelValues(droppedEcho).Inc()
		c.logPacket("dropping echo of an evicted broadcast",
			zap.Stringer("id", id),
		)
		return
	}

	r := newRecord(frame, false, c.scheduler.Now(), c.threshold)
	c.insert(r)
	c.logPacket("heard new broadcast",
		zap.Stringer("id", id),
		zap.Uint32("threshold", r.threshold),
	)

	c.outputs.DeliverToHost(slices.Clone(frame.Payload))
	c.decide(r)
}

// decide applies the forwarding decision to a newly heard broadcast.
func (c *Controller) decide(r *record) {
	switch r.threshold {
	case 0:
		c.forward(r)
	case 1:
		r.state = ReceiveOnly
		r.frame = nil
	default:
		delay := sampler.Jitter(c.source, c.maxDelay)
		r.scheduledSendAt = r.firstSeenAt.Add(delay)
		r.pendingTimer = c.scheduler.Schedule(r.scheduledSendAt, func() {
			c.forwardHook(r)
		})
		r.state = Pending
		c.metrics.pending.Inc()
		c.logPacket("scheduled retransmission",
			zap.Stringer("id", r.id),
			zap.Duration("delay", delay),
		)
	}
}

func (c *Controller) duplicate(r *record) {
	if r.receiveCount < math.MaxUint32 {
		r.receiveCount++
	}
	c.metrics.duplicates.Inc()

	if r.state != Pending || r.threshold <= 1 || r.receiveCount < r.threshold {
		c.log.Verbo("heard duplicate broadcast",
			zap.Stringer("id", r.id),
			zap.Uint32("receiveCount", r.receiveCount),
			zap.Stringer("state", r.state),
		)
		return
	}

	r.stopTimer()
	r.frame = nil
	r.state = Suppressed
	c.metrics.pending.Dec()
	c.metrics.suppressed.Inc()
	c.logPacket("suppressed retransmission",
		zap.Stringer("id", r.id),
		zap.Uint32("receiveCount", r.receiveCount),
	)
}

// forwardHook runs when [r]'s retransmission is due.
func (c *Controller) forwardHook(r *record) {
	// A cancelled timer never fires. This only guards against a record that
	// was replaced or already handled.
	if current, ok := c.history.get(r.id); !ok || current != r || r.state != Pending {
		c.log.Debug("ignoring stale retransmission",
			zap.Stringer("id", r.id),
		)
		return
	}
	r.pendingTimer = nil
	c.metrics.pending.Dec()
	c.forward(r)
}

// forward transmits [r] at most once.
func (c *Controller) forward(r *record) {
	if r.forwarded {
		return
	}
	r.forwarded = true
	r.state = Forwarded
	r.stopTimer()

	frame := r.frame
	r.frame = nil
	if frame == nil {
		return
	}
	frame.DstMAC = message.BroadcastMAC
	frame.SrcMAC = c.mac

	b, err := frame.Bytes()
	if err != nil {
		c.log.Error("couldn't serialize frame",
			zap.Stringer("id", r.id),
			zap.Error(err),
		)
		return
	}

	c.outputs.SendToNetwork(b)
	r.actuallySent = true
	c.stats.Transmitted++
	c.metrics.transmitted.Inc()
	c.logPacket("forwarded broadcast",
		zap.Stringer("id", r.id),
		zap.Uint32("receiveCount", r.receiveCount),
		zap.Bool("originated", r.originated),
	)
}

func (c *Controller) insert(r *record) {
	c.history.put(r)
	c.metrics.historySize.Set(float64(c.history.len()))
}

// evicted is called once [r] has left the history and been released.
func (c *Controller) evicted(r *record) {
	if r.state == Pending {
		c.metrics.pending.Dec()
	}
	c.metrics.evicted.Inc()
	c.log.Verbo("evicted broadcast",
		zap.Stringer("id", r.id),
		zap.Stringer("state", r.state),
	)
}

// Close cancels every pending retransmission and forgets the history. Any
// packet pushed afterwards is dropped.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.history.clear()
	c.metrics.pending.Set(0)
	c.metrics.historySize.Set(0)
}

func (c *Controller) logPacket(msg string, fields ...zap.Field) {
	if c.debug {
		c.log.Info(msg, fields...)
		return
	}
	c.log.Debug(msg, fields...)
}
