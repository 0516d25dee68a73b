// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/network"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
)

const (
	etherType        = 0x88b5
	defaultInboxSize = 1024

	suppressedMetric = "counterflood_suppressed"
	evictedMetric    = "counterflood_evicted"
)

var (
	simulationStart = time.Unix(0, 0)
	broadcastIP     = netip.AddrFrom4([4]byte{255, 255, 255, 255})

	errNoBroadcasts = errors.New("at least one broadcast is required")
)

type Config struct {
	Topology Topology
	Count    uint32
	MaxDelay time.Duration
	History  int
	// Broadcasts are originated by uniformly chosen nodes, Interval apart.
	Broadcasts int
	Interval   time.Duration
	Seed       uint64
	// InboxSize bounds the frames a node can have waiting. Frames sent to a
	// full inbox are lost.
	InboxSize int
}

type NodeResult struct {
	Name      string      `json:"name"`
	Stats     flood.Stats `json:"stats"`
	Delivered uint64      `json:"delivered"`
}

type Result struct {
	Nodes      []NodeResult `json:"nodes"`
	Broadcasts int          `json:"broadcasts"`
	// Transmissions counts every frame sent, originations included.
	Transmissions uint64 `json:"transmissions"`
	Deliveries    uint64 `json:"deliveries"`
	// Reachability is the fraction of (broadcast, non-originating node)
	// pairs for which the broadcast was delivered.
	Reachability float64       `json:"reachability"`
	Suppressed   float64       `json:"suppressed"`
	Evicted      float64       `json:"evicted"`
	Lost         uint64        `json:"lost"`
	Duration     time.Duration `json:"duration"`
}

type simNode struct {
	name       string
	link       *network.MemoryLink
	controller *flood.Controller
	delivered  uint64
}

func (n *simNode) SendToNetwork(frame []byte) {
	// Sending on an open memory link can't fail.
	_ = n.link.Send(frame)
}

func (n *simNode) DeliverToHost([]byte) {
	n.delivered++
}

// Run floods [config.Broadcasts] broadcasts over the topology until no
// retransmission is pending. Simulated time only advances when every frame
// sent so far has been processed, so the run is deterministic for a seed.
func Run(log logging.Logger, config Config) (*Result, error) {
	if err := config.Topology.Verify(); err != nil {
		return nil, err
	}
	if config.Broadcasts <= 0 {
		return nil, errNoBroadcasts
	}
	inboxSize := config.InboxSize
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}

	hub := network.NewMemoryHubWithInboxSize(inboxSize)
	scheduler := timer.NewManualScheduler(simulationStart)
	source := sampler.NewSource(config.Seed)
	registry := prometheus.NewRegistry()

	nodes := make([]*simNode, len(config.Topology.Nodes))
	for i, name := range config.Topology.Nodes {
		link, err := hub.NewLink(name)
		if err != nil {
			return nil, err
		}
		n := &simNode{
			name: name,
			link: link,
		}

		// Each node draws from its own source so adding a node doesn't change
		// the jitter of the others.
		nodeSource := sampler.NewSource(config.Seed + uint64(i) + 1)
		n.controller, err = flood.New(
			flood.Config{
				EtherType:   etherType,
				IP:          nodeIP(i),
				BroadcastIP: broadcastIP,
				MAC:         nodeMAC(i),
				Count:       config.Count,
				MaxDelay:    config.MaxDelay,
				History:     config.History,
			},
			log,
			scheduler,
			nodeSource,
			n,
			prometheus.WrapRegistererWith(prometheus.Labels{"node": name}, registry),
		)
		if err != nil {
			return nil, fmt.Errorf("couldn't create node %q: %w", name, err)
		}
		nodes[i] = n
	}
	for _, link := range config.Topology.Links {
		if err := hub.Connect(link[0], link[1]); err != nil {
			return nil, err
		}
	}

	for i := 0; i < config.Broadcasts; i++ {
		runUntil(scheduler, nodes, simulationStart.Add(time.Duration(i)*config.Interval))

		originator := nodes[source.Uint64Inclusive(uint64(len(nodes)-1))]
		payload := make([]byte, 8)
		binary.BigEndian.PutUint64(payload, uint64(i))

		log.Debug("originating broadcast",
			zap.Int("broadcast", i),
			zap.String("node", originator.name),
		)
		originator.controller.Push(flood.HostPort, payload)
		drain(nodes)
	}
	for scheduler.RunNext() {
		drain(nodes)
	}

	result := &Result{
		Nodes:      make([]NodeResult, len(nodes)),
		Broadcasts: config.Broadcasts,
		Duration:   scheduler.Now().Sub(simulationStart),
	}
	for i, n := range nodes {
		stats := n.controller.Stats()
		result.Nodes[i] = NodeResult{
			Name:      n.name,
			Stats:     stats,
			Delivered: n.delivered,
		}
		result.Transmissions += stats.Transmitted
		result.Deliveries += n.delivered
		result.Lost += n.link.Lost()
		n.controller.Close()
	}
	result.Reachability = float64(result.Deliveries) / float64(config.Broadcasts*(len(nodes)-1))

	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("couldn't gather metrics: %w", err)
	}
	result.Suppressed = sumCounters(families, suppressedMetric)
	result.Evicted = sumCounters(families, evictedMetric)
	return result, nil
}

// runUntil fires every retransmission due by [t], letting the network settle
// after each one.
func runUntil(scheduler *timer.ManualScheduler, nodes []*simNode, t time.Time) {
	for {
		next, ok := scheduler.NextDeadline()
		if !ok || next.After(t) {
			break
		}
		scheduler.RunNext()
		drain(nodes)
	}
	scheduler.AdvanceTo(t)
}

// drain hands every queued frame to its receiver until all inboxes are empty.
func drain(nodes []*simNode) {
	for {
		delivered := false
		for _, n := range nodes {
			for {
				frame, ok := n.link.TryReceive()
				if !ok {
					break
				}
				delivered = true
				n.controller.Push(flood.NetworkPort, frame)
			}
		}
		if !delivered {
			return
		}
	}
}

func sumCounters(families []*dto.MetricFamily, name string) float64 {
	var sum float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			sum += metric.GetCounter().GetValue()
		}
	}
	return sum
}

func nodeIP(i int) netip.Addr {
	i++
	return netip.AddrFrom4([4]byte{10, byte(i >> 16), byte(i >> 8), byte(i)})
}

func nodeMAC(i int) net.HardwareAddr {
	i++
	return net.HardwareAddr{0x02, 0, 0, byte(i >> 16), byte(i >> 8), byte(i)}
}
