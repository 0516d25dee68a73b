// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ava-labs/counterflood/utils/logging"
)

func simConfig(topology Topology, count uint32, broadcasts int) Config {
	return Config{
		Topology:   topology,
		Count:      count,
		MaxDelay:   100 * time.Millisecond,
		History:    100,
		Broadcasts: broadcasts,
		Interval:   time.Second,
		Seed:       7,
	}
}

var _ = Describe("[Run]", func() {
	It("floods every node when count is 0", func() {
		result, err := Run(logging.NoLog{}, simConfig(Line(5), 0, 1))
		Expect(err).ToNot(HaveOccurred())

		Expect(result.Transmissions).To(BeEquivalentTo(5))
		Expect(result.Deliveries).To(BeEquivalentTo(4))
		Expect(result.Reachability).To(Equal(1.0))
		Expect(result.Suppressed).To(BeZero())
		Expect(result.Lost).To(BeZero())
	})

	It("stops at the originator's neighbors when count is 1", func() {
		result, err := Run(logging.NoLog{}, simConfig(Line(5), 1, 1))
		Expect(err).ToNot(HaveOccurred())

		Expect(result.Transmissions).To(BeEquivalentTo(1))
		Expect(result.Deliveries).To(BeNumerically(">=", 1))
		Expect(result.Deliveries).To(BeNumerically("<=", 2))
	})

	It("never suppresses on a line", func() {
		// Every node hears a broadcast from one side only before forwarding
		// it to the other.
		result, err := Run(logging.NoLog{}, simConfig(Line(6), 2, 5))
		Expect(err).ToNot(HaveOccurred())

		Expect(result.Suppressed).To(BeZero())
		Expect(result.Transmissions).To(BeEquivalentTo(6 * 5))
		Expect(result.Reachability).To(Equal(1.0))
		Expect(result.Duration).To(BeNumerically(">=", 4*time.Second))
	})

	It("suppresses redundant retransmissions on a grid", func() {
		flooded, err := Run(logging.NoLog{}, simConfig(Grid(4, 4), 0, 20))
		Expect(err).ToNot(HaveOccurred())
		suppressed, err := Run(logging.NoLog{}, simConfig(Grid(4, 4), 2, 20))
		Expect(err).ToNot(HaveOccurred())

		Expect(flooded.Transmissions).To(BeEquivalentTo(16 * 20))
		Expect(suppressed.Suppressed).To(BeNumerically(">", 0))
		Expect(suppressed.Transmissions).To(BeNumerically("<", flooded.Transmissions))

		var total uint64
		for _, node := range suppressed.Nodes {
			total += node.Stats.Transmitted
		}
		Expect(total).To(Equal(suppressed.Transmissions))
	})

	It("evicts old broadcasts", func() {
		config := simConfig(Line(3), 0, 5)
		config.History = 1

		result, err := Run(logging.NoLog{}, config)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Evicted).To(BeEquivalentTo(3 * 4))
		Expect(result.Reachability).To(Equal(1.0))
	})

	It("is deterministic for a seed", func() {
		config := simConfig(Ring(8), 3, 10)
		first, err := Run(logging.NoLog{}, config)
		Expect(err).ToNot(HaveOccurred())
		second, err := Run(logging.NoLog{}, config)
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("rejects runs without broadcasts", func() {
		_, err := Run(logging.NoLog{}, simConfig(Line(2), 0, 0))
		Expect(err).To(MatchError(errNoBroadcasts))
	})
})
