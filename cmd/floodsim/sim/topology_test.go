// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("[Topology]", func() {
	It("links a line end to end", func() {
		t := Line(3)
		Expect(t.Nodes).To(Equal([]string{"n0", "n1", "n2"}))
		Expect(t.Links).To(Equal([][2]string{{"n0", "n1"}, {"n1", "n2"}}))
		Expect(t.Verify()).To(Succeed())
	})

	It("closes a ring", func() {
		t := Ring(3)
		Expect(t.Links).To(ContainElement([2]string{"n2", "n0"}))
		Expect(t.Links).To(HaveLen(3))

		// Two nodes are already linked by the line.
		Expect(Ring(2).Links).To(HaveLen(1))
	})

	It("links grid neighbors", func() {
		t := Grid(2, 2)
		Expect(t.Nodes).To(HaveLen(4))
		Expect(t.Links).To(ConsistOf(
			[2]string{"n0", "n1"},
			[2]string{"n0", "n2"},
			[2]string{"n1", "n3"},
			[2]string{"n2", "n3"},
		))
	})

	It("builds named topologies", func() {
		t, err := NewTopology("grid", 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.Nodes).To(HaveLen(9))

		_, err = NewTopology("star", 3)
		Expect(err).To(MatchError(errUnknownTopology))
	})

	It("parses YAML", func() {
		t, err := ParseTopology([]byte(`
nodes: [a, b, c]
links:
  - [a, b]
  - [b, c]
`))
		Expect(err).ToNot(HaveOccurred())
		Expect(t.Nodes).To(Equal([]string{"a", "b", "c"}))
		Expect(t.Links).To(Equal([][2]string{{"a", "b"}, {"b", "c"}}))
	})

	DescribeTable("rejects invalid topologies",
		func(t Topology, expectedErr error) {
			Expect(t.Verify()).To(MatchError(expectedErr))
		},
		Entry("too few nodes", Topology{Nodes: []string{"a"}}, errTooFewNodes),
		Entry("duplicate node", Topology{Nodes: []string{"a", "a"}}, errDuplicateNode),
		Entry("unknown node", Topology{
			Nodes: []string{"a", "b"},
			Links: [][2]string{{"a", "c"}},
		}, errUnknownNode),
		Entry("self link", Topology{
			Nodes: []string{"a", "b"},
			Links: [][2]string{{"a", "a"}},
		}, errSelfLink),
	)
})
