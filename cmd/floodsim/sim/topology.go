// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"
)

var (
	errUnknownTopology = errors.New("unknown topology")
	errTooFewNodes     = errors.New("topology needs at least two nodes")
	errDuplicateNode   = errors.New("duplicate node")
	errUnknownNode     = errors.New("link references unknown node")
	errSelfLink        = errors.New("node linked to itself")
)

// Topology is an undirected graph of nodes that hear each other.
type Topology struct {
	Nodes []string    `json:"nodes"`
	Links [][2]string `json:"links"`
}

// NewTopology builds one of the named shapes: "line" and "ring" have [size]
// nodes, "grid" is [size] by [size].
func NewTopology(name string, size int) (Topology, error) {
	switch name {
	case "line":
		return Line(size), nil
	case "ring":
		return Ring(size), nil
	case "grid":
		return Grid(size, size), nil
	default:
		return Topology{}, fmt.Errorf("%w: %q", errUnknownTopology, name)
	}
}

// ParseTopology reads a topology from YAML or JSON.
func ParseTopology(b []byte) (Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Topology{}, fmt.Errorf("couldn't parse topology: %w", err)
	}
	return t, t.Verify()
}

func Line(n int) Topology {
	t := Topology{Nodes: nodeNames(n)}
	for i := 1; i < n; i++ {
		t.Links = append(t.Links, [2]string{t.Nodes[i-1], t.Nodes[i]})
	}
	return t
}

func Ring(n int) Topology {
	t := Line(n)
	if n > 2 {
		t.Links = append(t.Links, [2]string{t.Nodes[n-1], t.Nodes[0]})
	}
	return t
}

// Grid links every node to its horizontal and vertical neighbors.
func Grid(width, height int) Topology {
	t := Topology{Nodes: nodeNames(width * height)}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			i := row*width + col
			if col > 0 {
				t.Links = append(t.Links, [2]string{t.Nodes[i-1], t.Nodes[i]})
			}
			if row > 0 {
				t.Links = append(t.Links, [2]string{t.Nodes[i-width], t.Nodes[i]})
			}
		}
	}
	return t
}

func (t *Topology) Verify() error {
	if len(t.Nodes) < 2 {
		return fmt.Errorf("%w: %d", errTooFewNodes, len(t.Nodes))
	}

	nodes := make(map[string]struct{}, len(t.Nodes))
	for _, node := range t.Nodes {
		if _, ok := nodes[node]; ok {
			return fmt.Errorf("%w: %q", errDuplicateNode, node)
		}
		nodes[node] = struct{}{}
	}
	for _, link := range t.Links {
		for _, node := range link {
			if _, ok := nodes[node]; !ok {
				return fmt.Errorf("%w: %q", errUnknownNode, node)
			}
		}
		if link[0] == link[1] {
			return fmt.Errorf("%w: %q", errSelfLink, link[0])
		}
	}
	return nil
}

func nodeNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}
	return names
}
