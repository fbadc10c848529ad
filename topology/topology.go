// Copyright 2017 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package topology parses the network topology and host/switch mapping
// files and exposes the node/edge/port graph used by the probe generator,
// the switch instrumentation pass, and the allow/deny constraint handlers.
package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ofverify/netreach/ofverr"
)

// A Node identifies a switch or host by its numeric suffix (s3 -> 3, h12 -> 12).
// Switch and host ids live in separate namespaces in the source topology file
// syntax (the "s"/"h" prefix), but are tracked here as plain ints matching the
// mapping file's bare node column.
type Node int

// Topology is an undirected graph over switches and hosts, with a per-switch
// local port number recorded for each incident edge.
type Topology struct {
	isSwitch map[Node]bool
	edges    map[Node]map[Node]bool
	ports    map[Node]map[Node]int
}

// New returns an empty Topology.
func New() *Topology {
	return &Topology{
		isSwitch: make(map[Node]bool),
		edges:    make(map[Node]map[Node]bool),
		ports:    make(map[Node]map[Node]int),
	}
}

// Parse reads a topology file of the form:
//
//	s1 <-> h1-eth1 s2-eth2
//	s2 <-> h2-eth1 s1-eth2
//
// The port assigned to each neighbor is its 0-based field index on the line
// minus one (the switch name is field 0 and "<->" field 1), so the first
// neighbor gets port 1, per spec.md §6.
func Parse(fname string) (*Topology, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, ofverr.New(ofverr.Config, "topology.Parse", err)
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader parses a topology from an already-open reader.
func ParseReader(r io.Reader) (*Topology, error) {
	t := New()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := t.parseLine(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, ofverr.New(ofverr.Config, "topology.Parse", err)
	}

	return t, nil
}

func (t *Topology) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ofverr.New(ofverr.Config, "topology.parseLine", fmt.Errorf("malformed topology line: %q", line))
	}

	sid, err := nodeID(fields[0])
	if err != nil {
		return ofverr.New(ofverr.Config, "topology.parseLine", err)
	}
	t.addNode(sid, true)

	// fields[1] is the "<->" separator; neighbors start at index 2, and
	// the port of the i-th field (0-indexed) is i-1, per spec.md §6.
	for i := 2; i < len(fields); i++ {
		spec := fields[i]
		namePart := spec
		if idx := strings.Index(spec, "-"); idx >= 0 {
			namePart = spec[:idx]
		}
		if len(namePart) == 0 {
			return ofverr.New(ofverr.Config, "topology.parseLine", fmt.Errorf("malformed neighbor token: %q", spec))
		}

		isSw := namePart[0] == 's'
		hid, err := nodeID(namePart)
		if err != nil {
			return ofverr.New(ofverr.Config, "topology.parseLine", err)
		}

		t.addNode(hid, isSw)
		t.addEdge(sid, hid)
		t.setPort(sid, hid, i-1)
	}

	return nil
}

func nodeID(token string) (Node, error) {
	if len(token) < 2 {
		return 0, fmt.Errorf("invalid node token: %q", token)
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid node token: %q: %w", token, err)
	}
	return Node(n), nil
}

func (t *Topology) addNode(n Node, isSwitch bool) {
	if _, ok := t.isSwitch[n]; !ok {
		t.isSwitch[n] = isSwitch
	}
}

// canon returns (a,b) with a<=b, the canonical ordering used to store an
// undirected edge once regardless of which endpoint is queried first.
func canon(a, b Node) (Node, Node) {
	if a < b {
		return a, b
	}
	return b, a
}

func (t *Topology) addEdge(a, b Node) {
	if a == b {
		return
	}
	lo, hi := canon(a, b)
	if t.edges[lo] == nil {
		t.edges[lo] = make(map[Node]bool)
	}
	t.edges[lo][hi] = true
}

func (t *Topology) setPort(from, to Node, port int) {
	if t.ports[from] == nil {
		t.ports[from] = make(map[Node]int)
	}
	t.ports[from][to] = port
}

// GetPort returns the local port "from" uses to reach "to". The port table is
// only guaranteed populated in the direction the topology file recorded it
// (spec.md §3's invariant: "every edge ... has a port entry in at least the
// switch's direction").
func (t *Topology) GetPort(from, to Node) (int, bool) {
	m, ok := t.ports[from]
	if !ok {
		return 0, false
	}
	p, ok := m[to]
	return p, ok
}

// IsSwitch reports whether n was declared with an "s" prefix.
func (t *Topology) IsSwitch(n Node) bool {
	return t.isSwitch[n]
}

// IsConnected reports whether a and b share an edge. Symmetric by
// construction (spec.md invariant 3): IsConnected(a,b) == IsConnected(b,a).
func (t *Topology) IsConnected(a, b Node) bool {
	lo, hi := canon(a, b)
	m, ok := t.edges[lo]
	if !ok {
		return false
	}
	return m[hi]
}

// Nodes returns every node id known to the topology, in no particular order.
func (t *Topology) Nodes() []Node {
	nodes := make([]Node, 0, len(t.isSwitch))
	for n := range t.isSwitch {
		nodes = append(nodes, n)
	}
	return nodes
}

// SwitchNeighbors returns the switches connected to host/switch n.
func (t *Topology) SwitchNeighbors(n Node) []Node {
	var out []Node
	for _, other := range t.Nodes() {
		if !t.IsSwitch(other) {
			continue
		}
		if t.IsConnected(n, other) {
			out = append(out, other)
		}
	}
	return out
}

// HostNeighbors returns the hosts connected to switch n.
func (t *Topology) HostNeighbors(n Node) []Node {
	var out []Node
	for _, other := range t.Nodes() {
		if t.IsSwitch(other) {
			continue
		}
		if t.IsConnected(n, other) {
			out = append(out, other)
		}
	}
	return out
}
