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

// Entry is the (ip, mac, openflow-port) tuple recorded for one node. For
// hosts, Mac is meaningful and Port is 0; for switches, Mac is the
// placeholder "x" and Port is the TCP port the switch's OpenFlow listener
// runs on (spec.md §3).
type Entry struct {
	IP   string
	Mac  string
	Port int
}

// Mapping is the total function node-id -> Entry.
type Mapping struct {
	nodes map[Node]Entry
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{nodes: make(map[Node]Entry)}
}

// ParseMapping reads a mapping file of the form:
//
//	<node-id> <ipv4> <mac|x> <ofport|0>
func ParseMapping(fname string) (*Mapping, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, ofverr.New(ofverr.Config, "topology.ParseMapping", err)
	}
	defer f.Close()

	return ParseMappingReader(f)
}

// ParseMappingReader parses a mapping from an already-open reader.
func ParseMappingReader(r io.Reader) (*Mapping, error) {
	m := NewMapping()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, ofverr.New(ofverr.Config, "topology.ParseMapping", fmt.Errorf("malformed mapping line: %q", line))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, ofverr.New(ofverr.Config, "topology.ParseMapping", fmt.Errorf("bad node id %q: %w", fields[0], err))
		}
		port, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, ofverr.New(ofverr.Config, "topology.ParseMapping", fmt.Errorf("bad port %q: %w", fields[3], err))
		}

		m.nodes[Node(id)] = Entry{IP: fields[1], Mac: fields[2], Port: port}
	}
	if err := sc.Err(); err != nil {
		return nil, ofverr.New(ofverr.Config, "topology.ParseMapping", err)
	}

	return m, nil
}

// Get returns the full entry for a node.
func (m *Mapping) Get(n Node) (Entry, bool) {
	e, ok := m.nodes[n]
	return e, ok
}

// IP returns the mapped IPv4 address for a node.
func (m *Mapping) IP(n Node) string { return m.nodes[n].IP }

// Mac returns the mapped MAC address for a node.
func (m *Mapping) Mac(n Node) string { return m.nodes[n].Mac }

// Port returns the mapped OpenFlow listener port for a switch node, or 0.
func (m *Mapping) Port(n Node) int { return m.nodes[n].Port }

// NodeFromIP reverse-looks-up a node by its mapped IP address. Returns
// (0, false) if no node maps to that IP.
func (m *Mapping) NodeFromIP(ip string) (Node, bool) {
	for n, e := range m.nodes {
		if e.IP == ip {
			return n, true
		}
	}
	return 0, false
}

// NodeFromMac reverse-looks-up a node by its mapped MAC address.
func (m *Mapping) NodeFromMac(mac string) (Node, bool) {
	for n, e := range m.nodes {
		if e.Mac == mac {
			return n, true
		}
	}
	return 0, false
}
