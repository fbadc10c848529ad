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

// Package probe installs the tee instrumentation into switch flow tables
// and generates and injects the probe packets verification depends on
// (spec.md §4.4, §4.8). Grounded on original_source/src/generator.py.
package probe

import (
	"fmt"
	"strconv"

	"github.com/ofverify/netreach/topology"
)

// ToDlDst packs a (switch id, output port) pair into the synthetic
// destination MAC a tee'd packet copy carries toward the collector:
// {0x42, 0x42, switchID-hi, switchID-lo, outport-hi, outport-lo}
// (spec.md §6, generator.py's to_dl_dst).
func ToDlDst(switchID, outport int) [6]byte {
	ssid := uint16(switchID)
	sport := uint16(outport)
	return [6]byte{
		0x42, 0x42,
		byte(ssid >> 8), byte(ssid),
		byte(sport >> 8), byte(sport),
	}
}

// hostToNode parses a condition's host literal ("h11") into its bare node
// id (11), matching rulesparser.py's Requirements.host_to_node. Names not
// shaped like "h<digits>" are rejected rather than silently returning the
// Python original's None.
func hostToNode(h string) (topology.Node, error) {
	if len(h) < 2 || h[0] != 'h' {
		return 0, fmt.Errorf("probe: not a host literal: %q", h)
	}
	n, err := strconv.Atoi(h[1:])
	if err != nil {
		return 0, fmt.Errorf("probe: bad host literal %q: %w", h, err)
	}
	return topology.Node(n), nil
}
