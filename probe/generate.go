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

package probe

import (
	"fmt"
	"net"

	"github.com/google/gopacket/layers"

	"github.com/ofverify/netreach/protocols"
	"github.com/ofverify/netreach/rules"
	"github.com/ofverify/netreach/topology"
)

// A Packet is one generated probe frame ready for injection, tagged with
// the source host it should be injected nearest to (send_packets injects
// at every switch neighboring this host).
type Packet struct {
	Src  topology.Node
	Data []byte
}

// GenerateOptions controls sample-count resolution (spec.md §4.8 step 4).
type GenerateOptions struct {
	// SamplesOverride, if non-zero, takes priority over every handler's
	// own requested sample count (the CLI -s flag in generator.py).
	SamplesOverride int
}

// GeneratePackets builds the probe packets for every group condition in
// reqs, grounded on generator.py's generate_packets/get_packet_prototypes.
func GeneratePackets(reqs *rules.Requirements, mapping *topology.Mapping, opts GenerateOptions) ([]Packet, error) {
	var out []Packet

	for _, gc := range reqs.Conditions {
		src, dst, proto, err := resolveEndpoints(reqs, gc.Conditions)
		if err != nil {
			return nil, err
		}

		samples := resolveSamples(gc, opts)

		pkts, err := buildPrototypes(src, dst, proto, gc.ID, samples, mapping)
		if err != nil {
			return nil, err
		}
		out = append(out, pkts...)
	}
	return out, nil
}

// resolveEndpoints resolves a group condition's Hs/Ht/Prot guard into
// source hosts, destination hosts, and a protocol name (spec.md §4.8
// steps 1-3).
func resolveEndpoints(reqs *rules.Requirements, conds []rules.Condition) (src, dst []topology.Node, proto string, err error) {
	for _, c := range conds {
		switch c.Source {
		case "Hs":
			nodes, err := resolveHostCondition(reqs, c)
			if err != nil {
				return nil, nil, "", err
			}
			src = append(src, nodes...)
		case "Ht":
			nodes, err := resolveHostCondition(reqs, c)
			if err != nil {
				return nil, nil, "", err
			}
			dst = append(dst, nodes...)
		case "Prot":
			if c.Kind == rules.CondEqual {
				proto = c.Target
			}
			// An atom(Prot) condition is not supported (generator.py logs
			// a warning and ignores it); silently falling through to the
			// default protocol matches that behaviour.
		}
	}
	if proto == "" {
		proto = protocols.DefaultName
	}
	return src, dst, proto, nil
}

func resolveHostCondition(reqs *rules.Requirements, c rules.Condition) ([]topology.Node, error) {
	if c.Kind == rules.CondEqual {
		n, err := hostToNode(c.Target)
		if err != nil {
			return nil, err
		}
		return []topology.Node{n}, nil
	}

	var nodes []topology.Node
	for _, h := range reqs.Atoms[c.Target] {
		n, err := hostToNode(h)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// resolveSamples applies the CLI-override > handler-requested > default=1
// priority (spec.md §4.8 step 4). A group condition shared by several
// constraints (the load-balancing / merged-family case, spec.md §4.8,
// invariant 5, scenario S5) resolves to the largest multiplicity any of
// its members asked for, since the probe packets are generated once per
// group condition and must satisfy every member's sampling need.
func resolveSamples(gc *rules.GroupCondition, opts GenerateOptions) int {
	if opts.SamplesOverride > 0 {
		return opts.SamplesOverride
	}

	samples := 1
	for _, m := range gc.Members {
		if m.Samples > samples {
			samples = m.Samples
		}
	}
	return samples
}

func buildPrototypes(src, dst []topology.Node, proto string, gcid, samples int, mapping *topology.Mapping) ([]Packet, error) {
	builder, ok := protocols.Get(proto)
	if !ok {
		return nil, fmt.Errorf("probe: unknown protocol %q", proto)
	}

	var out []Packet
	for _, snode := range src {
		for _, dnode := range dst {
			eth := layers.Ethernet{
				SrcMAC: net.HardwareAddr(mustParseMAC(mapping.Mac(snode))),
				DstMAC: net.HardwareAddr(mustParseMAC(mapping.Mac(dnode))),
			}
			for i := 0; i < samples; i++ {
				frames, err := builder.Build(eth, mapping.IP(snode), mapping.IP(dnode), gcid)
				if err != nil {
					return nil, err
				}
				for _, frame := range frames {
					out = append(out, Packet{Src: snode, Data: frame})
				}
			}
		}
	}
	return out, nil
}

func mustParseMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return make(net.HardwareAddr, 6)
	}
	return mac
}
