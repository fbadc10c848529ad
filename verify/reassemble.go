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

// Package verify reconstructs probe packets from collected postcards and
// dispatches constraint verification (spec.md §4.10). Grounded on
// original_source/src/checker.py's reassemble_packets/verify.
package verify

import (
	"sort"

	"github.com/ofverify/netreach/constraints"
	"github.com/ofverify/netreach/postcard"
	"github.com/ofverify/netreach/topology"
)

// Reassemble groups raw postcards by packet id into per-packet traces
// (one postcard per switch hop the packet traversed, in the order
// observed), accumulates inter-hop delay, and finally buckets the
// resulting traces by group-condition id. Mirrors checker.py's
// reassemble_packets, which does both steps in one pass over rawtrace;
// this keeps the same two-step shape but as two explicit passes for
// clarity since postcards need not arrive already grouped by pktid.
func Reassemble(raw []postcard.Postcard) map[int][]constraints.Trace {
	type building struct {
		trace  constraints.Trace
		lastTS float64
		tsSecs float64
	}

	byPktID := make(map[int]*building)
	var order []int

	for _, pc := range raw {
		ts := float64(pc.TS.UnixNano()) / 1e9
		b, ok := byPktID[pc.ID]
		if !ok {
			b = &building{
				trace: constraints.Trace{
					Src:   pc.Src,
					Dst:   pc.Dst,
					GCID:  pc.GCID,
					PktID: pc.ID,
				},
				lastTS: ts,
			}
			byPktID[pc.ID] = b
			order = append(order, pc.ID)
		} else {
			b.tsSecs += ts - b.lastTS
			b.lastTS = ts
		}
		b.trace.Path = append(b.trace.Path, topology.Node(pc.Switch))
	}

	sort.Ints(order)

	byGCID := make(map[int][]constraints.Trace)
	for _, id := range order {
		b := byPktID[id]
		b.trace.Delay = b.tsSecs * 1000
		byGCID[b.trace.GCID] = append(byGCID[b.trace.GCID], b.trace)
	}
	return byGCID
}
