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

package constraints

import "github.com/ofverify/netreach/topology"

// allowData carries no fields: allow takes no arguments beyond the
// fixed "F" placeholder (spec.md §4.6).
type allowData struct{}

type allowHandler struct{}

func (allowHandler) Keyword() string { return "allow" }

func (allowHandler) Parse(args string) (interface{}, error) {
	return allowData{}, nil
}

// Verify is satisfied for a trace iff its source host is connected to the
// first switch on the observed path and its destination host is connected
// to the last switch. Grounded on
// original_source/src/constraints/allow.py's AllowConstraint.verify.
func (allowHandler) Verify(data interface{}, traces []Trace, mapping *topology.Mapping, topo *topology.Topology) float64 {
	if len(traces) == 0 {
		return 0
	}
	return float64(matchCount(traces, mapping, topo)) / float64(len(traces))
}

func (allowHandler) String(data interface{}) string { return "F" }

// matchCount counts traces whose endpoints are topologically adjacent to
// the path's first and last switch hop, the shared core of the allow/deny
// verification logic.
func matchCount(traces []Trace, mapping *topology.Mapping, topo *topology.Topology) int {
	cnt := 0
	for _, tr := range traces {
		if len(tr.Path) == 0 {
			continue
		}
		snode, ok := mapping.NodeFromIP(tr.Src)
		if !ok {
			continue
		}
		dnode, ok := mapping.NodeFromIP(tr.Dst)
		if !ok {
			continue
		}
		if topo.IsConnected(snode, tr.Path[0]) && topo.IsConnected(dnode, tr.Path[len(tr.Path)-1]) {
			cnt++
		}
	}
	return cnt
}
