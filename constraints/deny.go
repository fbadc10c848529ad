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

type denyData struct{}

type denyHandler struct{}

func (denyHandler) Keyword() string { return "deny" }

func (denyHandler) Parse(args string) (interface{}, error) {
	return denyData{}, nil
}

// Verify is the inverse of allow, with a zero-trace special case: the
// absence of any observed trace is itself proof of denial, so the rate is
// 1 rather than the 0 allow would report. Grounded on
// original_source/src/constraints/deny.py's DenyConstraint.verify.
func (denyHandler) Verify(data interface{}, traces []Trace, mapping *topology.Mapping, topo *topology.Topology) float64 {
	if len(traces) == 0 {
		return 1
	}
	return 1 - float64(matchCount(traces, mapping, topo))/float64(len(traces))
}

func (denyHandler) String(data interface{}) string { return "F" }
