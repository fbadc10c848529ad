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

package verify

import (
	"fmt"

	"github.com/ofverify/netreach/constraints"
	"github.com/ofverify/netreach/rules"
	"github.com/ofverify/netreach/topology"
)

// A Verifier dispatches constraint verification against a Requirements
// model reconstructed from collected postcards.
type Verifier struct {
	Reqs    *rules.Requirements
	Topo    *topology.Topology
	Mapping *topology.Mapping
}

// New returns a Verifier bound to reqs, topo and mapping.
func New(reqs *rules.Requirements, topo *topology.Topology, mapping *topology.Mapping) *Verifier {
	return &Verifier{Reqs: reqs, Topo: topo, Mapping: mapping}
}

// Verify dispatches every group condition's member constraints against
// its bucket of reassembled traces (empty if no postcard ever tagged that
// group condition id), evaluates group-constraint satisfaction, and
// returns the count of unsatisfied top-level constraints (spec.md §4.10
// step 5). Grounded on checker.py's verify().
func (v *Verifier) Verify(byGCID map[int][]constraints.Trace) (int, error) {
	for _, gc := range v.Reqs.Conditions {
		traces := byGCID[gc.ID]
		for _, constr := range gc.Members {
			handler, ok := constraints.Get(constr.Keyword)
			if !ok {
				return 0, fmt.Errorf("verify: unknown constraint keyword %q", constr.Keyword)
			}
			constr.VerifyRate = handler.Verify(constr.Data, traces, v.Mapping, v.Topo)
			constr.Verified = constr.VerifyRate >= constr.SuccessRate
		}
	}

	for _, grp := range v.Reqs.GroupConstraints {
		prios := map[int]bool{}
		for _, constr := range grp.Constraints {
			if _, ok := prios[constr.Priority]; !ok {
				prios[constr.Priority] = false
			}
			if constr.Verified {
				prios[constr.Priority] = true
			}
		}
		cnt := 0
		for _, satisfied := range prios {
			if satisfied {
				cnt++
			}
		}
		grp.Verified = cnt == 1
	}

	unsatisfied := 0
	for _, c := range v.Reqs.Constraints {
		switch cc := c.(type) {
		case *rules.GroupConstraint:
			if !cc.Verified {
				unsatisfied++
			}
		case *rules.SingleConstraint:
			if cc.Group == "" && !cc.Verified {
				unsatisfied++
			}
		}
	}
	return unsatisfied, nil
}
