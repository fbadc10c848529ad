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

import (
	"fmt"
	"regexp"

	"github.com/spf13/cast"

	"github.com/ofverify/netreach/topology"
)

var delayArgsRe = regexp.MustCompile(`^F,\s*([0-9.]+)$`)

type delayData struct {
	ThresholdMS float64
}

type delayHandler struct{}

func (delayHandler) Keyword() string { return "delay" }

// Parse reads the "F, <float-ms>" argument form. Grounded on
// original_source/src/constraints/delay.py's DelayConstraint.parse.
func (delayHandler) Parse(args string) (interface{}, error) {
	m := delayArgsRe.FindStringSubmatch(args)
	if m == nil {
		return nil, fmt.Errorf("malformed delay args %q, want \"F, <ms>\"", args)
	}
	ms, err := cast.ToFloat64E(m[1])
	if err != nil {
		return nil, fmt.Errorf("malformed delay threshold %q: %w", m[1], err)
	}
	return delayData{ThresholdMS: ms}, nil
}

// Verify is satisfied for a trace iff its measured delay is at or below
// the threshold. Grounded on
// original_source/src/constraints/delay.py's DelayConstraint.verify.
func (delayHandler) Verify(data interface{}, traces []Trace, mapping *topology.Mapping, topo *topology.Topology) float64 {
	if len(traces) == 0 {
		return 0
	}
	d := data.(delayData)
	cnt := 0
	for _, tr := range traces {
		if tr.Delay <= d.ThresholdMS {
			cnt++
		}
	}
	return float64(cnt) / float64(len(traces))
}

func (delayHandler) String(data interface{}) string {
	return fmt.Sprintf("F, %f", data.(delayData).ThresholdMS)
}
