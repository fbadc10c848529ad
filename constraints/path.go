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

	"github.com/ofverify/netreach/pathregex"
	"github.com/ofverify/netreach/topology"
)

var pathArgsRe = regexp.MustCompile(`^F,\s*'(.*)'(?:,\s*([0-9.]+))?$`)

type pathData struct {
	Pattern     string
	DFA         *pathregex.DFA
	successRate float64
	samples     int
	hasSamples  bool
}

// SuccessRateOverride implements Overrider: a path constraint's optional
// trailing rate replaces the constraint's default success-rate threshold
// of 1, modelling a load-balanced path expected in only a fraction of
// probes.
func (d pathData) SuccessRateOverride() (float64, bool) { return d.successRate, true }

// SamplesOverride implements Overrider: when the overridden rate is
// strictly between 0 and 1, the handler asks for 10 probe samples instead
// of the generator's default, so a load-balanced split has a chance of
// being observed on every branch.
func (d pathData) SamplesOverride() (int, bool) { return d.samples, d.hasSamples }

type pathHandler struct{}

func (pathHandler) Keyword() string { return "path" }

// Parse reads "F, '<regex>'[, <rate>]" and compiles the regex once so
// Verify never recompiles it per trace. Grounded on
// original_source/src/constraints/path.py's PathConstraint.parse, with the
// DFA construction moved from verify-time into parse-time.
func (pathHandler) Parse(args string) (interface{}, error) {
	m := pathArgsRe.FindStringSubmatch(args)
	if m == nil {
		return nil, fmt.Errorf("malformed path args %q, want \"F, '<regex>'[, <rate>]\"", args)
	}

	dfa, err := pathregex.Compile(m[1])
	if err != nil {
		return nil, fmt.Errorf("malformed path regex %q: %w", m[1], err)
	}

	d := pathData{Pattern: m[1], DFA: dfa, successRate: 1}
	if m[2] != "" {
		rate, err := cast.ToFloat64E(m[2])
		if err != nil {
			return nil, fmt.Errorf("malformed path rate %q: %w", m[2], err)
		}
		d.successRate = rate
		if rate > 0 && rate < 1 {
			d.samples = 10
			d.hasSamples = true
		}
	}
	return d, nil
}

// Verify is satisfied for a trace iff the compiled DFA accepts the
// observed switch path. Grounded on
// original_source/src/constraints/path.py's PathConstraint.verify.
func (pathHandler) Verify(data interface{}, traces []Trace, mapping *topology.Mapping, topo *topology.Topology) float64 {
	if len(traces) == 0 {
		return 0
	}
	d := data.(pathData)

	cnt := 0
	for _, tr := range traces {
		seq := make([]int, len(tr.Path))
		for i, n := range tr.Path {
			seq[i] = int(n)
		}
		if d.DFA.Run(seq) {
			cnt++
		}
	}
	return float64(cnt) / float64(len(traces))
}

func (pathHandler) String(data interface{}) string {
	d := data.(pathData)
	return fmt.Sprintf("F, '%s', %f", d.Pattern, d.successRate)
}
