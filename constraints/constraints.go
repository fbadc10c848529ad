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

// Package constraints implements the allow/deny/delay/path constraint
// handlers dispatched during verification (spec.md §4.6). Each handler
// parses its DSL argument string into handler-specific data at rules-parse
// time and computes an observed match rate against a batch of reassembled
// traces at verify time; the caller (package verify) compares that rate
// against the constraint's success-rate threshold.
package constraints

import (
	"github.com/ofverify/netreach/topology"
)

// A Trace is one reassembled end-to-end packet observation: the switch
// path it traversed, its measured delay, and the endpoints it ran between.
// Grounded on original_source/src/tools.py's TraceData.
type Trace struct {
	Src   string
	Dst   string
	GCID  int
	PktID int
	Path  []topology.Node
	Delay float64 // milliseconds
}

// A Handler implements one constraint keyword.
type Handler interface {
	// Keyword is the DSL keyword this handler answers to, e.g. "allow".
	Keyword() string

	// Parse converts a constraint line's raw argument string into
	// handler-specific data. Returns a Config error wrapped by the caller
	// on malformed args.
	Parse(args string) (interface{}, error)

	// Verify computes the observed match rate in [0,1] for data against
	// traces. mapping and topo are nil for handlers that don't need them
	// (delay, path).
	Verify(data interface{}, traces []Trace, mapping *topology.Mapping, topo *topology.Topology) float64

	// String renders data back into the DSL argument-string form, the
	// inverse of Parse, used when a constraint is dumped for debugging.
	String(data interface{}) string
}

// An Overrider is implemented by handler data that can override a
// constraint's default success-rate threshold or probe sample count
// (currently only path, via its optional trailing rate argument).
type Overrider interface {
	SuccessRateOverride() (float64, bool)
	SamplesOverride() (int, bool)
}

// registry maps each recognised keyword to its handler, populated once at
// package init. Grounded on bgpfix/caps.NewFuncs's package-level map
// idiom, replacing the original's runtime module-scan
// (constraints/manager.py's _import_star) per spec.md §9.
var registry = map[string]Handler{
	"allow": allowHandler{},
	"deny":  denyHandler{},
	"delay": delayHandler{},
	"path":  pathHandler{},
}

// Get returns the handler registered for kw, or (nil, false) if kw is not
// a recognised constraint keyword.
func Get(kw string) (Handler, bool) {
	h, ok := registry[kw]
	return h, ok
}

// Keywords returns every registered keyword, in the fixed order spec.md
// §4.5 lists them.
func Keywords() []string {
	return []string{"allow", "deny", "delay", "path"}
}
