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

package pathregex

import (
	"sort"
	"strconv"
	"strings"
)

// DFA is the determinised, epsilon-free automaton a path expression
// compiles to. trans maps state -> symbol -> exactly one successor state;
// determinism is guaranteed by construction (a Go map value slot holds a
// single int), so there is no separate run-time check for the "run must
// see at most one transition" invariant spec.md calls out.
type DFA struct {
	trans  map[int]map[int]int
	accept map[int]bool
	start  int
}

func subsetKey(s set) string {
	ids := make([]int, 0, len(s))
	for n := range s {
		ids = append(ids, n)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, n := range ids {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// determinise runs Rabin-Scott subset construction over the epsilon-free
// NFA (spec.md §4.1 step 4). Subsets are de-duplicated by a canonical
// sorted-state-list key in a map, so discovering whether a subset has
// already been assigned a DFA state is O(1) rather than a linear scan
// against every previously seen subset.
func determinise(e *epsNFA) *DFA {
	d := &DFA{trans: make(map[int]map[int]int), accept: make(map[int]bool)}

	seen := make(map[string]int) // canonical subset key -> dfa state id
	var subsets []set            // dfa state id -> subset

	startSet := set{e.start: true}
	startKey := subsetKey(startSet)
	seen[startKey] = 0
	subsets = append(subsets, startSet)
	d.start = 0

	for i := 0; i < len(subsets); i++ {
		s := subsets[i]
		if subsetIntersectsAccept(s, e.accept) {
			d.accept[i] = true
		}

		symSet := make(set)
		for q := range s {
			for sym := range e.trans[q] {
				symSet.add(sym)
			}
		}

		moves := make(map[int]set) // symbol -> resulting subset
		for sym := range symSet {
			moves[sym] = move(s, sym, e)
		}

		assign := func(sub set) int {
			k := subsetKey(sub)
			if id, ok := seen[k]; ok {
				return id
			}
			id := len(subsets)
			seen[k] = id
			subsets = append(subsets, sub)
			return id
		}

		var dotTarget int
		dotSub, hasDot := moves[symDot]
		if hasDot && len(dotSub) > 0 {
			dotTarget = assign(dotSub)
		}

		for sym, sub := range moves {
			if sym == symDot || len(sub) == 0 {
				continue
			}
			target := assign(sub)
			// Dedup step from spec.md §4.1 step 5: a concrete transition
			// that lands on the exact same DFA state as the wildcard
			// transition is redundant and is dropped in favour of the
			// wildcard edge.
			if hasDot && len(dotSub) > 0 && target == dotTarget {
				continue
			}
			d.setEdge(i, sym, target)
		}
		if hasDot && len(dotSub) > 0 {
			d.setEdge(i, symDot, dotTarget)
		}
	}

	return d
}

func (d *DFA) setEdge(from, sym, to int) {
	if d.trans[from] == nil {
		d.trans[from] = make(map[int]int)
	}
	d.trans[from][sym] = to
}

func subsetIntersectsAccept(s, accept set) bool {
	for q := range s {
		if accept[q] {
			return true
		}
	}
	return false
}

func move(s set, sym int, e *epsNFA) set {
	out := make(set)
	for q := range s {
		for to := range e.trans[q][sym] {
			out.add(to)
		}
	}
	return out
}

// Run executes the DFA against a switch sequence (spec.md §4.1
// "Execution"): take the concrete transition when defined, otherwise the
// wildcard transition, otherwise reject. Accept iff the final state is
// accepting after the whole sequence is consumed.
func (d *DFA) Run(seq []int) bool {
	cur := d.start
	for _, sym := range seq {
		next, ok := d.trans[cur][sym]
		if !ok {
			next, ok = d.trans[cur][symDot]
			if !ok {
				return false
			}
		}
		cur = next
	}
	return d.accept[cur]
}
