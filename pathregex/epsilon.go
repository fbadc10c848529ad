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

// set is a small state-set helper used by both epsilon removal and subset
// construction.
type set map[int]bool

func (s set) add(n int) bool {
	if s[n] {
		return false
	}
	s[n] = true
	return true
}

// epsNFA is the transition table used during and after epsilon removal:
// trans[state][symbol] is a de-duplicated set of reachable states, so
// re-adding an edge the loop-reduction algorithm already produced is a
// no-op rather than a growing slice.
type epsNFA struct {
	trans  map[int]map[int]set
	nstates int
	start   int
	accept  set
}

func (e *epsNFA) edge(from, sym, to int) bool {
	if e.trans[from] == nil {
		e.trans[from] = make(map[int]set)
	}
	if e.trans[from][sym] == nil {
		e.trans[from][sym] = make(set)
	}
	return e.trans[from][sym].add(to)
}

func (e *epsNFA) remove(from, sym, to int) {
	if e.trans[from] == nil || e.trans[from][sym] == nil {
		return
	}
	delete(e.trans[from][sym], to)
	if len(e.trans[from][sym]) == 0 {
		delete(e.trans[from], sym)
	}
}

func (e *epsNFA) has(from, sym, to int) bool {
	if e.trans[from] == nil || e.trans[from][sym] == nil {
		return false
	}
	return e.trans[from][sym][to]
}

// removeEpsilon eliminates epsilon transitions by loop reduction (spec.md
// §4.1 step 3): repeatedly take an outstanding p -eps-> q edge, remove it,
// and for every q -a-> r transition add p -a-> r (re-queuing when a is
// itself epsilon). A self-loop p -eps-> p is dropped with no propagation.
// The worklist shrinks to empty because the set of distinct (p,a,r)
// triples is finite and every step either removes an edge permanently or
// adds one that was not present before.
func removeEpsilon(b *nfa) *epsNFA {
	e := &epsNFA{trans: make(map[int]map[int]set), nstates: b.nstates, start: b.start, accept: make(set)}
	for s := range b.accept {
		e.accept.add(s)
	}
	for from, bysym := range b.trans {
		for sym, targets := range bysym {
			for _, to := range targets {
				e.edge(from, sym, to)
			}
		}
	}

	type pair struct{ p, q int }
	var queue []pair
	for from, bysym := range e.trans {
		for to := range bysym[symEpsilon] {
			queue = append(queue, pair{from, to})
		}
	}

	for len(queue) > 0 {
		pq := queue[0]
		queue = queue[1:]
		p, q := pq.p, pq.q

		if !e.has(p, symEpsilon, q) {
			continue
		}
		e.remove(p, symEpsilon, q)

		if p == q {
			continue
		}

		if e.accept[q] {
			e.accept.add(p)
		}

		type outEdge struct {
			sym int
			to  int
		}
		var outgoing []outEdge
		for sym, targets := range e.trans[q] {
			for to := range targets {
				outgoing = append(outgoing, outEdge{sym, to})
			}
		}

		for _, oe := range outgoing {
			if e.edge(p, oe.sym, oe.to) && oe.sym == symEpsilon {
				queue = append(queue, pair{p, oe.to})
			}
		}
	}

	return e
}
