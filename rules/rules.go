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

// Package rules parses the constraints DSL (spec.md §4.5) into a
// Requirements model: atoms, aliases, sets, constraints (single and
// grouped), and the deduplicated group conditions used to tag probes at
// generation time and dispatch verification at check time. Grounded on
// original_source/src/rulesparser.py.
package rules

import (
	"fmt"
	"sort"
)

// ConditionKind distinguishes the two condition line shapes a constraint
// can be guarded by.
type ConditionKind int

const (
	// CondEqual is "Var = literal".
	CondEqual ConditionKind = iota + 1
	// CondAtom is "atom(Var)".
	CondAtom
)

// A Condition guards a constraint: it must hold of a trace's Hs/Ht/Prot
// variables for the constraint to be checked against that trace.
type Condition struct {
	Kind   ConditionKind
	Source string // the variable, e.g. "Hs", "Ht", "Prot"
	Target string // the literal or atom name being compared/tested
}

func (c Condition) String() string {
	switch c.Kind {
	case CondEqual:
		return c.Source + " = " + c.Target
	case CondAtom:
		return c.Target + "(" + c.Source + ")"
	default:
		return "<invalid condition>"
	}
}

// conditionsEqual reports whether two condition slices name the same
// guard in the same order. finalize uses this to fold constraints that
// share an identical guard into one GroupCondition, per spec.md §4.5.
func conditionsEqual(a, b []Condition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// A SingleConstraint is one parsed `kw(args) <= conds` line.
type SingleConstraint struct {
	ID          int
	Keyword     string
	Conditions  []Condition
	Priority    int
	Group       string // "" if ungrouped
	Data        interface{}
	SuccessRate float64 // threshold; verified iff VerifyRate >= SuccessRate
	Samples     int     // probe-multiplicity override, 0 if default

	VerifyRate float64
	Verified   bool
}

func (c *SingleConstraint) check() bool {
	return c.VerifyRate >= c.SuccessRate
}

// String renders the constraint back into its DSL line form, minus the
// handler-specific argument rendering (callers needing that should use
// constraints.Handler.String against c.Data).
func (c *SingleConstraint) String(argString string) string {
	s := ""
	if c.Group != "" {
		s += fmt.Sprintf(":%s:%d:", c.Group, c.Priority)
	}
	s += c.Keyword + "(" + argString + ")"
	if len(c.Conditions) > 0 {
		s += " <= "
		for i, cd := range c.Conditions {
			if i > 0 {
				s += " ^ "
			}
			s += cd.String()
		}
	}
	return s
}

// A GroupConstraint bundles every SingleConstraint sharing a :grpid:
// label. A group is satisfied iff exactly one priority level within it
// has at least one verified member (spec.md §4.7).
type GroupConstraint struct {
	Group       string
	Constraints []*SingleConstraint
	Verified    bool
}

// A GroupCondition is a deduplicated condition guard: every constraint
// sharing the same condition tuple is evaluated against the same batch of
// traces, tagged by this group condition's ID at probe-generation time.
type GroupCondition struct {
	ID         int
	Conditions []Condition
	Members    []*SingleConstraint
}

// Requirements is the parsed result of one rules file.
type Requirements struct {
	Atoms            map[string][]string
	Sets             map[string][]string
	Aliases          map[string]string
	Constraints      []interface{} // *SingleConstraint (ungrouped) or *GroupConstraint
	GroupConstraints map[string]*GroupConstraint
	Conditions       []*GroupCondition

	nextConstraintID int
	nextGroupCondID  int
}

// NewRequirements returns an empty Requirements, ready for parsing.
func NewRequirements() *Requirements {
	return &Requirements{
		Atoms:            make(map[string][]string),
		Sets:             make(map[string][]string),
		Aliases:          make(map[string]string),
		GroupConstraints: make(map[string]*GroupConstraint),
	}
}

func (r *Requirements) newConstraintID() int {
	r.nextConstraintID++
	return r.nextConstraintID
}

func (r *Requirements) newGroupConditionID() int {
	r.nextGroupCondID++
	return r.nextGroupCondID
}

func (r *Requirements) addAtom(atom, target string) {
	r.Atoms[atom] = append(r.Atoms[atom], target)
}

func (r *Requirements) addAlias(v, target string) {
	r.Aliases[v] = target
}

func (r *Requirements) addSet(v string, members []string) {
	r.Sets[v] = members
}

func (r *Requirements) addConstraint(c *SingleConstraint) {
	r.Constraints = append(r.Constraints, c)
}

func (r *Requirements) addGroupConstraint(c *SingleConstraint, grpid string) {
	grp, ok := r.GroupConstraints[grpid]
	if !ok {
		grp = &GroupConstraint{Group: grpid}
		r.GroupConstraints[grpid] = grp
	}
	grp.Constraints = append(grp.Constraints, c)
}

// addCondition folds constr into the GroupCondition matching its
// condition tuple, creating one if this is the first constraint to use
// that tuple. Per spec.md §4.5, this is a true content dedup: the
// original's GroupCondition.__eq__ compared auto-incrementing ids, so it
// never actually matched an existing entry and every constraint ended up
// in its own singleton group condition. This implementation performs the
// dedup the docstring always claimed.
func (r *Requirements) addCondition(conds []Condition, constr *SingleConstraint) {
	for _, gc := range r.Conditions {
		if conditionsEqual(gc.Conditions, conds) {
			gc.Members = append(gc.Members, constr)
			return
		}
	}
	gc := &GroupCondition{ID: r.newGroupConditionID(), Conditions: conds}
	gc.Members = append(gc.Members, constr)
	r.Conditions = append(r.Conditions, gc)
}

// Finalize flattens every group constraint into the top-level Constraints
// list and builds the deduplicated GroupCondition set. Grounded on
// original_source/src/rulesparser.py's Requirements.finalize.
func (r *Requirements) Finalize() {
	for _, grpid := range sortedKeys(r.GroupConstraints) {
		r.Constraints = append(r.Constraints, r.GroupConstraints[grpid])
	}

	for _, c := range r.Constraints {
		switch v := c.(type) {
		case *GroupConstraint:
			for _, sub := range v.Constraints {
				r.addCondition(sub.Conditions, sub)
			}
		case *SingleConstraint:
			r.addCondition(v.Conditions, v)
		}
	}
}

// sortedKeys returns m's keys in sorted order: Go maps don't track
// insertion order, and Finalize's output should be deterministic across
// runs given the same input file.
func sortedKeys(m map[string]*GroupConstraint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
