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

// Package pathregex compiles the path expression language used by the
// "path" constraint into a deterministic automaton over switch-id
// sequences: tokenize and parse to an AST, translate to an epsilon-NFA by
// Thompson's construction, eliminate epsilon transitions by loop
// reduction, and determinise by Rabin-Scott subset construction.
package pathregex

import (
	"fmt"

	"github.com/ofverify/netreach/ofverr"
)

// Compile parses a path expression and returns its DFA. Parse and
// construction failures are reported as ofverr.Config errors.
func Compile(expr string) (*DFA, error) {
	ast, err := parse(expr)
	if err != nil {
		return nil, ofverr.New(ofverr.Config, "pathregex.Compile", err)
	}
	n := buildNFA(ast)
	e := removeEpsilon(n)
	return determinise(e), nil
}

// MustCompile is Compile, panicking on error. Intended for constant
// expressions baked into tests and protocol default tables, not for
// parsing user-supplied rules files.
func MustCompile(expr string) *DFA {
	d, err := Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("pathregex: MustCompile(%q): %v", expr, err))
	}
	return d
}

// Matches compiles expr and runs it against a switch-id sequence in one
// call; callers verifying many sequences against the same expression
// should call Compile once and reuse the DFA instead.
func Matches(expr string, path []int) (bool, error) {
	d, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return d.Run(path), nil
}
