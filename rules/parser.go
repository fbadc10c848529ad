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

package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/ofverify/netreach/constraints"
	"github.com/ofverify/netreach/ofverr"
)

// Line shapes, tried in order (spec.md §4.5). Grounded on
// original_source/src/rulesparser.py's sequence of re.search calls,
// adapted to the switch-instrumentation action parser's regex-dispatch
// idiom (ovs/actionparser.go).
var (
	atomLineRe   = regexp.MustCompile(`^([A-Za-z0-9_]+)\(([A-Za-z0-9_]+)\)$`)
	aliasLineRe  = regexp.MustCompile(`^([A-Za-z0-9_]+) = ([A-Za-z0-9_]+)$`)
	setLineRe    = regexp.MustCompile(`^([A-Za-z0-9_]+) = \{(.*)\}$`)
	groupLineRe  = regexp.MustCompile(`^:([0-9]+):([0-9]+):(.*)$`)
	constrLineRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\((.*)\) <= (.*)$`)
)

// A Parser parses rules files into a Requirements model.
type Parser struct {
	ll *zerolog.Logger
}

// An Option configures a Parser.
type Option func(*Parser)

// Logger overrides the logger used to report skipped lines (defaults to
// a stderr zerolog.Logger, matching the original's bare stderr writes).
func Logger(ll zerolog.Logger) Option {
	return func(p *Parser) { p.ll = &ll }
}

// NewParser returns a Parser ready to parse rules files.
func NewParser(options ...Option) *Parser {
	p := &Parser{}
	for _, o := range options {
		o(p)
	}
	if p.ll == nil {
		ll := zerolog.New(os.Stderr).With().Timestamp().Logger()
		p.ll = &ll
	}
	return p
}

// Parse reads and parses fname.
func (p *Parser) Parse(fname string) (*Requirements, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, ofverr.New(ofverr.Config, "rules.Parse", err)
	}
	defer f.Close()

	return p.ParseReader(f)
}

// ParseReader parses a rules file from an already-open reader.
func (p *Parser) ParseReader(r io.Reader) (*Requirements, error) {
	req := NewRequirements()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := p.parseLine(req, line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, ofverr.New(ofverr.Config, "rules.Parse", err)
	}

	req.Finalize()
	return req, nil
}

func (p *Parser) parseLine(req *Requirements, line string) error {
	if m := atomLineRe.FindStringSubmatch(line); m != nil {
		atom, target := m[1], m[2]
		if members, ok := req.Sets[target]; ok {
			for _, member := range members {
				req.addAtom(atom, member)
			}
		} else {
			req.addAtom(atom, target)
		}
		return nil
	}

	if m := aliasLineRe.FindStringSubmatch(line); m != nil {
		req.addAlias(m[1], m[2])
		return nil
	}

	if m := setLineRe.FindStringSubmatch(line); m != nil {
		members := strings.Split(strings.ReplaceAll(m[2], " ", ""), ",")
		req.addSet(m[1], members)
		return nil
	}

	grpid, prio, rest := "", 0, line
	if m := groupLineRe.FindStringSubmatch(line); m != nil {
		grpid = m[1]
		var err error
		if prio, err = cast.ToIntE(m[2]); err != nil {
			return ofverr.New(ofverr.Config, "rules.parseLine", fmt.Errorf("bad priority %q: %w", m[2], err))
		}
		rest = m[3]
	}

	if m := constrLineRe.FindStringSubmatch(rest); m != nil {
		keyword, args, condStr := m[1], m[2], m[3]

		conds, err := parseConditions(condStr)
		if err != nil {
			return ofverr.New(ofverr.Config, "rules.parseLine", err)
		}

		handler, ok := constraints.Get(keyword)
		if !ok {
			return ofverr.New(ofverr.Config, "rules.parseLine", fmt.Errorf("unknown constraint keyword %q", keyword))
		}
		data, err := handler.Parse(args)
		if err != nil {
			return ofverr.New(ofverr.Config, "rules.parseLine", fmt.Errorf("%s: %w", keyword, err))
		}

		constr := &SingleConstraint{
			ID:          req.newConstraintID(),
			Keyword:     keyword,
			Conditions:  conds,
			Priority:    prio,
			Group:       grpid,
			Data:        data,
			SuccessRate: 1,
		}
		if ov, ok := data.(constraints.Overrider); ok {
			if rate, ok := ov.SuccessRateOverride(); ok {
				constr.SuccessRate = rate
			}
			if samples, ok := ov.SamplesOverride(); ok {
				constr.Samples = samples
			}
		}

		if grpid == "" {
			req.addConstraint(constr)
		} else {
			req.addGroupConstraint(constr, grpid)
		}
		return nil
	}

	p.ll.Warn().Str("line", line).Msg("rules: skipping unrecognised line")
	return nil
}

// parseConditions splits a "cond ^ cond ^ ..." guard string into
// Conditions, recognising the atom(Var) and Var = literal shapes.
func parseConditions(s string) ([]Condition, error) {
	if s == "" {
		return nil, nil
	}

	var conds []Condition
	for _, part := range strings.Split(strings.ReplaceAll(s, " ", ""), "^") {
		if m := atomCondRe.FindStringSubmatch(part); m != nil {
			conds = append(conds, Condition{Kind: CondAtom, Source: m[2], Target: m[1]})
			continue
		}
		if m := equalCondRe.FindStringSubmatch(part); m != nil {
			conds = append(conds, Condition{Kind: CondEqual, Source: m[1], Target: m[2]})
			continue
		}
		return nil, fmt.Errorf("unknown condition %q", part)
	}
	return conds, nil
}

var (
	atomCondRe  = regexp.MustCompile(`^(.*)\((.*)\)$`)
	equalCondRe = regexp.MustCompile(`^(.*)=(.*)$`)
)
