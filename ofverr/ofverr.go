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

// Package ofverr defines the error taxonomy shared by every netreach package:
// configuration failures, transport failures, protocol violations, semantic
// (per-record) failures, and implementation-bug invariant violations.
package ofverr

import (
	"errors"
	"fmt"
)

// A Kind classifies an error so that callers can decide whether to abort,
// skip-and-continue, or treat the failure as a bug.
type Kind int

const (
	// Config errors are malformed input (topology/mapping/rules lines,
	// unknown constraint keywords, bad regex or constraint arguments).
	// Fatal at load time.
	Config Kind = iota

	// Transport errors are TCP or OpenFlow-session failures: connect/read/
	// write failure, EOF mid-frame, or a received OFPT_ERROR. The current
	// switch is skipped; processing continues with the next one.
	Transport

	// ProtocolViolation is a malformed OpenFlow frame (wrong version,
	// truncated length, unknown message type during handshake). Treated
	// the same as Transport by callers.
	ProtocolViolation

	// Semantic errors are per-record problems found during verification
	// (unmapped IP/MAC, unknown postcard protocol, outport pointing at the
	// controller). The offending record is skipped with a warning.
	Semantic

	// InvariantViolation indicates an implementation bug: a DFA observed
	// multiple next states, subset construction produced a duplicate
	// state, or an action list disagreed with its own header length.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Transport:
		return "transport"
	case ProtocolViolation:
		return "protocol-violation"
	case Semantic:
		return "semantic"
	case InvariantViolation:
		return "invariant-violation"
	default:
		return "unknown"
	}
}

// An Error attaches a Kind and an operation name to a wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as a Kind-classified Error. op should name the failing
// operation, e.g. "ofsession.Dial" or "rules.Parse".
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) is an *Error of the given
// Kind. ProtocolViolation errors also match a query for Transport, per the
// switch-session contract in spec.md §4.3.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == kind {
		return true
	}
	return kind == Transport && e.Kind == ProtocolViolation
}
