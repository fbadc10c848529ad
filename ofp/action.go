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

package ofp

import (
	"encoding/binary"
	"fmt"
)

// Action type numbers (OFPAT_*) this codec recognizes on decode. Any other
// value is kept as an opaque RawAction so a rewritten flow's untouched
// actions survive a decode/encode round trip byte-for-byte.
const (
	ActionOutput   uint16 = 0
	ActionSetDlDst uint16 = 5
)

const actionHeaderLen = 4

// Action is one element of an OpenFlow action list.
type Action interface {
	// Type is the OFPAT_* type code.
	Type() uint16
	// Encode returns the full wire form of the action, header included.
	Encode() []byte
}

// OutputAction is OFPAT_OUTPUT: send to Port, optionally capped to MaxLen
// bytes when Port is OFPP_CONTROLLER.
type OutputAction struct {
	Port   uint16
	MaxLen uint16
}

func (OutputAction) Type() uint16 { return ActionOutput }

func (a OutputAction) Encode() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b[0:2], ActionOutput)
	binary.BigEndian.PutUint16(b[2:4], 8)
	binary.BigEndian.PutUint16(b[4:6], a.Port)
	binary.BigEndian.PutUint16(b[6:8], a.MaxLen)
	return b
}

// SetDlDstAction is OFPAT_SET_DL_DST: overwrite the frame's destination MAC.
// This is the action the switch-instrumentation pass appends ahead of a tee
// OutputAction to redirect a duplicate copy's destination toward the
// collector encoding (spec.md §4.4, §6).
type SetDlDstAction struct {
	Addr [6]byte
}

func (SetDlDstAction) Type() uint16 { return ActionSetDlDst }

func (a SetDlDstAction) Encode() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint16(b[0:2], ActionSetDlDst)
	binary.BigEndian.PutUint16(b[2:4], 16)
	copy(b[4:10], a.Addr[:])
	return b
}

// RawAction is any action type this codec does not special-case. Payload is
// everything after the 4-byte type/len header, preserved verbatim.
type RawAction struct {
	TypeVal uint16
	Payload []byte
}

func (a RawAction) Type() uint16 { return a.TypeVal }

func (a RawAction) Encode() []byte {
	b := make([]byte, actionHeaderLen+len(a.Payload))
	binary.BigEndian.PutUint16(b[0:2], a.TypeVal)
	binary.BigEndian.PutUint16(b[2:4], uint16(len(b)))
	copy(b[4:], a.Payload)
	return b
}

// ParseActions decodes a tightly-packed action list of the given total byte
// length. Only OFPAT_OUTPUT is structurally parsed; every other action type
// is preserved as a RawAction so a flow-mod rewrite never drops fields it
// does not understand (spec.md §4.2).
func ParseActions(b []byte) ([]Action, error) {
	var actions []Action
	for len(b) > 0 {
		if len(b) < actionHeaderLen {
			return nil, protoErr("ofp.ParseActions", fmt.Errorf("truncated action header"))
		}
		typ := binary.BigEndian.Uint16(b[0:2])
		l := binary.BigEndian.Uint16(b[2:4])
		if int(l) < actionHeaderLen || int(l) > len(b) {
			return nil, protoErr("ofp.ParseActions", fmt.Errorf("action length %d out of range", l))
		}

		switch typ {
		case ActionOutput:
			if l != 8 {
				return nil, protoErr("ofp.ParseActions", fmt.Errorf("OFPAT_OUTPUT length %d, want 8", l))
			}
			actions = append(actions, OutputAction{
				Port:   binary.BigEndian.Uint16(b[4:6]),
				MaxLen: binary.BigEndian.Uint16(b[6:8]),
			})
		case ActionSetDlDst:
			if l != 16 {
				return nil, protoErr("ofp.ParseActions", fmt.Errorf("OFPAT_SET_DL_DST length %d, want 16", l))
			}
			var addr [6]byte
			copy(addr[:], b[4:10])
			actions = append(actions, SetDlDstAction{Addr: addr})
		default:
			payload := make([]byte, int(l)-actionHeaderLen)
			copy(payload, b[actionHeaderLen:l])
			actions = append(actions, RawAction{TypeVal: typ, Payload: payload})
		}

		b = b[l:]
	}
	return actions, nil
}

// EncodeActions concatenates the wire form of every action in order.
func EncodeActions(actions []Action) []byte {
	var out []byte
	for _, a := range actions {
		out = append(out, a.Encode()...)
	}
	return out
}

// ActionsLen returns the total encoded length of actions, as recorded in an
// actions_len / length field elsewhere in a message.
func ActionsLen(actions []Action) int {
	return len(EncodeActions(actions))
}
