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

// Flow-mod commands (OFPFC_*).
const (
	FlowModAdd          uint16 = 0
	FlowModModify       uint16 = 1
	FlowModModifyStrict uint16 = 2
	FlowModDelete       uint16 = 3
	FlowModDeleteStrict uint16 = 4
)

const flowModBodyLen = 24

// FlowMod is OFPT_FLOW_MOD: ofp_match (40) followed by the 24-byte
// flow-mod body (cookie through flags) followed by an action list
// (spec.md §4.2).
type FlowMod struct {
	Header      Header
	Match       Match
	Cookie      uint64
	Command     uint16
	IdleTimeout uint16
	HardTimeout uint16
	Priority    uint16
	BufferID    uint32
	OutPort     uint16
	Flags       uint16
	Actions     []Action
}

// Encode returns the full wire form, including the header, with
// Header.Length and Header.Type set to match the encoded body.
func (f FlowMod) Encode() []byte {
	actionBytes := EncodeActions(f.Actions)
	body := make([]byte, matchLen+flowModBodyLen+len(actionBytes))
	copy(body[0:matchLen], f.Match.Encode())

	o := matchLen
	binary.BigEndian.PutUint64(body[o:o+8], f.Cookie)
	binary.BigEndian.PutUint16(body[o+8:o+10], f.Command)
	binary.BigEndian.PutUint16(body[o+10:o+12], f.IdleTimeout)
	binary.BigEndian.PutUint16(body[o+12:o+14], f.HardTimeout)
	binary.BigEndian.PutUint16(body[o+14:o+16], f.Priority)
	binary.BigEndian.PutUint32(body[o+16:o+20], f.BufferID)
	binary.BigEndian.PutUint16(body[o+20:o+22], f.OutPort)
	binary.BigEndian.PutUint16(body[o+22:o+24], f.Flags)

	copy(body[matchLen+flowModBodyLen:], actionBytes)

	f.Header.Type = TypeFlowMod
	f.Header.Length = uint16(headerLen + len(body))
	return append(f.Header.Encode(), body...)
}

// ParseFlowMod decodes a FLOW_MOD message body following an already-parsed
// header.
func ParseFlowMod(h Header, body []byte) (FlowMod, error) {
	if len(body) < matchLen+flowModBodyLen {
		return FlowMod{}, protoErr("ofp.ParseFlowMod", fmt.Errorf("short flow-mod body: %d bytes", len(body)))
	}
	m, err := ParseMatch(body[:matchLen])
	if err != nil {
		return FlowMod{}, err
	}

	o := matchLen
	fm := FlowMod{
		Header:      h,
		Match:       m,
		Cookie:      binary.BigEndian.Uint64(body[o : o+8]),
		Command:     binary.BigEndian.Uint16(body[o+8 : o+10]),
		IdleTimeout: binary.BigEndian.Uint16(body[o+10 : o+12]),
		HardTimeout: binary.BigEndian.Uint16(body[o+12 : o+14]),
		Priority:    binary.BigEndian.Uint16(body[o+14 : o+16]),
		BufferID:    binary.BigEndian.Uint32(body[o+16 : o+20]),
		OutPort:     binary.BigEndian.Uint16(body[o+20 : o+22]),
		Flags:       binary.BigEndian.Uint16(body[o+22 : o+24]),
	}

	actions, err := ParseActions(body[matchLen+flowModBodyLen:])
	if err != nil {
		return FlowMod{}, err
	}
	fm.Actions = actions
	return fm, nil
}
