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

const matchLen = 40

// Wildcard bits for Match.Wildcards (OFPFW_*). WildcardAll matches the
// OFPST_FLOW dump request the switch-instrumentation pass issues: wildcard
// every field so the dump returns the whole table.
const (
	WildcardInPort  uint32 = 1 << 0
	WildcardDlVlan  uint32 = 1 << 1
	WildcardDlSrc   uint32 = 1 << 2
	WildcardDlDst   uint32 = 1 << 3
	WildcardDlType  uint32 = 1 << 4
	WildcardNwProto uint32 = 1 << 5
	WildcardTpSrc   uint32 = 1 << 6
	WildcardTpDst   uint32 = 1 << 7
	// Bits 8-19 (nw_src/nw_dst prefix lengths) and 20-21 (dl_vlan_pcp,
	// nw_tos) are not used by this codec; WildcardAll sets the full
	// 22-bit mask regardless.
	WildcardAll uint32 = (1 << 22) - 1
)

// Match is ofp_match: a 40-byte set of header field values plus a
// wildcard mask indicating which fields are don't-care.
type Match struct {
	Wildcards uint32
	InPort    uint16
	DlSrc     [6]byte
	DlDst     [6]byte
	DlVlan    uint16
	DlVlanPcp uint8
	DlType    uint16
	NwTos     uint8
	NwProto   uint8
	NwSrc     uint32
	NwDst     uint32
	TpSrc     uint16
	TpDst     uint16
}

// Encode returns the 40-byte wire form of m.
func (m Match) Encode() []byte {
	b := make([]byte, matchLen)
	binary.BigEndian.PutUint32(b[0:4], m.Wildcards)
	binary.BigEndian.PutUint16(b[4:6], m.InPort)
	copy(b[6:12], m.DlSrc[:])
	copy(b[12:18], m.DlDst[:])
	binary.BigEndian.PutUint16(b[18:20], m.DlVlan)
	b[20] = m.DlVlanPcp
	// b[21] is pad1.
	binary.BigEndian.PutUint16(b[22:24], m.DlType)
	b[24] = m.NwTos
	b[25] = m.NwProto
	// b[26:28] is pad2.
	binary.BigEndian.PutUint32(b[28:32], m.NwSrc)
	binary.BigEndian.PutUint32(b[32:36], m.NwDst)
	binary.BigEndian.PutUint16(b[36:38], m.TpSrc)
	binary.BigEndian.PutUint16(b[38:40], m.TpDst)
	return b
}

// ParseMatch decodes a 40-byte ofp_match.
func ParseMatch(b []byte) (Match, error) {
	if len(b) < matchLen {
		return Match{}, protoErr("ofp.ParseMatch", fmt.Errorf("short match: %d bytes", len(b)))
	}
	var m Match
	m.Wildcards = binary.BigEndian.Uint32(b[0:4])
	m.InPort = binary.BigEndian.Uint16(b[4:6])
	copy(m.DlSrc[:], b[6:12])
	copy(m.DlDst[:], b[12:18])
	m.DlVlan = binary.BigEndian.Uint16(b[18:20])
	m.DlVlanPcp = b[20]
	m.DlType = binary.BigEndian.Uint16(b[22:24])
	m.NwTos = b[24]
	m.NwProto = b[25]
	m.NwSrc = binary.BigEndian.Uint32(b[28:32])
	m.NwDst = binary.BigEndian.Uint32(b[32:36])
	m.TpSrc = binary.BigEndian.Uint16(b[36:38])
	m.TpDst = binary.BigEndian.Uint16(b[38:40])
	return m, nil
}

// WildcardMatch returns a Match that selects every flow: full wildcard mask,
// every other field left zero.
func WildcardMatch() Match {
	return Match{Wildcards: WildcardAll}
}
