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

// Stats types (OFPST_*).
const (
	StatsDesc      uint16 = 0
	StatsFlow      uint16 = 1
	StatsAggregate uint16 = 2
	StatsTable     uint16 = 3
	StatsPort      uint16 = 4
	StatsQueue     uint16 = 5
	StatsVendor    uint16 = 0xffff
)

const statsEnvelopeLen = 4

// StatsRequest is the OFPT_STATS_REQUEST envelope: {type, flags} followed
// by a type-specific body (here, always a FlowStatsRequest for OFPST_FLOW).
type StatsRequest struct {
	Header Header
	Type   uint16
	Flags  uint16
	Body   []byte
}

func (s StatsRequest) Encode() []byte {
	b := make([]byte, statsEnvelopeLen+len(s.Body))
	binary.BigEndian.PutUint16(b[0:2], s.Type)
	binary.BigEndian.PutUint16(b[2:4], s.Flags)
	copy(b[4:], s.Body)

	s.Header.Type = TypeStatsRequest
	s.Header.Length = uint16(headerLen + len(b))
	return append(s.Header.Encode(), b...)
}

// StatsReply is the OFPT_STATS_REPLY envelope.
type StatsReply struct {
	Header Header
	Type   uint16
	Flags  uint16
	Body   []byte
}

func (s StatsReply) Encode() []byte {
	b := make([]byte, statsEnvelopeLen+len(s.Body))
	binary.BigEndian.PutUint16(b[0:2], s.Type)
	binary.BigEndian.PutUint16(b[2:4], s.Flags)
	copy(b[4:], s.Body)

	s.Header.Type = TypeStatsReply
	s.Header.Length = uint16(headerLen + len(b))
	return append(s.Header.Encode(), b...)
}

func ParseStatsReply(h Header, body []byte) (StatsReply, error) {
	if len(body) < statsEnvelopeLen {
		return StatsReply{}, protoErr("ofp.ParseStatsReply", fmt.Errorf("short stats envelope: %d bytes", len(body)))
	}
	return StatsReply{
		Header: h,
		Type:   binary.BigEndian.Uint16(body[0:2]),
		Flags:  binary.BigEndian.Uint16(body[2:4]),
		Body:   body[statsEnvelopeLen:],
	}, nil
}

const flowStatsRequestBodyLen = 4

// FlowStatsRequest is the OFPST_FLOW request body: a match followed by
// {table_id, pad, out_port}.
type FlowStatsRequest struct {
	Match   Match
	TableID uint8
	OutPort uint16
}

// DumpAllFlows returns the FLOW_STATS request body the switch-
// instrumentation pass issues to retrieve the whole flow table: wildcard
// match, table_id 0xff (ALL_TABLES), out_port OFPP_NONE (spec.md §4.4).
func DumpAllFlows() FlowStatsRequest {
	return FlowStatsRequest{Match: WildcardMatch(), TableID: 0xff, OutPort: PortNone}
}

func (r FlowStatsRequest) Encode() []byte {
	b := make([]byte, matchLen+flowStatsRequestBodyLen)
	copy(b[0:matchLen], r.Match.Encode())
	b[matchLen] = r.TableID
	// b[matchLen+1] is pad.
	binary.BigEndian.PutUint16(b[matchLen+2:matchLen+4], r.OutPort)
	return b
}

func ParseFlowStatsRequest(b []byte) (FlowStatsRequest, error) {
	if len(b) < matchLen+flowStatsRequestBodyLen {
		return FlowStatsRequest{}, protoErr("ofp.ParseFlowStatsRequest", fmt.Errorf("short body: %d bytes", len(b)))
	}
	m, err := ParseMatch(b[:matchLen])
	if err != nil {
		return FlowStatsRequest{}, err
	}
	return FlowStatsRequest{
		Match:   m,
		TableID: b[matchLen],
		OutPort: binary.BigEndian.Uint16(b[matchLen+2 : matchLen+4]),
	}, nil
}

const flowStatsFixedLen = 48 // everything except the embedded match

// FlowStats is one ofp_flow_stats record from an OFPST_FLOW reply.
type FlowStats struct {
	TableID      uint8
	Match        Match
	DurationSec  uint32
	DurationNsec uint32
	Priority     uint16
	IdleTimeout  uint16
	HardTimeout  uint16
	Cookie       uint64
	PacketCount  uint64
	ByteCount    uint64
	Actions      []Action
}

func (s FlowStats) Encode() []byte {
	actionBytes := EncodeActions(s.Actions)
	total := flowStatsFixedLen + matchLen + len(actionBytes)
	b := make([]byte, total)

	binary.BigEndian.PutUint16(b[0:2], uint16(total))
	b[2] = s.TableID
	// b[3] is pad.
	copy(b[4:4+matchLen], s.Match.Encode())

	o := 4 + matchLen
	binary.BigEndian.PutUint32(b[o:o+4], s.DurationSec)
	binary.BigEndian.PutUint32(b[o+4:o+8], s.DurationNsec)
	binary.BigEndian.PutUint16(b[o+8:o+10], s.Priority)
	binary.BigEndian.PutUint16(b[o+10:o+12], s.IdleTimeout)
	binary.BigEndian.PutUint16(b[o+12:o+14], s.HardTimeout)
	// b[o+14:o+20] is pad2.
	binary.BigEndian.PutUint64(b[o+20:o+28], s.Cookie)
	binary.BigEndian.PutUint64(b[o+28:o+36], s.PacketCount)
	binary.BigEndian.PutUint64(b[o+36:o+44], s.ByteCount)

	copy(b[4+matchLen+44:], actionBytes)
	return b
}

// ParseFlowStatsRecords decodes a tightly-packed sequence of
// ofp_flow_stats records, each self-delimited by its own length field (the
// first two bytes of the record).
func ParseFlowStatsRecords(b []byte) ([]FlowStats, error) {
	var out []FlowStats
	for len(b) > 0 {
		if len(b) < flowStatsFixedLen+matchLen {
			return nil, protoErr("ofp.ParseFlowStatsRecords", fmt.Errorf("truncated flow-stats record"))
		}
		length := binary.BigEndian.Uint16(b[0:2])
		if int(length) < flowStatsFixedLen+matchLen || int(length) > len(b) {
			return nil, protoErr("ofp.ParseFlowStatsRecords", fmt.Errorf("flow-stats record length %d out of range", length))
		}
		record := b[:length]

		m, err := ParseMatch(record[4 : 4+matchLen])
		if err != nil {
			return nil, err
		}

		o := 4 + matchLen
		fs := FlowStats{
			TableID:      record[2],
			Match:        m,
			DurationSec:  binary.BigEndian.Uint32(record[o : o+4]),
			DurationNsec: binary.BigEndian.Uint32(record[o+4 : o+8]),
			Priority:     binary.BigEndian.Uint16(record[o+8 : o+10]),
			IdleTimeout:  binary.BigEndian.Uint16(record[o+10 : o+12]),
			HardTimeout:  binary.BigEndian.Uint16(record[o+12 : o+14]),
			Cookie:       binary.BigEndian.Uint64(record[o+20 : o+28]),
			PacketCount:  binary.BigEndian.Uint64(record[o+28 : o+36]),
			ByteCount:    binary.BigEndian.Uint64(record[o+36 : o+44]),
		}

		actions, err := ParseActions(record[4+matchLen+44:])
		if err != nil {
			return nil, err
		}
		fs.Actions = actions
		out = append(out, fs)

		b = b[length:]
	}
	return out, nil
}
