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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version, Type: TypeFlowMod, Length: 123, Xid: 0xdeadbeef}
	got, err := ParseHeader(h.Encode())
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(h, got))
}

func TestHeaderRejectsWrongVersion(t *testing.T) {
	b := Header{Version: 4, Type: TypeHello}.Encode()
	_, err := ParseHeader(b)
	require.Error(t, err)
}

func TestMatchRoundTrip(t *testing.T) {
	m := Match{
		Wildcards: WildcardAll &^ WildcardDlDst,
		InPort:    3,
		DlSrc:     [6]byte{0, 1, 2, 3, 4, 5},
		DlDst:     [6]byte{0x42, 0x42, 0, 1, 0, 2},
		DlVlan:    0xffff,
		DlType:    0x0800,
		NwProto:   6,
		NwSrc:     0x0a000001,
		NwDst:     0x0a000002,
		TpSrc:     1234,
		TpDst:     80,
	}
	got, err := ParseMatch(m.Encode())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestActionsRoundTripMixedKnownAndUnknown(t *testing.T) {
	actions := []Action{
		OutputAction{Port: 2, MaxLen: 0},
		SetDlDstAction{Addr: [6]byte{0x42, 0x42, 0, 1, 0, 2}},
		RawAction{TypeVal: 0xffff, Payload: []byte{1, 2, 3, 4}},
	}
	got, err := ParseActions(EncodeActions(actions))
	require.NoError(t, err)
	require.Equal(t, actions, got)
}

func TestParseActionsRejectsTruncatedHeader(t *testing.T) {
	_, err := ParseActions([]byte{0, 0, 0})
	require.Error(t, err)
}

func TestFlowModRoundTrip(t *testing.T) {
	fm := FlowMod{
		Header:      Header{Version: Version, Xid: 7},
		Match:       WildcardMatch(),
		Cookie:      42,
		Command:     FlowModModifyStrict,
		Priority:    100,
		BufferID:    NoBuffer,
		OutPort:     PortNone,
		Actions: []Action{
			OutputAction{Port: 1},
			SetDlDstAction{Addr: [6]byte{0x42, 0x42, 0, 1, 0, 2}},
			OutputAction{Port: 1},
		},
	}
	wire := fm.Encode()
	h, err := ParseHeader(wire[:8])
	require.NoError(t, err)
	require.Equal(t, TypeFlowMod, h.Type)
	require.EqualValues(t, len(wire), h.Length)

	got, err := ParseFlowMod(h, wire[8:])
	require.NoError(t, err)
	got.Header = fm.Header // header fields other than Type/Length are caller-supplied
	got.Header.Type = fm.Header.Type
	got.Header.Length = fm.Header.Length
	require.Equal(t, fm, got)
}

func TestFlowStatsRequestRoundTrip(t *testing.T) {
	r := DumpAllFlows()
	got, err := ParseFlowStatsRequest(r.Encode())
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestFlowStatsRecordsRoundTrip(t *testing.T) {
	recs := []FlowStats{
		{
			TableID:     0,
			Match:       WildcardMatch(),
			Priority:    1,
			Cookie:      1,
			PacketCount: 10,
			ByteCount:   1000,
			Actions:     []Action{OutputAction{Port: 2}},
		},
		{
			TableID:     0,
			Match:       WildcardMatch(),
			Priority:    2,
			PacketCount: 20,
			ByteCount:   2000,
			Actions:     []Action{RawAction{TypeVal: 0xffff, Payload: []byte{9, 9}}},
		},
	}
	var wire []byte
	for _, r := range recs {
		wire = append(wire, r.Encode()...)
	}

	got, err := ParseFlowStatsRecords(wire)
	require.NoError(t, err)
	require.Equal(t, recs, got)
}

func TestPacketOutRoundTrip(t *testing.T) {
	po := PacketOut{
		Header:   Header{Version: Version, Xid: 1},
		BufferID: NoBuffer,
		InPort:   PortController,
		Actions:  []Action{OutputAction{Port: PortTable}},
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
	}
	wire := po.Encode()
	h, err := ParseHeader(wire[:8])
	require.NoError(t, err)
	got, err := ParsePacketOut(h, wire[8:])
	require.NoError(t, err)
	got.Header = po.Header
	require.Equal(t, po, got)
}

func TestErrorMsgRoundTrip(t *testing.T) {
	em := ErrorMsg{Header: Header{Version: Version}, Type: 2, Code: 5, Data: []byte{1, 2}}
	wire := em.Encode()
	h, err := ParseHeader(wire[:8])
	require.NoError(t, err)
	got, err := ParseErrorMsg(h, wire[8:])
	require.NoError(t, err)
	got.Header = em.Header
	require.Equal(t, em, got)
	require.Equal(t, "OFPT_ERROR type=2 code=5", got.Error())
}

func TestEchoRoundTrip(t *testing.T) {
	req := Echo{Header: Header{Version: Version, Xid: 3}, Data: []byte("ping")}
	wire := req.Encode()
	h, err := ParseHeader(wire[:8])
	require.NoError(t, err)
	require.Equal(t, TypeEchoRequest, h.Type)

	got := ParseEcho(h, wire[8:])
	require.Equal(t, []byte("ping"), got.Data)
	require.False(t, got.Reply)
}
