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

package ofsession_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/ofsession"
)

// testSwitch dials New against one end of a net.Pipe and runs fn on a
// goroutine wired to the other end, acting as the switch side of the
// dialogue. fn is responsible for the opening HELLO.
func testSwitch(t *testing.T, fn func(t *testing.T, sc *ofsession.Conn)) (*ofsession.Session, func()) {
	t.Helper()

	client, server := net.Pipe()
	sc := ofsession.NewConn(server, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(t, sc)
	}()

	s, err := ofsession.New(client)
	require.NoError(t, err)

	return s, func() {
		s.Close()
		sc.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("switch goroutine did not exit")
		}
	}
}

func sendHello(t *testing.T, sc *ofsession.Conn, xid uint32) {
	t.Helper()
	hello := ofp.Hello{Header: ofp.Header{Version: ofp.Version, Xid: xid}}
	require.NoError(t, sc.Send(hello.Encode()))
}

func TestHandshakeExchangesHello(t *testing.T) {
	_, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 7)

		h, _, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeHello, h.Type)
		require.Equal(t, uint32(7), h.Xid)
	})
	defer done()
}

func TestRunAutoRepliesToEchoRequest(t *testing.T) {
	s, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)

		// Consume the client's HELLO reply.
		_, _, err := sc.Receive()
		require.NoError(t, err)

		req := ofp.Echo{Header: ofp.Header{Version: ofp.Version, Xid: 99}, Data: []byte("ping")}
		require.NoError(t, sc.Send(req.Encode()))

		h, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeEchoReply, h.Type)
		require.Equal(t, uint32(99), h.Xid)
		require.Equal(t, []byte("ping"), body)

		barrier := ofp.Header{Version: ofp.Version, Type: ofp.TypeBarrierReply, Xid: 100, Length: 8}
		require.NoError(t, sc.Send(barrier.Encode()))
	})
	defer done()

	h, _, err := s.Run(ofp.TypeBarrierReply)
	require.NoError(t, err)
	require.Equal(t, ofp.TypeBarrierReply, h.Type)
}

func TestRunSurfacesErrorMessage(t *testing.T) {
	s, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		em := ofp.ErrorMsg{Header: ofp.Header{Version: ofp.Version, Xid: 5}, Type: 1, Code: 2}
		require.NoError(t, sc.Send(em.Encode()))
	})
	defer done()

	_, _, err := s.Run(ofp.TypeBarrierReply)
	require.Error(t, err)
	require.Contains(t, err.Error(), "OFPT_ERROR")
}

func TestDumpFlowsRoundTrip(t *testing.T) {
	want := []ofp.FlowStats{
		{
			TableID:  0,
			Match:    ofp.WildcardMatch(),
			Priority: 100,
			Cookie:   42,
			Actions:  []ofp.Action{ofp.OutputAction{Port: 3}},
		},
	}

	s, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		h, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeStatsRequest, h.Type)

		req, err := ofp.ParseFlowStatsRequest(body[4:])
		require.NoError(t, err)
		require.Equal(t, uint8(0xff), req.TableID)
		require.Equal(t, ofp.PortNone, req.OutPort)

		var recordBytes []byte
		for _, fs := range want {
			recordBytes = append(recordBytes, fs.Encode()...)
		}
		reply := ofp.StatsReply{
			Header: ofp.Header{Version: ofp.Version, Xid: h.Xid},
			Type:   ofp.StatsFlow,
			Body:   recordBytes,
		}
		require.NoError(t, sc.Send(reply.Encode()))
	})
	defer done()

	got, err := s.DumpFlows()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestModifyFlowSendsWithoutWaitingForReply(t *testing.T) {
	s, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		h, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeFlowMod, h.Type)

		fm, err := ofp.ParseFlowMod(h, body)
		require.NoError(t, err)
		require.Equal(t, ofp.FlowModModifyStrict, fm.Command)
		require.Equal(t, uint16(500), fm.Priority)
	})
	defer done()

	err := s.ModifyFlow(ofp.FlowMod{
		Match:    ofp.WildcardMatch(),
		Command:  ofp.FlowModModifyStrict,
		Priority: 500,
		Actions:  []ofp.Action{ofp.OutputAction{Port: 1}},
	})
	require.NoError(t, err)
}

func TestPacketOutSendsEncodedFrame(t *testing.T) {
	s, done := testSwitch(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		h, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypePacketOut, h.Type)

		po, err := ofp.ParsePacketOut(h, body)
		require.NoError(t, err)
		require.Equal(t, ofp.NoBuffer, po.BufferID)
		require.Equal(t, []byte("frame"), po.Data)
	})
	defer done()

	err := s.PacketOut(ofp.PacketOut{
		BufferID: ofp.NoBuffer,
		InPort:   ofp.PortNone,
		Actions:  []ofp.Action{ofp.OutputAction{Port: 2}},
		Data:     []byte("frame"),
	})
	require.NoError(t, err)
}
