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

package probe_test

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/ofsession"
	"github.com/ofverify/netreach/probe"
	"github.com/ofverify/netreach/rules"
	"github.com/ofverify/netreach/topology"
)

func TestToDlDstEncodesMagicSwitchPort(t *testing.T) {
	addr := probe.ToDlDst(0x0102, 0x0304)
	require.Equal(t, [6]byte{0x42, 0x42, 0x01, 0x02, 0x03, 0x04}, addr)
}

func fixture(t *testing.T) (*topology.Topology, *topology.Mapping) {
	t.Helper()
	topo, err := topology.ParseReader(strings.NewReader("s1 <-> h11-eth1 s2-eth2\ns2 <-> s1-eth1 h12-eth2 h13-eth3\n"))
	require.NoError(t, err)
	mapping, err := topology.ParseMappingReader(strings.NewReader(
		"1 10.0.0.1 x 6631\n" +
			"2 10.0.0.2 x 6632\n" +
			"11 10.0.1.1 00:00:00:00:00:11 0\n" +
			"12 10.0.1.2 00:00:00:00:00:12 0\n" +
			"13 10.0.1.3 00:00:00:00:00:13 0\n",
	))
	require.NoError(t, err)
	return topo, mapping
}

func TestGeneratePacketsResolvesAllowRate(t *testing.T) {
	_, mapping := fixture(t)
	req, err := rules.NewParser().ParseReader(strings.NewReader(`allow() <= Hs = h11 ^ Ht = h12`))
	require.NoError(t, err)

	pkts, err := probe.GeneratePackets(req, mapping, probe.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	require.Equal(t, topology.Node(11), pkts[0].Src)
}

func TestGeneratePacketsAppliesSamplesOverride(t *testing.T) {
	_, mapping := fixture(t)
	req, err := rules.NewParser().ParseReader(strings.NewReader(`path(F, 's1|s2', 0.5) <= Hs = h11 ^ Ht = h12`))
	require.NoError(t, err)

	pkts, err := probe.GeneratePackets(req, mapping, probe.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, pkts, 10, "path rate < 1 requests 10 samples absent a CLI override")

	pkts, err = probe.GeneratePackets(req, mapping, probe.GenerateOptions{SamplesOverride: 2})
	require.NoError(t, err)
	require.Len(t, pkts, 2, "CLI override takes priority over the handler's request")
}

func TestGeneratePacketsHandlesMergedGroupCondition(t *testing.T) {
	_, mapping := fixture(t)
	req, err := rules.NewParser().ParseReader(strings.NewReader(`
allow() <= Hs = h11 ^ Ht = h12
path(F, 's1|s2', 0.5) <= Hs = h11 ^ Ht = h12
`))
	require.NoError(t, err)
	require.Len(t, req.Conditions, 1, "both constraints share an Hs/Ht guard and dedup into one group condition")
	require.Len(t, req.Conditions[0].Members, 2)

	pkts, err := probe.GeneratePackets(req, mapping, probe.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, pkts, 10, "samples resolve to the max requested across members, generated once per group condition")

	pkts, err = probe.GeneratePackets(req, mapping, probe.GenerateOptions{SamplesOverride: 3})
	require.NoError(t, err)
	require.Len(t, pkts, 3, "CLI override still takes priority over every member's request")
}

func pipeDialer(t *testing.T, fn func(t *testing.T, sc *ofsession.Conn)) (probe.Dialer, func()) {
	t.Helper()
	client, server := net.Pipe()
	sc := ofsession.NewConn(server, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(t, sc)
	}()

	dial := func(addr string) (*ofsession.Session, error) {
		return ofsession.New(client)
	}
	return dial, func() {
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

func TestHookInsertsTeeImmediatelyAfterOutput(t *testing.T) {
	// A single-switch topology: s2 is the only switch actually dialed
	// (s1 plays the role of the collector and is never hooked here since
	// the test only exercises one Dialer connection).
	topo, err := topology.ParseReader(strings.NewReader("s2 <-> s1-eth1 h12-eth2\n"))
	require.NoError(t, err)
	mapping, err := topology.ParseMappingReader(strings.NewReader(
		"1 10.0.0.1 x 0\n" +
			"2 10.0.0.2 x 6632\n" +
			"12 10.0.1.2 00:00:00:00:00:12 0\n",
	))
	require.NoError(t, err)

	dial, done := pipeDialer(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		h, _, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeStatsRequest, h.Type)

		fs := ofp.FlowStats{
			Match:    ofp.WildcardMatch(),
			Priority: 10,
			Actions: []ofp.Action{
				ofp.OutputAction{Port: 1},
				ofp.SetDlDstAction{Addr: [6]byte{1, 2, 3, 4, 5, 6}},
			},
		}
		reply := ofp.StatsReply{
			Header: ofp.Header{Version: ofp.Version, Xid: h.Xid},
			Type:   ofp.StatsFlow,
			Body:   fs.Encode(),
		}
		require.NoError(t, sc.Send(reply.Encode()))

		h2, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypeFlowMod, h2.Type)
		fm, err := ofp.ParseFlowMod(h2, body)
		require.NoError(t, err)
		require.Equal(t, ofp.FlowModModifyStrict, fm.Command)

		require.Len(t, fm.Actions, 4)
		_, ok := fm.Actions[0].(ofp.OutputAction)
		require.True(t, ok, "original OUTPUT preserved first")
		_, ok = fm.Actions[1].(ofp.SetDlDstAction)
		require.True(t, ok, "tee SET_DL_DST immediately after the matching OUTPUT")
		teeOut, ok := fm.Actions[2].(ofp.OutputAction)
		require.True(t, ok, "tee OUTPUT immediately after")
		require.EqualValues(t, 1, teeOut.Port, "tee output targets switch 2's link to the collector")
		_, ok = fm.Actions[3].(ofp.SetDlDstAction)
		require.True(t, ok, "trailing non-OUTPUT action preserved after the tee")
	})
	defer done()

	err = probe.Hook(topo, mapping, topology.Node(1), dial, zerolog.Nop())
	require.NoError(t, err)
}

func TestSendInjectsAtEverySwitchNeighboringSource(t *testing.T) {
	topo, mapping := fixture(t)

	var seenPorts []uint16
	dial, done := pipeDialer(t, func(t *testing.T, sc *ofsession.Conn) {
		sendHello(t, sc, 1)
		_, _, err := sc.Receive()
		require.NoError(t, err)

		h, body, err := sc.Receive()
		require.NoError(t, err)
		require.Equal(t, ofp.TypePacketOut, h.Type)
		po, err := ofp.ParsePacketOut(h, body)
		require.NoError(t, err)
		require.Equal(t, ofp.NoBuffer, po.BufferID)
		seenPorts = append(seenPorts, po.Actions[0].(ofp.OutputAction).Port)
	})
	defer done()

	err := probe.Send(topo, mapping, []probe.Packet{{Src: topology.Node(11), Data: []byte("frame")}},
		probe.SendOptions{}, dial, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, []uint16{ofp.PortTable}, seenPorts)
}
