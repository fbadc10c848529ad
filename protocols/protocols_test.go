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

package protocols_test

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/ofverify/netreach/protocols"
)

var testEth = layers.Ethernet{
	SrcMAC: []byte{0, 0, 0, 0, 0, 1},
	DstMAC: []byte{0, 0, 0, 0, 0, 2},
}

func decode(t *testing.T, frame []byte) (*layers.IPv4, gopacket.Layer) {
	t.Helper()
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	require.NotNil(t, ipLayer)
	ip := ipLayer.(*layers.IPv4)

	if l := pkt.Layer(layers.LayerTypeICMPv4); l != nil {
		return ip, l
	}
	l4 := pkt.TransportLayer()
	require.NotNil(t, l4)
	return ip, l4.(gopacket.Layer)
}

func TestDefaultBuilderUsesUDP64242(t *testing.T) {
	b, ok := protocols.Get("default")
	require.True(t, ok)

	frames, err := b.Build(testEth, "10.0.1.1", "10.0.1.2", 42)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	ip, l4 := decode(t, frames[0])
	require.EqualValues(t, 42, ip.Id)
	udp := l4.(*layers.UDP)
	require.EqualValues(t, 64242, udp.DstPort)
	require.EqualValues(t, protocols.MagicChecksum, udp.Checksum)
}

func TestICMPBuilderUsesEchoRequest(t *testing.T) {
	b, ok := protocols.Get("icmp")
	require.True(t, ok)

	frames, err := b.Build(testEth, "10.0.1.1", "10.0.1.2", 7)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	_, l4 := decode(t, frames[0])
	icmp := l4.(*layers.ICMPv4)
	require.Equal(t, layers.ICMPv4TypeEchoRequest, icmp.TypeCode.Type())
	require.EqualValues(t, protocols.MagicChecksum, icmp.Checksum)
}

func TestMailBuilderFansOutOnePacketPerPort(t *testing.T) {
	b, ok := protocols.Get("mail")
	require.True(t, ok)

	frames, err := b.Build(testEth, "10.0.1.1", "10.0.1.2", 1)
	require.NoError(t, err)
	require.Len(t, frames, 6)

	wantPorts := map[layers.TCPPort]bool{25: true, 143: true, 220: true, 465: true, 587: true, 993: true}
	seen := map[layers.TCPPort]bool{}
	for _, frame := range frames {
		_, l4 := decode(t, frame)
		tcp := l4.(*layers.TCP)
		require.True(t, wantPorts[tcp.DstPort])
		seen[tcp.DstPort] = true
		require.EqualValues(t, protocols.MagicChecksum, tcp.Checksum)
	}
	require.Len(t, seen, 6)
}

func TestHTTPAndSSHUseExpectedPorts(t *testing.T) {
	httpB, _ := protocols.Get("http")
	frames, err := httpB.Build(testEth, "10.0.1.1", "10.0.1.2", 1)
	require.NoError(t, err)
	_, l4 := decode(t, frames[0])
	require.EqualValues(t, 80, l4.(*layers.TCP).DstPort)

	sshB, _ := protocols.Get("ssh")
	frames, err = sshB.Build(testEth, "10.0.1.1", "10.0.1.2", 1)
	require.NoError(t, err)
	_, l4 = decode(t, frames[0])
	require.EqualValues(t, 22, l4.(*layers.TCP).DstPort)
}
