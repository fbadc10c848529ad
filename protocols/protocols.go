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

// Package protocols builds the probe packets the generator injects into
// the dataplane (spec.md §4.8). Each plugin serialises an Ethernet/IPv4/L4
// stack carrying ip.id = gciid and a magic 0x4242 L4 checksum sentinel, the
// pair the postcard collector uses to recognise and bucket a probe.
// Grounded on original_source/src/protocols/*.py.
package protocols

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// MagicChecksum is the sentinel value every probe's L4 checksum field
// carries in place of a real checksum; the collector only accepts frames
// whose checksum equals this (spec.md §4.9).
const MagicChecksum = 0x4242

// A Builder constructs the probe packet(s) for one protocol. Most
// protocols build exactly one packet per (src, dst) pair; mail fans out
// into one packet per destination port (scapy's list-valued TCP(dport=...)
// field semantics, original_source/src/protocols/mail.py).
type Builder interface {
	Name() string
	Build(eth layers.Ethernet, srcIP, dstIP string, gciid int) ([][]byte, error)
}

var registry = map[string]Builder{}

func register(b Builder) {
	registry[b.Name()] = b
}

func init() {
	register(defaultBuilder{})
	register(icmpBuilder{})
	register(httpBuilder{})
	register(sshBuilder{})
	register(mailBuilder{})
}

// Get returns the named protocol plugin.
func Get(name string) (Builder, bool) {
	b, ok := registry[name]
	return b, ok
}

// DefaultName is the protocol used when a group condition carries no
// Prot constraint.
const DefaultName = "default"

func ipLayer(srcIP, dstIP string, gciid int) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       uint16(gciid),
		Protocol: layers.IPProtocolUDP, // overwritten per-builder below
		SrcIP:    mustParseIP(srcIP),
		DstIP:    mustParseIP(dstIP),
	}
}

func mustParseIP(s string) []byte {
	ip := net.ParseIP(s)
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

func serialize(eth layers.Ethernet, ip *layers.IPv4, l4 gopacket.SerializableLayer) ([]byte, error) {
	eth.EthernetType = layers.EthernetTypeIPv4
	ip.Protocol = protocolOf(l4)
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	switch t := l4.(type) {
	case *layers.TCP:
		t.SetNetworkLayerForChecksum(ip)
	case *layers.UDP:
		t.SetNetworkLayerForChecksum(ip)
	case *layers.ICMPv4:
	}

	if err := gopacket.SerializeLayers(buf, opts, &eth, ip, l4); err != nil {
		return nil, fmt.Errorf("protocols: serialize: %w", err)
	}

	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	// Overwrite the checksum FixLengths/ComputeChecksums just computed:
	// the wire contract is the magic sentinel, not a real checksum.
	stampChecksum(out, l4)
	return out, nil
}

func protocolOf(l4 gopacket.SerializableLayer) layers.IPProtocol {
	switch l4.(type) {
	case *layers.TCP:
		return layers.IPProtocolTCP
	case *layers.UDP:
		return layers.IPProtocolUDP
	case *layers.ICMPv4:
		return layers.IPProtocolICMPv4
	default:
		return layers.IPProtocolUDP
	}
}

// stampChecksum overwrites the just-computed checksum field of the
// serialized frame's L4 header with MagicChecksum. Ethernet(14)+IPv4(20,
// no options emitted since ipLayer sets none) is a fixed 34-byte
// prefix; the checksum field offset within each L4 header is fixed by
// protocol.
func stampChecksum(frame []byte, l4 gopacket.SerializableLayer) {
	const l4Start = 14 + 20
	var off int
	switch l4.(type) {
	case *layers.UDP:
		off = l4Start + 6
	case *layers.TCP:
		off = l4Start + 16
	case *layers.ICMPv4:
		off = l4Start + 2
	default:
		return
	}
	if off+2 > len(frame) {
		return
	}
	frame[off] = MagicChecksum >> 8
	frame[off+1] = MagicChecksum & 0xff
}

func randPort() layers.TCPPort { return layers.TCPPort(uint16(rand.Intn(1 << 16))) }
func randUDPPort() layers.UDPPort { return layers.UDPPort(uint16(rand.Intn(1 << 16))) }
func randID() uint16 { return uint16(rand.Intn(1 << 16)) }
