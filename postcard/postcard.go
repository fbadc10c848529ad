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

// Package postcard decodes the tee'd probe copies the switch instrumentation
// (package probe) sends to the collector host (spec.md §4.9). Grounded on
// original_source/src/collector.py: the destination MAC carries a 0x4242
// magic prefix, the originating switch id, and the output port the real
// copy of the packet took; the IP header's id field carries the group
// condition id that bridges a postcard back to the constraint it verifies.
package postcard

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/ofverify/netreach/protocols"
)

// magicPrefix is the 0x4242 sentinel the tee's synthetic destination MAC
// always carries in its first two octets.
const magicPrefix = 0x4242

// maxValidOutport: outports at or above this value indicate the packet
// was diverted to the controller rather than a dataplane egress, and are
// not real postcards (original_source/src/collector.py).
const maxValidOutport = 0xff00

// A Postcard is one decoded trace fragment: "packet with id X left switch
// S via port P, carrying group-condition id G".
type Postcard struct {
	ID      int       `json:"id"`
	TS      time.Time `json:"ts"`
	Src     string    `json:"src"`
	Dst     string    `json:"dst"`
	GCID    int       `json:"gcid"`
	Proto   string    `json:"proto"`
	Switch  int       `json:"switch"`
	Outport int       `json:"outport"`
}

// Decode parses a captured Ethernet frame into a Postcard. It returns an
// error for any frame that is not a recognisable postcard: wrong MAC
// prefix, outport >= maxValidOutport, unknown L4 protocol, or an L4
// checksum field that isn't the magic sentinel. Every rejection reason
// mirrors a distinct sys.stderr branch in collector.py's collect loop.
func Decode(frame []byte, ts time.Time) (*Postcard, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)

	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, fmt.Errorf("postcard: no ethernet layer")
	}
	eth := ethLayer.(*layers.Ethernet)
	dst := eth.DstMAC
	if len(dst) != 6 {
		return nil, fmt.Errorf("postcard: malformed destination MAC")
	}

	magic := binary.BigEndian.Uint16(dst[0:2])
	switchID := binary.BigEndian.Uint16(dst[2:4])
	outport := binary.BigEndian.Uint16(dst[4:6])

	if magic != magicPrefix {
		return nil, fmt.Errorf("postcard: not a postcard, skipping packet")
	}
	if outport >= maxValidOutport {
		return nil, fmt.Errorf("postcard: outport > MAX_PORT, probably sent to controller, skipping packet")
	}

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil, fmt.Errorf("postcard: no IPv4 layer")
	}
	ip := ipLayer.(*layers.IPv4)

	pc := &Postcard{
		TS:      ts,
		Src:     ip.SrcIP.String(),
		Dst:     ip.DstIP.String(),
		GCID:    int(ip.Id),
		Switch:  int(switchID),
		Outport: int(outport),
	}

	switch {
	case pkt.Layer(layers.LayerTypeICMPv4) != nil:
		icmp := pkt.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		pc.Proto = "icmp"
		pc.ID = int(icmp.Seq)
		if icmp.Checksum != protocols.MagicChecksum {
			return nil, fmt.Errorf("postcard: checksum does not match magic value, skipping packet")
		}
	case pkt.Layer(layers.LayerTypeUDP) != nil:
		udp := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		pc.Proto = "udp"
		pc.ID = int(udp.SrcPort)
		if udp.Checksum != protocols.MagicChecksum {
			return nil, fmt.Errorf("postcard: checksum does not match magic value, skipping packet")
		}
	case pkt.Layer(layers.LayerTypeTCP) != nil:
		tcp := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
		pc.Proto = "tcp"
		pc.ID = int(tcp.SrcPort)
		if tcp.Checksum != protocols.MagicChecksum {
			return nil, fmt.Errorf("postcard: checksum does not match magic value, skipping packet")
		}
	default:
		return nil, fmt.Errorf("postcard: unknown protocol, skipping packet")
	}

	return pc, nil
}
