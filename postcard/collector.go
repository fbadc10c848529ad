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

package postcard

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/metrics"
)

// A Collector wraps a live pcap capture handle, collecting postcards for a
// fixed duration the way original_source/src/collector.py's collect()
// wraps scapy's sniff(filter="not arp", timeout=tm).
type Collector struct {
	handle *pcap.Handle
	source *gopacket.PacketSource
	ll     zerolog.Logger
}

// Open starts a live capture on iface. promisc mirrors scapy's default of
// capturing in promiscuous mode.
func Open(iface string, ll zerolog.Logger) (*Collector, error) {
	handle, err := pcap.OpenLive(iface, 262144, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	if err := handle.SetBPFFilter("not arp"); err != nil {
		handle.Close()
		return nil, err
	}
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	return &Collector{handle: handle, source: source, ll: ll}, nil
}

// Close releases the capture handle.
func (c *Collector) Close() { c.handle.Close() }

// Collect captures for timeout, decoding and returning every valid
// postcard observed; frames that Decode rejects are logged and dropped,
// matching the original's per-reason stderr writes. libpcap handles carry
// no read deadline, so the bound is enforced by racing the packet channel
// against a timer instead.
func (c *Collector) Collect(timeout time.Duration) []Postcard {
	deadline := time.After(timeout)
	packets := c.source.Packets()
	var out []Postcard

	for {
		select {
		case <-deadline:
			return out
		case packet, ok := <-packets:
			if !ok {
				return out
			}
			pc, err := Decode(packet.Data(), packet.Metadata().Timestamp)
			if err != nil {
				c.ll.Debug().Err(err).Msg("postcard: rejected frame")
				metrics.PostcardsRejected.Inc()
				continue
			}
			out = append(out, *pc)
		}
	}
}
