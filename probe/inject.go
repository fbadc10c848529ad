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

package probe

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/metrics"
	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/topology"
)

// SendOptions controls where the switch sends an injected packet.
type SendOptions struct {
	// OutController makes the switch send every packet straight to the
	// controller (OFPP_CONTROLLER) instead of consulting its flow table
	// (OFPP_TABLE); used for debugging (generator.py's -o flag).
	OutController bool
}

// Send injects every packet via PACKET_OUT at each switch neighboring its
// source host (spec.md §4.8 step 6). Grounded on generator.py's
// send_packets: buffer_id is always NoBuffer since the raw frame is
// supplied in Data, and in_port is left unset (0) since the packet did
// not arrive on any real switch port.
func Send(topo *topology.Topology, mapping *topology.Mapping, pkts []Packet, opts SendOptions, dial Dialer, ll zerolog.Logger) error {
	outPort := ofp.PortTable
	if opts.OutController {
		outPort = ofp.PortController
	}

	for _, pkt := range pkts {
		for _, sw := range topo.SwitchNeighbors(pkt.Src) {
			entry, ok := mapping.Get(sw)
			if !ok {
				return fmt.Errorf("probe.Send: no mapping entry for switch %d", sw)
			}
			if entry.Port == 0 {
				ll.Warn().Int("switch", int(sw)).Msg("probe: openflow port is zero, skipping packet-out")
				continue
			}

			if err := sendOne(sw, entry, outPort, pkt.Data, dial); err != nil {
				metrics.SwitchSessionsFailed.Inc()
				ll.Warn().Err(err).Int("switch", int(sw)).Msg("probe: packet-out failed, skipping switch")
				continue
			}
		}
	}
	return nil
}

func sendOne(sw topology.Node, entry topology.Entry, outPort uint16, data []byte, dial Dialer) error {
	addr := fmt.Sprintf("%s:%d", entry.IP, entry.Port)
	sess, err := dial(addr)
	if err != nil {
		return fmt.Errorf("probe.Send: dial s%d: %w", sw, err)
	}
	defer sess.Close()

	po := ofp.PacketOut{
		BufferID: ofp.NoBuffer,
		InPort:   0,
		Actions:  []ofp.Action{ofp.OutputAction{Port: outPort, MaxLen: 256}},
		Data:     data,
	}
	return sess.PacketOut(po)
}
