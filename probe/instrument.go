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
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/metrics"
	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/ofsession"
	"github.com/ofverify/netreach/topology"
)

// Dialer opens a session to a switch's OpenFlow listener. Tests substitute
// a net.Pipe-backed implementation; production code uses ofsession.Dial.
type Dialer func(addr string) (*ofsession.Session, error)

// Hook installs the tee instrumentation on every switch in topo: dump its
// flow table, append a SET_DL_DST + OUTPUT(collector) pair immediately
// after each existing OFPAT_OUTPUT action, and rewrite the flow with
// OFPFC_MODIFY_STRICT (spec.md §4.4). Grounded on generator.py's
// hook_switches.
func Hook(topo *topology.Topology, mapping *topology.Mapping, collector topology.Node, dial Dialer, ll zerolog.Logger) error {
	for _, node := range topo.Nodes() {
		if !topo.IsSwitch(node) {
			continue
		}

		entry, ok := mapping.Get(node)
		if !ok {
			return fmt.Errorf("probe.Hook: no mapping entry for switch %d", node)
		}
		if entry.Port == 0 {
			ll.Warn().Int("switch", int(node)).Msg("probe: openflow port is zero, skipping switch")
			continue
		}

		collectorPort, ok := topo.GetPort(node, collector)
		if !ok {
			return fmt.Errorf("probe.Hook: switch %d has no link to collector %d", node, collector)
		}

		if err := hookSwitch(node, entry, collectorPort, dial); err != nil {
			metrics.SwitchSessionsFailed.Inc()
			ll.Warn().Err(err).Int("switch", int(node)).Msg("probe: hooking switch failed, skipping switch")
			continue
		}
	}
	return nil
}

func hookSwitch(node topology.Node, entry topology.Entry, collectorPort int, dial Dialer) error {
	addr := fmt.Sprintf("%s:%d", entry.IP, entry.Port)
	sess, err := dial(addr)
	if err != nil {
		return fmt.Errorf("probe.Hook: dial s%d: %w", node, err)
	}
	defer sess.Close()

	flows, err := sess.DumpFlows()
	if err != nil {
		return fmt.Errorf("probe.Hook: dump flows s%d: %w", node, err)
	}

	for _, flow := range flows {
		// REDESIGN FLAG (spec.md §9): insert the tee pair immediately
		// after each matching OUTPUT action rather than appending every
		// tee to the end of the list (what generator.py's hook_switches
		// actually does) — this preserves ordering relative to any
		// non-OUTPUT action (e.g. VLAN rewrites) that follows the
		// original OUTPUT in the action list.
		var actions []ofp.Action
		for _, act := range flow.Actions {
			actions = append(actions, act)
			out, ok := act.(ofp.OutputAction)
			if !ok {
				continue
			}
			actions = append(actions,
				ofp.SetDlDstAction{Addr: ToDlDst(int(node), int(out.Port))},
				ofp.OutputAction{Port: uint16(collectorPort), MaxLen: 256},
			)
		}

		fm := ofp.FlowMod{
			Match:       flow.Match,
			Cookie:      randCookie(),
			Command:     ofp.FlowModModifyStrict,
			IdleTimeout: flow.IdleTimeout,
			HardTimeout: flow.HardTimeout,
			Priority:    flow.Priority,
			BufferID:    ofp.NoBuffer,
			OutPort:     ofp.PortNone,
			Actions:     actions,
		}
		if err := sess.ModifyFlow(fm); err != nil {
			return fmt.Errorf("probe.Hook: modify flow s%d: %w", node, err)
		}
	}
	return nil
}

func randCookie() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}
