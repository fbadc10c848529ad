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

package protocols

import "github.com/google/gopacket/layers"

// mailPorts are smtp, smtps, imap, imap3, imaps, submission: scapy's
// TCP(dport=[...]) list-valued field fans out into one packet per port
// (original_source/src/protocols/mail.py), so this builder returns one
// frame per port rather than a single multi-port packet.
var mailPorts = []layers.TCPPort{25, 143, 220, 465, 587, 993}

type mailBuilder struct{}

func (mailBuilder) Name() string { return "mail" }

func (mailBuilder) Build(eth layers.Ethernet, srcIP, dstIP string, gciid int) ([][]byte, error) {
	frames := make([][]byte, 0, len(mailPorts))
	for _, port := range mailPorts {
		ip := ipLayer(srcIP, dstIP, gciid)
		tcp := &layers.TCP{SrcPort: randPort(), DstPort: port, SYN: true}
		frame, err := serialize(eth, ip, tcp)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
