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

type httpBuilder struct{}

func (httpBuilder) Name() string { return "http" }

func (httpBuilder) Build(eth layers.Ethernet, srcIP, dstIP string, gciid int) ([][]byte, error) {
	ip := ipLayer(srcIP, dstIP, gciid)
	tcp := &layers.TCP{SrcPort: randPort(), DstPort: 80, SYN: true}
	frame, err := serialize(eth, ip, tcp)
	if err != nil {
		return nil, err
	}
	return [][]byte{frame}, nil
}
