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

package ofp

import (
	"encoding/binary"
	"fmt"
)

// NoBuffer is the buffer_id sentinel meaning "the packet is included
// verbatim in Data" rather than referencing a buffered packet the switch
// already holds.
const NoBuffer uint32 = 0xffffffff

const packetOutBodyLen = 8

// PacketOut is OFPT_PACKET_OUT: {buffer_id, in_port, actions_len} followed
// by the action list and, when BufferID is NoBuffer, the raw packet bytes
// to inject (spec.md §4.2, used by the probe generator).
type PacketOut struct {
	Header   Header
	BufferID uint32
	InPort   uint16
	Actions  []Action
	Data     []byte
}

func (p PacketOut) Encode() []byte {
	actionBytes := EncodeActions(p.Actions)
	body := make([]byte, packetOutBodyLen+len(actionBytes)+len(p.Data))

	binary.BigEndian.PutUint32(body[0:4], p.BufferID)
	binary.BigEndian.PutUint16(body[4:6], p.InPort)
	binary.BigEndian.PutUint16(body[6:8], uint16(len(actionBytes)))
	copy(body[8:8+len(actionBytes)], actionBytes)
	copy(body[8+len(actionBytes):], p.Data)

	p.Header.Type = TypePacketOut
	p.Header.Length = uint16(headerLen + len(body))
	return append(p.Header.Encode(), body...)
}

func ParsePacketOut(h Header, body []byte) (PacketOut, error) {
	if len(body) < packetOutBodyLen {
		return PacketOut{}, protoErr("ofp.ParsePacketOut", fmt.Errorf("short packet-out body: %d bytes", len(body)))
	}
	bufferID := binary.BigEndian.Uint32(body[0:4])
	inPort := binary.BigEndian.Uint16(body[4:6])
	actionsLen := binary.BigEndian.Uint16(body[6:8])
	if int(actionsLen) > len(body)-packetOutBodyLen {
		return PacketOut{}, protoErr("ofp.ParsePacketOut", fmt.Errorf("actions_len %d exceeds body", actionsLen))
	}

	actions, err := ParseActions(body[packetOutBodyLen : packetOutBodyLen+int(actionsLen)])
	if err != nil {
		return PacketOut{}, err
	}

	return PacketOut{
		Header:   h,
		BufferID: bufferID,
		InPort:   inPort,
		Actions:  actions,
		Data:     body[packetOutBodyLen+int(actionsLen):],
	}, nil
}
