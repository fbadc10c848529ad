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

const headerLen = 8

// Header is the 8-byte prefix shared by every OpenFlow message:
// {version, type, length, xid}, all big-endian except the single-byte
// fields.
type Header struct {
	Version uint8
	Type    MsgType
	Length  uint16
	Xid     uint32
}

// Encode returns the 8-byte wire form of h.
func (h Header) Encode() []byte {
	b := make([]byte, headerLen)
	b[0] = h.Version
	b[1] = uint8(h.Type)
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	binary.BigEndian.PutUint32(b[4:8], h.Xid)
	return b
}

// ParseHeader decodes an 8-byte header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < headerLen {
		return Header{}, protoErr("ofp.ParseHeader", fmt.Errorf("short header: %d bytes", len(b)))
	}
	h := Header{
		Version: b[0],
		Type:    MsgType(b[1]),
		Length:  binary.BigEndian.Uint16(b[2:4]),
		Xid:     binary.BigEndian.Uint32(b[4:8]),
	}
	if h.Version != Version {
		return Header{}, protoErr("ofp.ParseHeader", fmt.Errorf("unsupported OpenFlow version %d", h.Version))
	}
	return h, nil
}
