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

const errorBodyLen = 4

// ErrorMsg is OFPT_ERROR: {type, code} followed by as much of the
// offending request as the switch chose to echo back.
type ErrorMsg struct {
	Header Header
	Type   uint16
	Code   uint16
	Data   []byte
}

func (e ErrorMsg) Encode() []byte {
	body := make([]byte, errorBodyLen+len(e.Data))
	binary.BigEndian.PutUint16(body[0:2], e.Type)
	binary.BigEndian.PutUint16(body[2:4], e.Code)
	copy(body[4:], e.Data)

	e.Header.Type = TypeError
	e.Header.Length = uint16(headerLen + len(body))
	return append(e.Header.Encode(), body...)
}

func ParseErrorMsg(h Header, body []byte) (ErrorMsg, error) {
	if len(body) < errorBodyLen {
		return ErrorMsg{}, protoErr("ofp.ParseErrorMsg", fmt.Errorf("short error body: %d bytes", len(body)))
	}
	return ErrorMsg{
		Header: h,
		Type:   binary.BigEndian.Uint16(body[0:2]),
		Code:   binary.BigEndian.Uint16(body[2:4]),
		Data:   body[errorBodyLen:],
	}, nil
}

// Error satisfies the error interface so a received ErrorMsg can be
// returned directly as an ofsession failure cause.
func (e ErrorMsg) Error() string {
	return fmt.Sprintf("OFPT_ERROR type=%d code=%d", e.Type, e.Code)
}
