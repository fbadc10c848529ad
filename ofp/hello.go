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

// Hello is OFPT_HELLO: a bare header exchanged symmetrically to open a
// switch session (spec.md §4.3). The wire format allows trailing
// elements; this codec does not emit or expect any.
type Hello struct {
	Header Header
}

func (h Hello) Encode() []byte {
	h.Header.Type = TypeHello
	h.Header.Length = headerLen
	return h.Header.Encode()
}

// Echo is either OFPT_ECHO_REQUEST or OFPT_ECHO_REPLY: a header plus an
// opaque payload that a reply must echo back unchanged.
type Echo struct {
	Header Header
	Reply  bool
	Data   []byte
}

func (e Echo) Encode() []byte {
	if e.Reply {
		e.Header.Type = TypeEchoReply
	} else {
		e.Header.Type = TypeEchoRequest
	}
	e.Header.Length = uint16(headerLen + len(e.Data))
	return append(e.Header.Encode(), e.Data...)
}

// ParseEcho decodes an ECHO_REQUEST/REPLY body (everything after the
// header is opaque payload to be echoed back).
func ParseEcho(h Header, body []byte) Echo {
	return Echo{Header: h, Reply: h.Type == TypeEchoReply, Data: body}
}
