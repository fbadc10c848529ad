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

package ofsession

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/ofverr"
)

// A Conn is an OpenFlow binary-frame connection: a mutex-guarded
// read/write pair over an io.ReadWriteCloser, adapted from the JSON-RPC
// Conn the switch session's teacher uses for OVSDB, with the JSON
// encoder/decoder replaced by an 8-byte-header-prefixed binary frame
// reader/writer.
type Conn struct {
	c io.ReadWriteCloser

	writeMu sync.Mutex
	readMu  sync.Mutex

	xid uint32
}

// NewConn wraps rwc. If ll is non-nil, every frame read or written is
// logged at debug level.
func NewConn(rwc io.ReadWriteCloser, ll *zerolog.Logger) *Conn {
	if ll != nil {
		rwc = &debugReadWriteCloser{rwc: rwc, ll: ll}
	}
	return &Conn{c: rwc}
}

// NextXid returns a fresh transaction id for an outgoing request.
func (c *Conn) NextXid() uint32 {
	return atomic.AddUint32(&c.xid, 1)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.c.Close()
}

// Send writes a fully-encoded OpenFlow message (header included).
func (c *Conn) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.c.Write(frame); err != nil {
		return ofverr.New(ofverr.Transport, "ofsession.Conn.Send", err)
	}
	return nil
}

// Receive reads one full OpenFlow message: the 8-byte header, then
// Length-8 bytes of body.
func (c *Conn) Receive() (ofp.Header, []byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	hb := make([]byte, 8)
	if _, err := io.ReadFull(c.c, hb); err != nil {
		return ofp.Header{}, nil, ofverr.New(ofverr.Transport, "ofsession.Conn.Receive", err)
	}

	h, err := ofp.ParseHeader(hb)
	if err != nil {
		return ofp.Header{}, nil, err
	}
	if h.Length < 8 {
		return ofp.Header{}, nil, ofverr.New(ofverr.ProtocolViolation, "ofsession.Conn.Receive",
			fmt.Errorf("header length %d shorter than header itself", h.Length))
	}

	body := make([]byte, h.Length-8)
	if len(body) > 0 {
		if _, err := io.ReadFull(c.c, body); err != nil {
			return ofp.Header{}, nil, ofverr.New(ofverr.Transport, "ofsession.Conn.Receive", err)
		}
	}

	return h, body, nil
}

type debugReadWriteCloser struct {
	rwc io.ReadWriteCloser
	ll  *zerolog.Logger
}

func (d *debugReadWriteCloser) Read(b []byte) (int, error) {
	n, err := d.rwc.Read(b)
	if err != nil {
		return n, err
	}
	d.ll.Debug().Bytes("frame", b[:n]).Msg("ofsession: read")
	return n, nil
}

func (d *debugReadWriteCloser) Write(b []byte) (int, error) {
	n, err := d.rwc.Write(b)
	if err != nil {
		return n, err
	}
	d.ll.Debug().Bytes("frame", b[:n]).Msg("ofsession: write")
	return n, nil
}

func (d *debugReadWriteCloser) Close() error {
	return d.rwc.Close()
}
