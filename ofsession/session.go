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

// Package ofsession implements a synchronous, one-connection-per-switch
// OpenFlow 1.0 dialogue: the hello handshake, an echo-request auto-reply
// loop, flow-table dump, flow modification, and packet-out (spec.md §4.3).
package ofsession

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/ofverify/netreach/ofp"
	"github.com/ofverify/netreach/ofverr"
)

// A Session is a single TCP dialogue with one switch.
type Session struct {
	conn *Conn
	ll   *zerolog.Logger
}

// An Option configures a Session at construction time.
type Option func(*Session)

// Debug enables per-frame debug logging on a Session.
func Debug(ll zerolog.Logger) Option {
	return func(s *Session) { s.ll = &ll }
}

// Dial connects to addr and performs the hello handshake.
func Dial(addr string, options ...Option) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, ofverr.New(ofverr.Transport, "ofsession.Dial", err)
	}
	return New(conn, options...)
}

// New wraps an existing connection and performs the hello handshake.
func New(nc net.Conn, options ...Option) (*Session, error) {
	s := &Session{}
	for _, o := range options {
		o(s)
	}
	s.conn = NewConn(nc, s.ll)

	if err := s.handshake(); err != nil {
		s.conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the session's connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// handshake waits for the switch's opening HELLO and replies with a HELLO
// of the same xid (spec.md §4.3: "the session waits for an incoming
// HELLO, replies with a matching HELLO").
func (s *Session) handshake() error {
	h, _, err := s.conn.Receive()
	if err != nil {
		return err
	}
	if h.Type != ofp.TypeHello {
		return ofverr.New(ofverr.ProtocolViolation, "ofsession.handshake",
			unexpectedType(uint16(ofp.TypeHello), uint16(h.Type)))
	}

	reply := ofp.Hello{Header: ofp.Header{Version: ofp.Version, Xid: h.Xid}}
	return s.conn.Send(reply.Encode())
}

// Run reads frames until one of type until is observed, replying to any
// ECHO_REQUEST along the way with a matching ECHO_REPLY, and returns that
// frame's header and body. A received OFPT_ERROR is surfaced as a
// Transport error (spec.md §4.3).
func (s *Session) Run(until ofp.MsgType) (ofp.Header, []byte, error) {
	for {
		h, body, err := s.conn.Receive()
		if err != nil {
			return ofp.Header{}, nil, err
		}

		switch h.Type {
		case ofp.TypeEchoRequest:
			reply := ofp.Echo{Header: ofp.Header{Version: ofp.Version, Xid: h.Xid}, Reply: true, Data: body}
			if err := s.conn.Send(reply.Encode()); err != nil {
				return ofp.Header{}, nil, err
			}
			continue
		case ofp.TypeError:
			em, perr := ofp.ParseErrorMsg(h, body)
			if perr != nil {
				return ofp.Header{}, nil, perr
			}
			return ofp.Header{}, nil, ofverr.New(ofverr.Transport, "ofsession.Run", em)
		case until:
			return h, body, nil
		default:
			continue
		}
	}
}

// DumpFlows issues an OFPST_FLOW stats request for the entire flow table
// (wildcard match, table_id 0xff, out_port OFPP_NONE) and returns the
// decoded records (spec.md §4.4).
func (s *Session) DumpFlows() ([]ofp.FlowStats, error) {
	req := ofp.StatsRequest{
		Header: ofp.Header{Version: ofp.Version, Xid: s.conn.NextXid()},
		Type:   ofp.StatsFlow,
		Body:   ofp.DumpAllFlows().Encode(),
	}
	if err := s.conn.Send(req.Encode()); err != nil {
		return nil, err
	}

	h, body, err := s.Run(ofp.TypeStatsReply)
	if err != nil {
		return nil, err
	}
	reply, err := ofp.ParseStatsReply(h, body)
	if err != nil {
		return nil, err
	}
	if reply.Type != ofp.StatsFlow {
		return nil, ofverr.New(ofverr.ProtocolViolation, "ofsession.DumpFlows",
			unexpectedType(ofp.StatsFlow, reply.Type))
	}
	return ofp.ParseFlowStatsRecords(reply.Body)
}

// ModifyFlow sends a FLOW_MOD and does not wait for a reply: OFPFC_MODIFY_STRICT
// rewrites are fire-and-forget absent a barrier request.
func (s *Session) ModifyFlow(fm ofp.FlowMod) error {
	if fm.Header.Xid == 0 {
		fm.Header.Xid = s.conn.NextXid()
	}
	fm.Header.Version = ofp.Version
	return s.conn.Send(fm.Encode())
}

// PacketOut injects a packet via OFPT_PACKET_OUT.
func (s *Session) PacketOut(po ofp.PacketOut) error {
	if po.Header.Xid == 0 {
		po.Header.Xid = s.conn.NextXid()
	}
	po.Header.Version = ofp.Version
	return s.conn.Send(po.Encode())
}

func unexpectedType(want, got uint16) error {
	return &typeMismatchError{want: want, got: got}
}

type typeMismatchError struct {
	want, got uint16
}

func (e *typeMismatchError) Error() string {
	return fmt.Sprintf("unexpected OpenFlow message type: want %d, got %d", e.want, e.got)
}
