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

// Package ofp implements the subset of the OpenFlow 1.0 wire protocol the
// switch-instrumentation pass needs: the header, match structure, flow-mod,
// flow-stats request/reply, packet-out, error, and the action types
// (OFPAT_OUTPUT parsed, everything else preserved as opaque bytes) spec.md
// §4.2 requires. Every message type implements encoding.BinaryMarshaler by
// convention (an Encode method returning the wire bytes) plus a package-level
// Parse* function, mirroring the fixed-size-header-struct idiom the switch
// session's teacher uses for netlink messages, adapted from unsafe-pointer
// casts (only safe against a fixed kernel ABI) to encoding/binary reads.
package ofp

import "github.com/ofverify/netreach/ofverr"

// Version is the only OpenFlow wire version this codec understands.
const Version uint8 = 1

// MsgType is the OFPT_* message type carried in every header.
type MsgType uint8

const (
	TypeHello                MsgType = 0
	TypeError                MsgType = 1
	TypeEchoRequest           MsgType = 2
	TypeEchoReply             MsgType = 3
	TypeVendor                MsgType = 4
	TypeFeaturesRequest       MsgType = 5
	TypeFeaturesReply         MsgType = 6
	TypeGetConfigRequest      MsgType = 7
	TypeGetConfigReply        MsgType = 8
	TypeSetConfig             MsgType = 9
	TypePacketIn              MsgType = 10
	TypeFlowRemoved           MsgType = 11
	TypePortStatus            MsgType = 12
	TypePacketOut             MsgType = 13
	TypeFlowMod               MsgType = 14
	TypePortMod               MsgType = 15
	TypeStatsRequest          MsgType = 16
	TypeStatsReply            MsgType = 17
	TypeBarrierRequest        MsgType = 18
	TypeBarrierReply          MsgType = 19
	TypeQueueGetConfigRequest MsgType = 20
	TypeQueueGetConfigReply   MsgType = 21
)

func protoErr(op string, err error) error {
	return ofverr.New(ofverr.ProtocolViolation, op, err)
}
