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

//+build linux

package ovsdiag

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/genetlink/genltest"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"

	"github.com/ofverify/netreach/ovsdiag/ovsh"
)

func TestClientDatapathListShortHeader(t *testing.T) {
	conn := genltest.Dial(ovsFamilies(func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		return []genetlink.Message{{Data: []byte{0xff, 0xff}}}, nil
	}))

	c, err := newClient(conn)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer c.Close()

	if _, err := c.Datapath.List(); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
}

func TestClientDatapathListBadStats(t *testing.T) {
	conn := genltest.Dial(ovsFamilies(func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		return []genetlink.Message{{
			Data: append(
				[]byte{0xff, 0xff, 0xff, 0xff},
				mustMarshalAttributes([]netlink.Attribute{{
					Type: ovsh.DpAttrStats,
					Data: []byte{0xff},
				}})...,
			),
		}}, nil
	}))

	c, err := newClient(conn)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer c.Close()

	if _, err := c.Datapath.List(); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
}

func TestClientDatapathListOK(t *testing.T) {
	system := Datapath{
		Name:     "ovs-system",
		Index:    1,
		Features: DatapathFeaturesUnaligned | DatapathFeaturesVPortPIDs,
		Stats: DatapathStats{
			Hit:    10,
			Missed: 20,
			Lost:   1,
			Flows:  30,
		},
		MegaflowStats: DatapathMegaflowStats{
			MaskHits: 10,
			Masks:    20,
		},
	}

	conn := genltest.Dial(ovsFamilies(func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		if diff := cmp.Diff(ovsh.DpCmdGet, int(greq.Header.Command)); diff != "" {
			t.Fatalf("unexpected generic netlink command (-want +got):\n%s", diff)
		}

		h, err := parseHeader(greq.Data)
		if err != nil {
			t.Fatalf("failed to parse OVS generic netlink header: %v", err)
		}
		if diff := cmp.Diff(0, int(h.Ifindex)); diff != "" {
			t.Fatalf("unexpected datapath ID (-want +got):\n%s", diff)
		}

		return []genetlink.Message{{Data: mustMarshalDatapath(system)}}, nil
	}))

	c, err := newClient(conn)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer c.Close()

	dps, err := c.Datapath.List()
	if err != nil {
		t.Fatalf("failed to list datapaths: %v", err)
	}
	if diff := cmp.Diff([]Datapath{system}, dps); diff != "" {
		t.Fatalf("unexpected datapaths (-want +got):\n%s", diff)
	}

	stats, err := c.DatapathStats(1)
	if err != nil {
		t.Fatalf("DatapathStats: %v", err)
	}
	if diff := cmp.Diff(system, stats); diff != "" {
		t.Fatalf("unexpected datapath stats (-want +got):\n%s", diff)
	}

	if _, err := c.DatapathStats(99); err == nil {
		t.Fatal("expected an error for an unknown ifindex, but none occurred")
	}
}

func mustMarshalDatapath(dp Datapath) []byte {
	h := ovsh.Header{Ifindex: int32(dp.Index)}
	hb := headerBytes(h)

	s := ovsh.DPStats{
		Hit:    dp.Stats.Hit,
		Missed: dp.Stats.Missed,
		Lost:   dp.Stats.Lost,
		Flows:  dp.Stats.Flows,
	}
	sb := *(*[sizeofDPStats]byte)(unsafe.Pointer(&s))

	ms := ovsh.DPMegaflowStats{
		Mask_hit: dp.MegaflowStats.MaskHits,
		Masks:    dp.MegaflowStats.Masks,
	}
	msb := *(*[sizeofDPMegaflowStats]byte)(unsafe.Pointer(&ms))

	ab := mustMarshalAttributes([]netlink.Attribute{
		{Type: ovsh.DpAttrName, Data: nlenc.Bytes(dp.Name)},
		{Type: ovsh.DpAttrUserFeatures, Data: nlenc.Uint32Bytes(uint32(dp.Features))},
		{Type: ovsh.DpAttrStats, Data: sb[:]},
		{Type: ovsh.DpAttrMegaflowStats, Data: msb[:]},
	})

	return append(hb[:], ab...)
}
