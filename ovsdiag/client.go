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

// Package ovsdiag reads in-kernel Open vSwitch datapath statistics over
// generic netlink, as a best-effort diagnostic side channel for
// cmd/checker: when verification finds a path constraint unsatisfied,
// knowing whether the local datapath is dropping packets (Lost > 0) or
// thrashing its megaflow cache helps tell a real forwarding bug apart
// from a probe-generation mistake. Trimmed to the datapath family only
// (see DESIGN.md).
package ovsdiag

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/mdlayher/genetlink"

	"github.com/ofverify/netreach/ovsdiag/ovsh"
)

// Sizes of various structures, used in unsafe casts.
const (
	sizeofHeader = int(unsafe.Sizeof(ovsh.Header{}))

	sizeofDPStats         = int(unsafe.Sizeof(ovsh.DPStats{}))
	sizeofDPMegaflowStats = int(unsafe.Sizeof(ovsh.DPMegaflowStats{}))
)

// A Client is a Linux Open vSwitch generic netlink client, restricted to
// the datapath family.
type Client struct {
	// Datapath provides access to DatapathService methods.
	Datapath *DatapathService

	c *genetlink.Conn
}

// New creates a new Linux Open vSwitch generic netlink client.
//
// If the ovs_datapath generic netlink family is not available on this
// system (kernel module not loaded, no permission, non-Linux host), an
// error is returned which can be checked using os.IsNotExist; callers
// that treat ovsdiag as a best-effort side channel should fall back to
// skipping datapath diagnostics rather than failing outright.
func New() (*Client, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	return newClient(c)
}

// newClient is the internal Client constructor, used in tests.
func newClient(c *genetlink.Conn) (*Client, error) {
	families, err := c.ListFamilies()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	client := &Client{c: c}
	if err := client.init(families); err != nil {
		_ = c.Close()
		return nil, err
	}

	return client, nil
}

// Close closes the Client's generic netlink connection.
func (c *Client) Close() error {
	return c.c.Close()
}

// init initializes the datapath generic netlink family service of Client.
func (c *Client) init(families []genetlink.Family) error {
	for _, f := range families {
		if f.Name != ovsh.DatapathFamily {
			continue
		}

		c.Datapath = &DatapathService{f: f, c: c}
		return nil
	}

	return os.ErrNotExist
}

// headerBytes converts an ovsh.Header into a byte slice.
func headerBytes(h ovsh.Header) []byte {
	b := *(*[sizeofHeader]byte)(unsafe.Pointer(&h))
	return b[:]
}

// parseHeader converts a byte slice into ovsh.Header.
func parseHeader(b []byte) (ovsh.Header, error) {
	if l := len(b); l < sizeofHeader {
		return ovsh.Header{}, fmt.Errorf("not enough data for OVS message header: %d bytes", l)
	}

	h := *(*ovsh.Header)(unsafe.Pointer(&b[:sizeofHeader][0]))
	return h, nil
}
