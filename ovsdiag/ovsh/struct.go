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

// Hand-written mirror of the cgo -godefs output for struct ovs_header,
// struct ovs_dp_stats and struct ovs_dp_megaflow_stats; the field layout
// must track the kernel ABI exactly, but this file was not produced by
// running cgo -godefs against openvswitch.h.

package ovsh

type Header struct {
	Ifindex int32
}

type DPStats struct {
	Hit    uint64
	Missed uint64
	Lost   uint64
	Flows  uint64
}

type DPMegaflowStats struct {
	Mask_hit uint64
	Masks    uint32
	Pad0     uint32
	Pad1     uint64
	Pad2     uint64
}
