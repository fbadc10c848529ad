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

// Package ovsh contains the subset of the kernel's openvswitch.h generic
// netlink constants and types ovsdiag needs to query datapath health:
// the ovs_datapath family and its stats attributes. Trimmed from
// go-openvswitch's ovsnl/internal/ovsh (flow and vport families dropped,
// see DESIGN.md).
package ovsh

//go:generate sh -c "go tool cgo -godefs types.go > struct.go"
