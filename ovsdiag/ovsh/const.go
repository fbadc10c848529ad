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

// Hand-picked subset of the ovs_datapath generic netlink constants from
// openvswitch.h; the flow and vport families are not carried here.

package ovsh

const (
	// DatapathFamily as defined in openvswitch.h:42
	DatapathFamily = "ovs_datapath"
	// DatapathMcgroup as defined in openvswitch.h:43
	DatapathMcgroup = "ovs_datapath"
	// DatapathVersion as defined in openvswitch.h:49
	DatapathVersion = 2

	// DpAttrMax as defined in openvswitch.h:92
	DpAttrMax = (__DpAttrMax - 1)
	// DpFUnaligned as defined in openvswitch.h:121
	DpFUnaligned = (1 << 0)
	// DpFVportPids as defined in openvswitch.h:124
	DpFVportPids = (1 << 1)
)

// ovsDatapathCmd enumeration from openvswitch.h:54
const (
	DpCmdUnspec = iota
	DpCmdNew    = 1
	DpCmdDel    = 2
	DpCmdGet    = 3
	DpCmdSet    = 4
)

// ovsDatapathAttr enumeration from openvswitch.h:81
const (
	DpAttrUnspec        = iota
	DpAttrName          = 1
	DpAttrUpcallPid     = 2
	DpAttrStats         = 3
	DpAttrMegaflowStats = 4
	DpAttrUserFeatures  = 5
	DpAttrPad           = 6
	__DpAttrMax         = 7
)
