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

package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTopo = `
s1 <-> h11-eth1 s2-eth2
s2 <-> h12-eth1 s1-eth2 s3-eth3
s3 <-> h13-eth1 s2-eth3
`

func TestParseBuildsSymmetricEdges(t *testing.T) {
	topo, err := ParseReader(strings.NewReader(sampleTopo))
	require.NoError(t, err)

	require.True(t, topo.IsConnected(1, 2))
	require.True(t, topo.IsConnected(2, 1))
	require.True(t, topo.IsConnected(2, 3))
	require.False(t, topo.IsConnected(1, 3))
}

func TestParseClassifiesSwitchesAndHosts(t *testing.T) {
	topo, err := ParseReader(strings.NewReader(sampleTopo))
	require.NoError(t, err)

	require.True(t, topo.IsSwitch(1))
	require.True(t, topo.IsSwitch(2))
	require.True(t, topo.IsSwitch(3))
	require.False(t, topo.IsSwitch(11))
	require.False(t, topo.IsSwitch(12))
}

func TestGetPortIsColumnIndexMinusOne(t *testing.T) {
	topo, err := ParseReader(strings.NewReader(sampleTopo))
	require.NoError(t, err)

	// "s1 <-> h11-eth1 s2-eth2": h11 is field index 2 -> port 1, s2 is index 3 -> port 2.
	p, ok := topo.GetPort(1, 11)
	require.True(t, ok)
	require.Equal(t, 1, p)

	p, ok = topo.GetPort(1, 2)
	require.True(t, ok)
	require.Equal(t, 2, p)
}

func TestSwitchAndHostNeighbors(t *testing.T) {
	topo, err := ParseReader(strings.NewReader(sampleTopo))
	require.NoError(t, err)

	require.ElementsMatch(t, []Node{1, 3}, topo.SwitchNeighbors(2))
	require.ElementsMatch(t, []Node{12}, topo.HostNeighbors(2))
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := ParseReader(strings.NewReader("garbage"))
	require.Error(t, err)
}
