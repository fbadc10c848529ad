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

const sampleMapping = `
1 10.0.0.101 x 6601
2 10.0.0.102 x 6602
11 10.0.0.11 00:00:00:00:00:11 0
12 10.0.0.12 00:00:00:00:00:12 0
`

func TestParseMapping(t *testing.T) {
	m, err := ParseMappingReader(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	require.Equal(t, "10.0.0.101", m.IP(1))
	require.Equal(t, "x", m.Mac(1))
	require.Equal(t, 6601, m.Port(1))

	require.Equal(t, "00:00:00:00:00:11", m.Mac(11))
	require.Equal(t, 0, m.Port(11))
}

func TestNodeFromIPAndMac(t *testing.T) {
	m, err := ParseMappingReader(strings.NewReader(sampleMapping))
	require.NoError(t, err)

	n, ok := m.NodeFromIP("10.0.0.12")
	require.True(t, ok)
	require.Equal(t, Node(12), n)

	n, ok = m.NodeFromMac("00:00:00:00:00:11")
	require.True(t, ok)
	require.Equal(t, Node(11), n)

	_, ok = m.NodeFromIP("10.0.0.250")
	require.False(t, ok)
}

func TestParseMappingRejectsMalformedLine(t *testing.T) {
	_, err := ParseMappingReader(strings.NewReader("1 10.0.0.1 x"))
	require.Error(t, err)
}
