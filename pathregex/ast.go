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

package pathregex

// nodeTag classifies an AST node. The three combinator tags match the
// vocabulary spec.md uses for the compilation pipeline.
type nodeTag int

const (
	nodeLiteral nodeTag = iota
	nodeWildcard
	nodeConcat
	nodeUnion
	nodeKleene
)

// node is an AST node. Literal/Wildcard are leaves; Concat/Union are
// binary; Kleene is unary.
type node struct {
	tag      nodeTag
	sym      int // valid when tag == nodeLiteral
	children []*node
}

func literalNode(n int) *node  { return &node{tag: nodeLiteral, sym: n} }
func wildcardNode() *node      { return &node{tag: nodeWildcard} }
func kleeneNode(a *node) *node { return &node{tag: nodeKleene, children: []*node{a}} }
func concatNode(a, b *node) *node {
	return &node{tag: nodeConcat, children: []*node{a, b}}
}
func unionNode(a, b *node) *node {
	return &node{tag: nodeUnion, children: []*node{a, b}}
}
