// Copyright (C) 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hierarchy

import "fmt"

// RootNodeIndex is the index of the root node in every topology.
const RootNodeIndex = uint64(0)

// childSpan locates a node's children within the flat children list.
type childSpan struct {
	start uint64
	count uint64
}

// Topology is one tree view over the shared node arena: a strict primary
// tree in CSR layout plus cross-reference shared children. Node indices
// are identical across topologies; only the edge tables differ.
type Topology struct {
	childrenList       []uint64
	sharedChildrenList []uint64
	nodeChildren       []childSpan
	nodeSharedChildren []childSpan
	nodeParent         []uint64
	nodeChildIndex     []uint64
}

// NumNodes returns the number of nodes in the view.
func (t *Topology) NumNodes() uint64 {
	if len(t.nodeChildren) != len(t.nodeSharedChildren) ||
		len(t.nodeChildren) != len(t.nodeParent) ||
		len(t.nodeChildren) != len(t.nodeChildIndex) {
		panic("topology arrays diverged")
	}
	return uint64(len(t.nodeChildren))
}

// ParentNodeIndex returns the primary parent of the node, or NoNode.
func (t *Topology) ParentNodeIndex(node uint64) uint64 {
	return t.nodeParent[node]
}

// ChildIndex returns the node's position within its primary parent's
// child list, or NoNode for parentless nodes.
func (t *Topology) ChildIndex(node uint64) uint64 {
	return t.nodeChildIndex[node]
}

// NumChildren returns the number of primary children of the node.
func (t *Topology) NumChildren(node uint64) uint64 {
	return t.nodeChildren[node].count
}

// ChildNodeIndex returns the child'th primary child of the node.
func (t *Topology) ChildNodeIndex(node uint64, child uint64) uint64 {
	span := t.nodeChildren[node]
	if child >= span.count {
		panic(fmt.Sprintf("child %d out of range for node %d (%d children)", child, node, span.count))
	}
	return t.childrenList[span.start+child]
}

// NumSharedChildren returns the number of shared children of the node.
func (t *Topology) NumSharedChildren(node uint64) uint64 {
	return t.nodeSharedChildren[node].count
}

// SharedChildNodeIndex returns the child'th shared child of the node.
func (t *Topology) SharedChildNodeIndex(node uint64, child uint64) uint64 {
	span := t.nodeSharedChildren[node]
	if child >= span.count {
		panic(fmt.Sprintf("shared child %d out of range for node %d (%d children)", child, node, span.count))
	}
	return t.sharedChildrenList[span.start+child]
}

// NextNodeIndex returns the preorder successor of the node within the
// primary tree, or NoNode at the end of the walk.
func (t *Topology) NextNodeIndex(node uint64) uint64 {
	if t.NumChildren(node) > 0 {
		return t.ChildNodeIndex(node, 0)
	}
	for {
		if node == RootNodeIndex {
			return NoNode
		}
		parent := t.ParentNodeIndex(node)
		sibling := t.ChildIndex(node) + 1
		if sibling < t.NumChildren(parent) {
			return t.ChildNodeIndex(parent, sibling)
		}
		node = parent
	}
}

// SetNumNodes sizes the per-node arrays. Parents and child indices
// initialize to NoNode.
func (t *Topology) SetNumNodes(numNodes uint64) {
	t.nodeChildren = make([]childSpan, numNodes)
	t.nodeSharedChildren = make([]childSpan, numNodes)
	t.nodeParent = make([]uint64, numNodes)
	t.nodeChildIndex = make([]uint64, numNodes)
	for i := range t.nodeParent {
		t.nodeParent[i] = NoNode
		t.nodeChildIndex[i] = NoNode
	}
}

// AddChildren appends the list as the node's primary children, setting
// the parent back-link and child index of each child. A node's primary
// children are set exactly once, and a child can have only one parent.
func (t *Topology) AddChildren(node uint64, children []uint64) {
	if t.nodeChildren[node].count != 0 {
		panic(fmt.Sprintf("node %d already has primary children", node))
	}
	start := uint64(len(t.childrenList))
	t.childrenList = append(t.childrenList, children...)
	t.nodeChildren[node] = childSpan{start: start, count: uint64(len(children))}
	for i, child := range children {
		if child >= uint64(len(t.nodeChildren)) {
			panic(fmt.Sprintf("child %d out of node range", child))
		}
		if t.nodeParent[child] != NoNode || t.nodeChildIndex[child] != NoNode {
			panic(fmt.Sprintf("node %d already has a parent in this view", child))
		}
		t.nodeParent[child] = node
		t.nodeChildIndex[child] = uint64(i)
	}
}

// AddSharedChildren appends the list as the node's shared children.
// Shared children never establish parent back-links.
func (t *Topology) AddSharedChildren(node uint64, children []uint64) {
	if t.nodeSharedChildren[node].count != 0 {
		panic(fmt.Sprintf("node %d already has shared children", node))
	}
	start := uint64(len(t.sharedChildrenList))
	t.sharedChildrenList = append(t.sharedChildrenList, children...)
	t.nodeSharedChildren[node] = childSpan{start: start, count: uint64(len(children))}
}
