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

import (
	"sort"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/pm4"
)

// TopologyType keys the five views (plus the internal RGP view) built
// over the node arena.
type TopologyType int

const (
	EngineTopology TopologyType = iota
	SubmitTopology
	AllEventTopology
	RgpTopology
	VulkanCallTopology
	VulkanEventTopology
	TopologyTypeCount
)

// CommandHierarchy is the read-only result of a build: the node arena
// and one frozen Topology per view. Concurrent reads of a completed
// hierarchy are safe.
type CommandHierarchy struct {
	nodes           nodes
	topologies      [TopologyTypeCount]Topology
	metadataVersion uint32
}

// EngineHierarchyTopology is the Root → Engine → Submit → IB tree view.
func (h *CommandHierarchy) EngineHierarchyTopology() *Topology {
	return &h.topologies[EngineTopology]
}

// SubmitHierarchyTopology is the Root → Submit → IB view with IB
// children sorted by ib-index.
func (h *CommandHierarchy) SubmitHierarchyTopology() *Topology {
	return &h.topologies[SubmitTopology]
}

// AllEventHierarchyTopology is the Root → Submit → event view.
func (h *CommandHierarchy) AllEventHierarchyTopology() *Topology {
	return &h.topologies[AllEventTopology]
}

// RgpHierarchyTopology is the internal marker-structured event view.
func (h *CommandHierarchy) RgpHierarchyTopology() *Topology {
	return &h.topologies[RgpTopology]
}

// VulkanCallHierarchyTopology is the AllEvent view with events, postamble
// state and barrier markers stripped.
func (h *CommandHierarchy) VulkanCallHierarchyTopology() *Topology {
	return &h.topologies[VulkanCallTopology]
}

// VulkanEventHierarchyTopology is the VulkanCall view reduced to Vulkan
// event markers, with skipped markers' packets accumulated forward.
func (h *CommandHierarchy) VulkanEventHierarchyTopology() *Topology {
	return &h.topologies[VulkanEventTopology]
}

// NumNodes returns the size of the node arena.
func (h *CommandHierarchy) NumNodes() uint64 { return h.nodes.count() }

// NodeType returns the type of the node.
func (h *CommandHierarchy) NodeType(node uint64) NodeType { return h.nodes.types[node] }

// Desc returns the one-line description of the node.
func (h *CommandHierarchy) Desc(node uint64) string { return h.nodes.descs[node] }

// Metadata returns the opaque metadata blob of the node. Empty for most
// node types.
func (h *CommandHierarchy) Metadata(node uint64) []byte { return h.nodes.metadata[node] }

// MetadataVersion returns the Vulkan metadata version carried over from
// the capture.
func (h *CommandHierarchy) MetadataVersion() uint32 { return h.metadataVersion }

// SubmitNodeEngineType returns the engine of a Submit node.
func (h *CommandHierarchy) SubmitNodeEngineType(node uint64) capture.EngineType {
	return h.nodes.auxOf(node, NodeSubmit).(SubmitAux).EngineType
}

// SubmitNodeIndex returns the submit index of a Submit node.
func (h *CommandHierarchy) SubmitNodeIndex(node uint64) uint32 {
	return h.nodes.auxOf(node, NodeSubmit).(SubmitAux).SubmitIndex
}

// IbNodeIndex returns the ib-index of an Ib node.
func (h *CommandHierarchy) IbNodeIndex(node uint64) uint8 {
	return h.nodes.auxOf(node, NodeIb).(IbAux).IbIndex
}

// IbNodeType returns the transfer mode of an Ib node.
func (h *CommandHierarchy) IbNodeType(node uint64) pm4.IbType {
	return h.nodes.auxOf(node, NodeIb).(IbAux).Type
}

// IbNodeSizeInDwords returns the size of an Ib node's buffer.
func (h *CommandHierarchy) IbNodeSizeInDwords(node uint64) uint32 {
	return h.nodes.auxOf(node, NodeIb).(IbAux).SizeInDwords
}

// IbNodeIsFullyCaptured reports whether the Ib node's memory was fully
// captured.
func (h *CommandHierarchy) IbNodeIsFullyCaptured(node uint64) bool {
	return h.nodes.auxOf(node, NodeIb).(IbAux).FullyCaptured
}

// MarkerNodeKind returns the kind of a Marker node.
func (h *CommandHierarchy) MarkerNodeKind(node uint64) MarkerKind {
	return h.nodes.auxOf(node, NodeMarker).(MarkerAux).Kind
}

// MarkerNodeID returns the id of a Marker node.
func (h *CommandHierarchy) MarkerNodeID(node uint64) uint32 {
	return h.nodes.auxOf(node, NodeMarker).(MarkerAux).ID
}

// EventNodeID returns the event id of a DrawDispatchDma node.
func (h *CommandHierarchy) EventNodeID(node uint64) uint32 {
	return h.nodes.auxOf(node, NodeDrawDispatchDma).(EventAux).EventID
}

// PacketNodeAddr returns the 48-bit GPU virtual address of a Packet node.
func (h *CommandHierarchy) PacketNodeAddr(node uint64) uint64 {
	return h.nodes.auxOf(node, NodePacket).(PacketAux).Addr
}

// PacketNodeOpcode returns the opcode of a Packet node, or pm4.NoOpcode
// for type-4 packets.
func (h *CommandHierarchy) PacketNodeOpcode(node uint64) uint8 {
	return h.nodes.auxOf(node, NodePacket).(PacketAux).Opcode
}

// PacketNodeIsCe reports whether the Packet node came from the constant
// engine stream.
func (h *CommandHierarchy) PacketNodeIsCe(node uint64) bool {
	return h.nodes.auxOf(node, NodePacket).(PacketAux).IsCe
}

// RegFieldNodeIsCe reports whether the Reg or Field node came from the
// constant engine stream.
func (h *CommandHierarchy) RegFieldNodeIsCe(node uint64) bool {
	return h.nodes.auxOf(node, NodeReg, NodeField).(RegFieldAux).IsCe
}

// SyncNodeSyncType returns the sync type of a Sync node.
func (h *CommandHierarchy) SyncNodeSyncType(node uint64) pm4.SyncType {
	return h.nodes.auxOf(node, NodeSync).(SyncAux).Type
}

// SyncNodeSyncInfo returns the sync payload of a Sync node.
func (h *CommandHierarchy) SyncNodeSyncInfo(node uint64) pm4.SyncInfo {
	return h.nodes.auxOf(node, NodeSync).(SyncAux).Info
}

// EventIndex returns the 1-based rank of the node among the event nodes,
// or 0 if the node is not an event.
func (h *CommandHierarchy) EventIndex(node uint64) uint64 {
	indices := h.nodes.eventNodeIndices
	at := sort.Search(len(indices), func(i int) bool { return indices[i] >= node })
	if at == len(indices) || indices[at] != node {
		return 0
	}
	return uint64(at) + 1
}

// EventNodeIndices returns the sorted indices of every event node.
func (h *CommandHierarchy) EventNodeIndices() []uint64 {
	return h.nodes.eventNodeIndices
}
