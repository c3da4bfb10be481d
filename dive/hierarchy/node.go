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

// Package hierarchy builds cross-referenced tree views over a captured
// PM4 command stream: a dense node arena shared by five simultaneous
// topologies, assembled by a single emulator-driven pass.
package hierarchy

import (
	"fmt"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/pm4"
)

// NoNode is the sentinel for "no node".
const NoNode = ^uint64(0)

// NodeType discriminates the nodes of the hierarchy.
type NodeType uint32

const (
	NodeRoot NodeType = iota
	NodeEngine
	NodeSubmit
	NodeIb
	NodeMarker
	NodeDrawDispatchDma
	NodeSync
	NodePacket
	NodeReg
	NodeField
	NodePostambleState
	NodePresent
)

// MarkerKind discriminates marker nodes.
type MarkerKind uint32

const (
	MarkerBeginEnd MarkerKind = iota
	MarkerDiveMetadata
	MarkerBarrier
)

// Aux is the per-type auxiliary payload of a node.
type Aux interface {
	isAux()
}

// SubmitAux is the payload of a Submit node.
type SubmitAux struct {
	EngineType  capture.EngineType
	SubmitIndex uint32
}

// IbAux is the payload of an Ib node.
type IbAux struct {
	IbIndex       uint8
	Type          pm4.IbType
	SizeInDwords  uint32
	FullyCaptured bool
}

// PacketAux is the payload of a Packet node. Addr is a 48-bit GPU
// virtual address; Opcode is pm4.NoOpcode for type-4 packets.
type PacketAux struct {
	Addr   uint64
	Opcode uint8
	IsCe   bool
}

// RegFieldAux is the payload of Reg and Field nodes.
type RegFieldAux struct {
	IsCe bool
}

// EventAux is the payload of a DrawDispatchDma node.
type EventAux struct {
	EventID uint32
}

// MarkerAux is the payload of a Marker node.
type MarkerAux struct {
	Kind MarkerKind
	ID   uint32
}

// SyncAux is the payload of a Sync node.
type SyncAux struct {
	Type pm4.SyncType
	Info pm4.SyncInfo
}

func (SubmitAux) isAux()   {}
func (IbAux) isAux()       {}
func (PacketAux) isAux()   {}
func (RegFieldAux) isAux() {}
func (EventAux) isAux()    {}
func (MarkerAux) isAux()   {}
func (SyncAux) isAux()     {}

// nodes is the append-only arena the topologies index into. The parallel
// arrays always have identical length.
type nodes struct {
	types            []NodeType
	descs            []string
	aux              []Aux
	metadata         [][]byte
	eventNodeIndices []uint64
}

// add appends a node and returns its index. The metadata bytes are
// copied; the arena owns them.
func (n *nodes) add(typ NodeType, desc string, aux Aux, metadata []byte) uint64 {
	if len(n.types) != len(n.descs) || len(n.types) != len(n.aux) || len(n.types) != len(n.metadata) {
		panic("node arena arrays diverged")
	}
	n.types = append(n.types, typ)
	n.descs = append(n.descs, desc)
	n.aux = append(n.aux, aux)
	var m []byte
	if len(metadata) > 0 {
		m = make([]byte, len(metadata))
		copy(m, metadata)
	}
	n.metadata = append(n.metadata, m)
	return uint64(len(n.types) - 1)
}

func (n *nodes) count() uint64 { return uint64(len(n.types)) }

// auxOf asserts the node has the given type and returns its payload.
func (n *nodes) auxOf(index uint64, want ...NodeType) Aux {
	typ := n.types[index]
	for _, w := range want {
		if typ == w {
			return n.aux[index]
		}
	}
	panic(fmt.Sprintf("node %d has type %d, want one of %v", index, typ, want))
}
