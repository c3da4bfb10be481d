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

package pm4

import "fmt"

// NoEnum marks a packet field with no enumerated value space.
const NoEnum = ^uint32(0)

// PacketField describes one bit field of a type-7 packet payload.
type PacketField struct {
	Name       string
	Dword      uint32 // 1-based payload dword the field lives in
	Mask       uint32
	Shift      uint32
	EnumHandle uint32 // NoEnum if the field is not an enum
}

// PacketInfo is the schema of a type-7 packet: its ordered payload fields.
type PacketInfo struct {
	Fields []PacketField
}

// RegField describes one bit field of a register.
type RegField struct {
	Name  string
	Mask  uint32
	Shift uint32
}

// RegInfo is the schema of a single register.
type RegInfo struct {
	Name   string
	Fields []RegField
}

// Catalog is the read-only packet/register schema lookup consumed by the
// hierarchy builder. Implementations must be stable for the duration of a
// build.
type Catalog interface {
	// PacketInfo returns the schema for the opcode, or nil if the opcode is
	// unknown to this catalog.
	PacketInfo(opcode uint8) *PacketInfo

	// RegInfo returns the schema for the register address. It never returns
	// nil; unknown addresses yield the "Unknown" sentinel schema.
	RegInfo(addr uint32) *RegInfo

	// EnumName returns the name of value within the enum space handle.
	EnumName(handle uint32, value uint32) string

	// OpcodeName returns the mnemonic of the opcode.
	OpcodeName(opcode uint8) string
}

// StaticCatalog is a Catalog over fixed tables.
type StaticCatalog struct {
	packets map[uint8]*PacketInfo
	regs    map[uint32]*RegInfo
	enums   map[uint32]map[uint32]string
	names   map[uint8]string
}

var unknownReg = &RegInfo{Name: "Unknown"}

// NewStaticCatalog builds a catalog from the given tables. A nil table
// falls back to the built-in one.
func NewStaticCatalog(packets map[uint8]*PacketInfo, regs map[uint32]*RegInfo, enums map[uint32]map[uint32]string) *StaticCatalog {
	c := &StaticCatalog{
		packets: packets,
		regs:    regs,
		enums:   enums,
		names:   opcodeNames,
	}
	if c.packets == nil {
		c.packets = builtinPackets
	}
	if c.regs == nil {
		c.regs = builtinRegs
	}
	if c.enums == nil {
		c.enums = builtinEnums
	}
	return c
}

// Builtin returns the catalog over the built-in schema tables.
func Builtin() *StaticCatalog {
	return NewStaticCatalog(nil, nil, nil)
}

// PacketInfo implements Catalog.
func (c *StaticCatalog) PacketInfo(opcode uint8) *PacketInfo {
	return c.packets[opcode]
}

// RegInfo implements Catalog.
func (c *StaticCatalog) RegInfo(addr uint32) *RegInfo {
	if info, ok := c.regs[addr]; ok {
		return info
	}
	return unknownReg
}

// EnumName implements Catalog.
func (c *StaticCatalog) EnumName(handle uint32, value uint32) string {
	if space, ok := c.enums[handle]; ok {
		if name, ok := space[value]; ok {
			return name
		}
	}
	return fmt.Sprintf("0x%x", value)
}

// OpcodeName implements Catalog.
func (c *StaticCatalog) OpcodeName(opcode uint8) string {
	if name, ok := c.names[opcode]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_0x%x", opcode)
}

// Enum handles of the built-in tables.
const (
	EnumEventType  = uint32(0)
	EnumMarkerMode = uint32(1)
	EnumVisibility = uint32(2)
)

var builtinEnums = map[uint32]map[uint32]string{
	EnumEventType: {
		4:  "CACHE_FLUSH_TS",
		6:  "CACHE_CLEAN",
		31: "RB_DONE_TS",
	},
	EnumMarkerMode: {
		0: "RM6_BYPASS",
		1: "RM6_BINNING",
		4: "RM6_GMEM",
		5: "RM6_ENDVIS",
		7: "RM6_RESOLVE",
	},
	EnumVisibility: {
		0: "IGNORE_VISIBILITY",
		1: "USE_VISIBILITY",
	},
}

var builtinPackets = map[uint8]*PacketInfo{
	CP_NOP:             {},
	CP_WAIT_FOR_IDLE:   {},
	CP_SKIP_IB2_ENABLE: {},
	CP_SET_MODE: {
		Fields: []PacketField{
			{Name: "MODE", Dword: 1, Mask: 0x000000FF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_SET_MARKER: {
		Fields: []PacketField{
			{Name: "MARKER", Dword: 1, Mask: 0x0000000F, Shift: 0, EnumHandle: EnumMarkerMode},
		},
	},
	CP_DRAW_INDX_OFFSET: {
		Fields: []PacketField{
			{Name: "PRIM_TYPE", Dword: 1, Mask: 0x0000003F, Shift: 0, EnumHandle: NoEnum},
			{Name: "SOURCE_SELECT", Dword: 1, Mask: 0x000000C0, Shift: 6, EnumHandle: NoEnum},
			{Name: "VIS_CULL", Dword: 1, Mask: 0x00000300, Shift: 8, EnumHandle: EnumVisibility},
			{Name: "NUM_INSTANCES", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "NUM_INDICES", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_DRAW_INDIRECT: {
		Fields: []PacketField{
			{Name: "PRIM_TYPE", Dword: 1, Mask: 0x0000003F, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_DRAW_INDX_INDIRECT: {
		Fields: []PacketField{
			{Name: "PRIM_TYPE", Dword: 1, Mask: 0x0000003F, Shift: 0, EnumHandle: NoEnum},
			{Name: "INDX_BASE_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "INDX_BASE_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_DRAW_INDIRECT_MULTI: {
		Fields: []PacketField{
			{Name: "PRIM_TYPE", Dword: 1, Mask: 0x0000003F, Shift: 0, EnumHandle: NoEnum},
			{Name: "DRAW_COUNT", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_DRAW_AUTO: {
		Fields: []PacketField{
			{Name: "PRIM_TYPE", Dword: 1, Mask: 0x0000003F, Shift: 0, EnumHandle: NoEnum},
			{Name: "NUM_INSTANCES", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_EVENT_WRITE: {
		Fields: []PacketField{
			{Name: "EVENT", Dword: 1, Mask: 0x000000FF, Shift: 0, EnumHandle: EnumEventType},
			{Name: "ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "VALUE", Dword: 4, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_WAIT_REG_MEM: {
		Fields: []PacketField{
			{Name: "FUNCTION", Dword: 1, Mask: 0x0000000F, Shift: 0, EnumHandle: NoEnum},
			{Name: "POLL_ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "POLL_ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "REF", Dword: 4, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "MASK", Dword: 5, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "DELAY_LOOP_CYCLES", Dword: 6, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_MEM_WRITE: {
		Fields: []PacketField{
			{Name: "ADDR_LO", Dword: 1, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_INDIRECT_BUFFER: {
		Fields: []PacketField{
			{Name: "ADDR_LO", Dword: 1, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "SIZE", Dword: 3, Mask: 0x000FFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_INDIRECT_BUFFER_PFD: {
		Fields: []PacketField{
			{Name: "ADDR_LO", Dword: 1, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "SIZE", Dword: 3, Mask: 0x000FFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_INDIRECT_BUFFER_CHAIN: {
		Fields: []PacketField{
			{Name: "ADDR_LO", Dword: 1, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "SIZE", Dword: 3, Mask: 0x000FFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_CONTEXT_REG_BUNCH: {},
	CP_REG_RMW: {
		Fields: []PacketField{
			{Name: "REG", Dword: 1, Mask: 0x0003FFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "AND_MASK", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "OR_MASK", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_LOAD_STATE6: {
		Fields: []PacketField{
			{Name: "DST_OFF", Dword: 1, Mask: 0x00003FFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "STATE_TYPE", Dword: 1, Mask: 0x0000C000, Shift: 14, EnumHandle: NoEnum},
			{Name: "STATE_SRC", Dword: 1, Mask: 0x00030000, Shift: 16, EnumHandle: NoEnum},
			{Name: "STATE_BLOCK", Dword: 1, Mask: 0x003C0000, Shift: 18, EnumHandle: NoEnum},
			{Name: "NUM_UNIT", Dword: 1, Mask: 0xFFC00000, Shift: 22, EnumHandle: NoEnum},
			{Name: "EXT_SRC_ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "EXT_SRC_ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_SET_DRAW_STATE: {
		Fields: []PacketField{
			{Name: "COUNT", Dword: 1, Mask: 0x0000FFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
	CP_SET_BIN_DATA5: {
		Fields: []PacketField{
			{Name: "VSC_SIZE", Dword: 1, Mask: 0x003F0000, Shift: 16, EnumHandle: NoEnum},
			{Name: "VSC_N", Dword: 1, Mask: 0x07C00000, Shift: 22, EnumHandle: NoEnum},
			{Name: "BIN_DATA_ADDR_LO", Dword: 2, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
			{Name: "BIN_DATA_ADDR_HI", Dword: 3, Mask: 0xFFFFFFFF, Shift: 0, EnumHandle: NoEnum},
		},
	},
}

// Register schemas for the GRAS/RB aperture the built-in tests exercise.
var builtinRegs = map[uint32]*RegInfo{
	0x8099: {
		Name: "GRAS_CL_VPORT_XOFFSET_0",
		Fields: []RegField{
			{Name: "XOFFSET", Mask: 0xFFFFFFFF, Shift: 0},
		},
	},
	0x809A: {
		Name: "GRAS_CL_VPORT_XSCALE_0",
		Fields: []RegField{
			{Name: "XSCALE", Mask: 0xFFFFFFFF, Shift: 0},
		},
	},
	0x8C00: {
		Name: "RB_BLIT_SCISSOR_TL",
		Fields: []RegField{
			{Name: "X", Mask: 0x00003FFF, Shift: 0},
			{Name: "Y", Mask: 0x3FFF0000, Shift: 16},
		},
	},
	0x8C01: {
		Name: "RB_BLIT_SCISSOR_BR",
		Fields: []RegField{
			{Name: "X", Mask: 0x00003FFF, Shift: 0},
			{Name: "Y", Mask: 0x3FFF0000, Shift: 16},
		},
	},
}
