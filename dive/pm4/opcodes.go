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

// Type-7 opcodes understood by this build. The numbering follows the
// Adreno command processor encoding.
const (
	CP_NOP                   = uint8(0x10)
	CP_SET_BIN_DATA5         = uint8(0x2F)
	CP_REG_RMW               = uint8(0x21)
	CP_MEM_WRITE             = uint8(0x3D)
	CP_WAIT_FOR_IDLE         = uint8(0x26)
	CP_WAIT_REG_MEM          = uint8(0x3C)
	CP_DRAW_AUTO             = uint8(0x24)
	CP_DRAW_INDIRECT         = uint8(0x28)
	CP_DRAW_INDX_INDIRECT    = uint8(0x29)
	CP_DRAW_INDIRECT_MULTI   = uint8(0x2A)
	CP_DRAW_INDX_OFFSET      = uint8(0x38)
	CP_LOAD_STATE6           = uint8(0x36)
	CP_INDIRECT_BUFFER_PFD   = uint8(0x37)
	CP_INDIRECT_BUFFER       = uint8(0x3F)
	CP_SET_DRAW_STATE        = uint8(0x43)
	CP_EVENT_WRITE           = uint8(0x46)
	CP_INDIRECT_BUFFER_CHAIN = uint8(0x57)
	CP_CONTEXT_REG_BUNCH     = uint8(0x5C)
	CP_SET_MARKER            = uint8(0x65)
	CP_SET_MODE              = uint8(0x63)
	CP_SKIP_IB2_ENABLE       = uint8(0x1D)
)

var opcodeNames = map[uint8]string{
	CP_NOP:                   "CP_NOP",
	CP_SET_BIN_DATA5:         "CP_SET_BIN_DATA5",
	CP_REG_RMW:               "CP_REG_RMW",
	CP_MEM_WRITE:             "CP_MEM_WRITE",
	CP_WAIT_FOR_IDLE:         "CP_WAIT_FOR_IDLE",
	CP_WAIT_REG_MEM:          "CP_WAIT_REG_MEM",
	CP_DRAW_AUTO:             "CP_DRAW_AUTO",
	CP_DRAW_INDIRECT:         "CP_DRAW_INDIRECT",
	CP_DRAW_INDX_INDIRECT:    "CP_DRAW_INDX_INDIRECT",
	CP_DRAW_INDIRECT_MULTI:   "CP_DRAW_INDIRECT_MULTI",
	CP_DRAW_INDX_OFFSET:      "CP_DRAW_INDX_OFFSET",
	CP_LOAD_STATE6:           "CP_LOAD_STATE6",
	CP_INDIRECT_BUFFER_PFD:   "CP_INDIRECT_BUFFER_PFD",
	CP_INDIRECT_BUFFER:       "CP_INDIRECT_BUFFER",
	CP_SET_DRAW_STATE:        "CP_SET_DRAW_STATE",
	CP_EVENT_WRITE:           "CP_EVENT_WRITE",
	CP_INDIRECT_BUFFER_CHAIN: "CP_INDIRECT_BUFFER_CHAIN",
	CP_CONTEXT_REG_BUNCH:     "CP_CONTEXT_REG_BUNCH",
	CP_SET_MARKER:            "CP_SET_MARKER",
	CP_SET_MODE:              "CP_SET_MODE",
	CP_SKIP_IB2_ENABLE:       "CP_SKIP_IB2_ENABLE",
}

// IsDrawDispatchEvent reports whether the opcode closes an event run of
// preceding state packets.
func IsDrawDispatchEvent(opcode uint8) bool {
	switch opcode {
	case CP_DRAW_INDX_OFFSET,
		CP_DRAW_INDIRECT,
		CP_DRAW_INDX_INDIRECT,
		CP_DRAW_INDIRECT_MULTI,
		CP_DRAW_AUTO:
		return true
	}
	return false
}

// IsIbTransfer returns the transfer mode for IB transfer opcodes, and
// false for every other opcode.
func IsIbTransfer(opcode uint8) (IbType, bool) {
	switch opcode {
	case CP_INDIRECT_BUFFER:
		return IbNormal, true
	case CP_INDIRECT_BUFFER_PFD:
		return IbCall, true
	case CP_INDIRECT_BUFFER_CHAIN:
		return IbChain, true
	}
	return IbNormal, false
}
