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
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/pm4"
)

func t4Write(reg uint32, values ...uint32) []uint32 {
	return append([]uint32{pm4.PackType4(reg, uint8(len(values)))}, values...)
}

func t7Packet(opcode uint8, payload ...uint32) []uint32 {
	return append([]uint32{pm4.PackType7(opcode, uint16(len(payload)))}, payload...)
}

func drawPacket() []uint32 {
	return t7Packet(pm4.CP_DRAW_INDX_OFFSET)
}

// nopMarker encodes a Dive metadata marker as a CP_NOP payload.
func nopMarker(cmd VkCmdID, label string) []uint32 {
	dwords := []uint32{NopPayloadSignature, uint32(cmd)}
	if label != "" {
		data := append([]byte(label), 0)
		for len(data)%4 != 0 {
			data = append(data, 0)
		}
		for i := 0; i < len(data); i += 4 {
			dwords = append(dwords, binary.LittleEndian.Uint32(data[i:]))
		}
	}
	return t7Packet(pm4.CP_NOP, dwords...)
}

func stream(parts ...[]uint32) []uint32 {
	var out []uint32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func buildBuffer(t *testing.T, dwords []uint32) *CommandHierarchy {
	t.Helper()
	h, err := CreateTreesFromBuffer(dwords, capture.EngineUniversal, capture.QueueUniversal, pm4.Builtin(), nil)
	require.NoError(t, err)
	return h
}

func findByType(h *CommandHierarchy, typ NodeType) []uint64 {
	var out []uint64
	for node := uint64(0); node < h.NumNodes(); node++ {
		if h.NodeType(node) == typ {
			out = append(out, node)
		}
	}
	return out
}

func primaryChildren(t *Topology, node uint64) []uint64 {
	out := []uint64{}
	for i := uint64(0); i < t.NumChildren(node); i++ {
		out = append(out, t.ChildNodeIndex(node, i))
	}
	return out
}

func sharedChildren(t *Topology, node uint64) []uint64 {
	out := []uint64{}
	for i := uint64(0); i < t.NumSharedChildren(node); i++ {
		out = append(out, t.SharedChildNodeIndex(node, i))
	}
	return out
}

// writeIb records an IB's dwords into the memory manager.
func writeIb(t *testing.T, mem *capture.MemoryManager, va uint64, dwords []uint32) capture.IndirectBufferInfo {
	t.Helper()
	data := make([]byte, len(dwords)*4)
	for i, d := range dwords {
		binary.LittleEndian.PutUint32(data[i*4:], d)
	}
	require.NoError(t, mem.AddBlock(0, va, data))
	return capture.IndirectBufferInfo{VAAddr: va, SizeInDwords: uint32(len(dwords))}
}

func chainTo(ib capture.IndirectBufferInfo) []uint32 {
	return t7Packet(pm4.CP_INDIRECT_BUFFER_CHAIN, uint32(ib.VAAddr), uint32(ib.VAAddr>>32), ib.SizeInDwords)
}

// Scenario: a submit with a single two-dword IB holding one draw. The
// second dword is a legacy header and decodes to nothing.
func TestSingleDraw(t *testing.T) {
	h := buildBuffer(t, []uint32{pm4.PackType7(pm4.CP_DRAW_INDX_OFFSET, 0), 0x0})

	submits := findByType(h, NodeSubmit)
	ibs := findByType(h, NodeIb)
	packets := findByType(h, NodePacket)
	events := findByType(h, NodeDrawDispatchDma)
	require.Len(t, submits, 1)
	require.Len(t, ibs, 1)
	require.Len(t, packets, 1)
	require.Len(t, events, 1)

	assert.Equal(t, uint32(0), h.EventNodeID(events[0]))
	assert.Equal(t, "DrawIndexOffset", h.Desc(events[0]))
	assert.Equal(t, pm4.CP_DRAW_INDX_OFFSET, h.PacketNodeOpcode(packets[0]))
	assert.Equal(t, uint64(0), h.PacketNodeAddr(packets[0]))

	allEvent := h.AllEventHierarchyTopology()
	assert.Equal(t, []uint64{events[0]}, primaryChildren(allEvent, submits[0]))
	assert.Equal(t, []uint64{packets[0]}, sharedChildren(allEvent, events[0]))
	assert.Empty(t, findByType(h, NodePostambleState))

	assert.Equal(t, uint64(1), h.EventIndex(events[0]))
	assert.Equal(t, uint64(0), h.EventIndex(packets[0]))
}

// Scenario: two draws separated by state packets. Each event owns the
// packets emitted since the previous event, including its own.
func TestTwoDrawsWithState(t *testing.T) {
	h := buildBuffer(t, stream(
		t4Write(0x8C00, 0x1),
		t4Write(0x8C01, 0x2),
		drawPacket(),
		t4Write(0x8C00, 0x3),
		drawPacket(),
	))

	packets := findByType(h, NodePacket)
	events := findByType(h, NodeDrawDispatchDma)
	require.Len(t, packets, 5)
	require.Len(t, events, 2)

	allEvent := h.AllEventHierarchyTopology()
	assert.Equal(t, packets[:3], sharedChildren(allEvent, events[0]))
	assert.Equal(t, packets[3:], sharedChildren(allEvent, events[1]))
	assert.Empty(t, findByType(h, NodePostambleState))

	assert.Equal(t, uint32(0), h.EventNodeID(events[0]))
	assert.Equal(t, uint32(1), h.EventNodeID(events[1]))
}

// Scenario: trailing state after the last draw surfaces as a postamble
// node titled "State" when the submit produced events.
func TestTrailingState(t *testing.T) {
	h := buildBuffer(t, stream(
		t4Write(0x8C00, 0x1),
		drawPacket(),
		t4Write(0x8C01, 0x2),
	))

	packets := findByType(h, NodePacket)
	postambles := findByType(h, NodePostambleState)
	require.Len(t, packets, 3)
	require.Len(t, postambles, 1)
	assert.Equal(t, "State", h.Desc(postambles[0]))

	allEvent := h.AllEventHierarchyTopology()
	assert.Equal(t, packets[2:], sharedChildren(allEvent, postambles[0]))

	submit := findByType(h, NodeSubmit)[0]
	events := findByType(h, NodeDrawDispatchDma)
	assert.Equal(t, []uint64{events[0], postambles[0]}, primaryChildren(allEvent, submit))
}

// Scenario: a submit with only state packets gets a "Postamble State"
// node.
func TestPostambleOnly(t *testing.T) {
	h := buildBuffer(t, t4Write(0x8C00, 0x1))

	postambles := findByType(h, NodePostambleState)
	require.Len(t, postambles, 1)
	assert.Equal(t, "Postamble State", h.Desc(postambles[0]))
}

// Scenario: IBs reported to the builder out of ib-index order keep
// emission order in the engine view and sort by ib-index in the submit
// view.
func TestSubmitViewIbOrder(t *testing.T) {
	c := newCreator(pm4.Builtin(), nil)
	c.addRootAndEngines(capture.EngineTypeCount)
	submit := capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, false, nil)
	c.OnSubmitStart(0, &submit)

	ib := capture.IndirectBufferInfo{VAAddr: 0x1000, SizeInDwords: 1}
	for _, index := range []uint32{1, 0, 2} {
		require.True(t, c.OnIbStart(0, index, ib, pm4.IbNormal))
		require.True(t, c.OnIbEnd(0, index, ib))
	}
	c.OnSubmitEnd(0, &submit)
	c.createTopologies()
	h := c.hierarchy

	submitNode := findByType(h, NodeSubmit)[0]
	engineOrder := []uint8{}
	for _, child := range primaryChildren(h.EngineHierarchyTopology(), submitNode) {
		engineOrder = append(engineOrder, h.IbNodeIndex(child))
	}
	submitOrder := []uint8{}
	for _, child := range primaryChildren(h.SubmitHierarchyTopology(), submitNode) {
		submitOrder = append(submitOrder, h.IbNodeIndex(child))
	}
	assert.Equal(t, []uint8{1, 0, 2}, engineOrder)
	assert.Equal(t, []uint8{0, 1, 2}, submitOrder)
}

// Scenario: a dummy submit produces a submit node with no children.
func TestDummySubmit(t *testing.T) {
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, true, nil),
	}
	capt := capture.New(submits, nil, capture.NewMemoryManager(), 0)
	h, err := CreateTrees(capt, pm4.Builtin(), false, nil)
	require.NoError(t, err)

	submitNodes := findByType(h, NodeSubmit)
	require.Len(t, submitNodes, 1)
	assert.Contains(t, h.Desc(submitNodes[0]), "Dummy Submit: 1")

	for _, topo := range []*Topology{
		h.EngineHierarchyTopology(),
		h.SubmitHierarchyTopology(),
		h.AllEventHierarchyTopology(),
	} {
		assert.Equal(t, uint64(0), topo.NumChildren(submitNodes[0]))
	}
	assert.Empty(t, findByType(h, NodeIb))
	assert.Empty(t, findByType(h, NodePacket))
	assert.Empty(t, findByType(h, NodeDrawDispatchDma))
}

// Scenario: submits on engines other than universal/compute/dma are not
// decoded.
func TestForeignEngineSkipped(t *testing.T) {
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineTimer, capture.QueueOther, 0, false,
			[]capture.IndirectBufferInfo{{VAAddr: 0x1000, SizeInDwords: 4}}),
	}
	capt := capture.New(submits, nil, capture.NewMemoryManager(), 0)
	h, err := CreateTrees(capt, pm4.Builtin(), false, nil)
	require.NoError(t, err)
	assert.Len(t, findByType(h, NodeSubmit), 1)
	assert.Empty(t, findByType(h, NodeIb))
}

func buildChainCapture(t *testing.T, flatten bool) *CommandHierarchy {
	t.Helper()
	mem := capture.NewMemoryManager()
	ib2 := writeIb(t, mem, 0x3000, drawPacket())
	ib1 := writeIb(t, mem, 0x2000, stream(t7Packet(pm4.CP_WAIT_FOR_IDLE), chainTo(ib2)))
	ib0 := writeIb(t, mem, 0x1000, stream(t4Write(0x8C00, 1), chainTo(ib1)))
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, false,
			[]capture.IndirectBufferInfo{ib0}),
	}
	capt := capture.New(submits, nil, mem, 0)
	h, err := CreateTrees(capt, pm4.Builtin(), flatten, nil)
	require.NoError(t, err)
	return h
}

// Scenario: a daisy-chain of chain IBs. Without flattening each chain
// nests under the previous IB; with flattening every chain hangs off
// the nearest non-chain ancestor.
func TestChainRun(t *testing.T) {
	h := buildChainCapture(t, false)
	ibs := findByType(h, NodeIb)
	require.Len(t, ibs, 3)
	assert.Equal(t, pm4.IbNormal, h.IbNodeType(ibs[0]))
	assert.Equal(t, pm4.IbChain, h.IbNodeType(ibs[1]))
	assert.Equal(t, pm4.IbChain, h.IbNodeType(ibs[2]))

	engine := h.EngineHierarchyTopology()
	assert.Equal(t, ibs[0], engine.ParentNodeIndex(ibs[1]))
	assert.Equal(t, ibs[1], engine.ParentNodeIndex(ibs[2]))

	// The draw inside the terminal chain still closes an event run.
	events := findByType(h, NodeDrawDispatchDma)
	require.Len(t, events, 1)
}

func TestChainRunFlattened(t *testing.T) {
	h := buildChainCapture(t, true)
	ibs := findByType(h, NodeIb)
	require.Len(t, ibs, 3)

	engine := h.EngineHierarchyTopology()
	submit := h.SubmitHierarchyTopology()
	assert.Equal(t, ibs[0], engine.ParentNodeIndex(ibs[1]))
	assert.Equal(t, ibs[0], engine.ParentNodeIndex(ibs[2]))
	assert.Equal(t, ibs[0], submit.ParentNodeIndex(ibs[2]))
}

// Scenario: an IB that was not captured still produces a node, with no
// packet children.
func TestNotCapturedIb(t *testing.T) {
	mem := capture.NewMemoryManager()
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, false,
			[]capture.IndirectBufferInfo{{VAAddr: 0x9000, SizeInDwords: 8, Skip: true}}),
	}
	capt := capture.New(submits, nil, mem, 0)
	h, err := CreateTrees(capt, pm4.Builtin(), false, nil)
	require.NoError(t, err)

	ibs := findByType(h, NodeIb)
	require.Len(t, ibs, 1)
	assert.Contains(t, h.Desc(ibs[0]), ", NOT CAPTURED")
	assert.False(t, h.IbNodeIsFullyCaptured(ibs[0]))
	assert.Empty(t, findByType(h, NodePacket))
}

// An unreadable IB that is not marked skipped is a decode failure.
func TestDecodeFailure(t *testing.T) {
	mem := capture.NewMemoryManager()
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, false,
			[]capture.IndirectBufferInfo{{VAAddr: 0x9000, SizeInDwords: 8}}),
	}
	capt := capture.New(submits, nil, mem, 0)
	_, err := CreateTrees(capt, pm4.Builtin(), false, nil)
	assert.Error(t, err)
}

// An opcode without a catalog schema means the capture is unknown to
// this build.
func TestCatalogMissPanics(t *testing.T) {
	assert.Panics(t, func() {
		buildBuffer(t, t7Packet(0x7E))
	})
}

func TestPacketFieldDecoding(t *testing.T) {
	h := buildBuffer(t, t7Packet(pm4.CP_SET_MARKER, 4, 0xAB))

	packets := findByType(h, NodePacket)
	require.Len(t, packets, 1)
	engine := h.EngineHierarchyTopology()
	fields := primaryChildren(engine, packets[0])
	require.Len(t, fields, 2)
	assert.Equal(t, "MARKER: RM6_GMEM", h.Desc(fields[0]))
	assert.Equal(t, "(DWORD 2): 0xab", h.Desc(fields[1]))
	for _, f := range fields {
		assert.Equal(t, NodeField, h.NodeType(f))
		assert.False(t, h.RegFieldNodeIsCe(f))
	}
}

func TestType4RegDecoding(t *testing.T) {
	h := buildBuffer(t, t4Write(0x8C00, 0x00050003, 0x12345678))

	packets := findByType(h, NodePacket)
	require.Len(t, packets, 1)
	assert.Equal(t, pm4.NoOpcode, h.PacketNodeOpcode(packets[0]))

	regs := findByType(h, NodeReg)
	require.Len(t, regs, 2)
	assert.Equal(t, "RB_BLIT_SCISSOR_TL: 0x50003", h.Desc(regs[0]))
	assert.Equal(t, "RB_BLIT_SCISSOR_BR: 0x12345678", h.Desc(regs[1]))

	engine := h.EngineHierarchyTopology()
	assert.Equal(t, regs, primaryChildren(engine, packets[0]))

	tlFields := primaryChildren(engine, regs[0])
	require.Len(t, tlFields, 2)
	assert.Equal(t, "X: 0x3", h.Desc(tlFields[0]))
	assert.Equal(t, "Y: 0x5", h.Desc(tlFields[1]))
}

func TestUnknownRegister(t *testing.T) {
	h := buildBuffer(t, t4Write(0xDEAD, 0x7))
	regs := findByType(h, NodeReg)
	require.Len(t, regs, 1)
	assert.Equal(t, "Unknown: 0x7", h.Desc(regs[0]))
}

func TestRegBunchDecoding(t *testing.T) {
	h := buildBuffer(t, t7Packet(pm4.CP_CONTEXT_REG_BUNCH, 0x8C00, 0x3, 0x8C01, 0x4))

	regs := findByType(h, NodeReg)
	require.Len(t, regs, 2)
	assert.Equal(t, "RB_BLIT_SCISSOR_TL: 0x3", h.Desc(regs[0]))
	assert.Equal(t, "RB_BLIT_SCISSOR_BR: 0x4", h.Desc(regs[1]))
}

func TestDebugMarkers(t *testing.T) {
	h := buildBuffer(t, stream(
		nopMarker(VkCmdDebugMarkerBegin, "blit"),
		t4Write(0x8C00, 1),
		drawPacket(),
		nopMarker(VkCmdDebugMarkerEnd, ""),
		drawPacket(),
	))

	markers := findByType(h, NodeMarker)
	require.Len(t, markers, 1)
	assert.Equal(t, MarkerBeginEnd, h.MarkerNodeKind(markers[0]))
	assert.Equal(t, "vkCmdDebugMarkerBeginEXT: blit", h.Desc(markers[0]))
	assert.Equal(t, []byte("blit\x00\x00\x00\x00"), h.Metadata(markers[0]))

	events := findByType(h, NodeDrawDispatchDma)
	require.Len(t, events, 2)

	allEvent := h.AllEventHierarchyTopology()
	submit := findByType(h, NodeSubmit)[0]
	assert.Equal(t, []uint64{markers[0], events[1]}, primaryChildren(allEvent, submit))
	assert.Equal(t, []uint64{events[0]}, primaryChildren(allEvent, markers[0]))

	// The state packet between begin and end is cross-referenced on the
	// open marker.
	packets := findByType(h, NodePacket)
	assert.Contains(t, sharedChildren(allEvent, markers[0]), packets[1])
}

func buildVulkanMarkerStream(t *testing.T) *CommandHierarchy {
	t.Helper()
	return buildBuffer(t, stream(
		nopMarker(VkCmdBindPipeline, ""),
		t4Write(0x8C00, 1),
		nopMarker(VkCmdDraw, ""),
		drawPacket(),
		nopMarker(VkCmdPipelineBarrier, ""),
		t4Write(0x8C01, 2),
	))
}

func TestVulkanCallProjection(t *testing.T) {
	h := buildVulkanMarkerStream(t)

	calls := h.VulkanCallHierarchyTopology()
	for node := uint64(0); node < h.NumNodes(); node++ {
		for _, child := range primaryChildren(calls, node) {
			switch h.NodeType(child) {
			case NodeDrawDispatchDma, NodeSync, NodePostambleState:
				t.Errorf("node %d (%s) must not appear in the call view", child, h.Desc(child))
			case NodeMarker:
				assert.NotEqual(t, MarkerBarrier, h.MarkerNodeKind(child),
					"barrier markers must not appear in the call view")
			}
		}
	}
}

func TestVulkanEventProjection(t *testing.T) {
	h := buildVulkanMarkerStream(t)

	submit := findByType(h, NodeSubmit)[0]
	events := h.VulkanEventHierarchyTopology()

	children := primaryChildren(events, submit)
	require.Len(t, children, 1)
	drawMarker := children[0]
	assert.Equal(t, NodeMarker, h.NodeType(drawMarker))
	assert.Equal(t, VkCmdDraw, VkCmdID(h.MarkerNodeID(drawMarker)))

	// The packets of the skipped bind marker accumulate onto the draw
	// marker.
	packets := findByType(h, NodePacket)
	statePacket := packets[1]
	assert.Contains(t, sharedChildren(events, drawMarker), statePacket)
}

func TestPresents(t *testing.T) {
	presents := []capture.PresentInfo{
		{SubmitIndex: 0},
		{
			SubmitIndex:  0,
			ValidData:    true,
			EngineType:   capture.EngineUniversal,
			QueueType:    capture.QueueUniversal,
			FullScreen:   true,
			SurfaceAddr:  0xF00D,
			SurfaceSize:  1024,
			VkFormat:     44,
			VkColorSpace: 0,
		},
	}
	mem := capture.NewMemoryManager()
	ib := writeIb(t, mem, 0x1000, drawPacket())
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(capture.EngineUniversal, capture.QueueUniversal, 0, false,
			[]capture.IndirectBufferInfo{ib}),
	}
	capt := capture.New(submits, presents, mem, 3)
	h, err := CreateTrees(capt, pm4.Builtin(), false, nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), h.MetadataVersion())

	nodes := findByType(h, NodePresent)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Present: 0", h.Desc(nodes[0]))
	assert.Equal(t,
		"Present: 1, FullScreen: 1, Engine: Universal, Queue: Universal, SurfaceAddr: 0xf00d, SurfaceSize: 1024, VkFormat: VK_FORMAT_B8G8R8A8_UNORM, VkColorSpaceKHR: VK_COLOR_SPACE_SRGB_NONLINEAR_KHR",
		h.Desc(nodes[1]))

	allEvent := h.AllEventHierarchyTopology()
	submit := findByType(h, NodeSubmit)[0]
	assert.Equal(t, append([]uint64{submit}, nodes...), primaryChildren(allEvent, RootNodeIndex))
}

// dumpTopology flattens a topology into comparable strings.
func dumpTopology(h *CommandHierarchy, topo *Topology) []string {
	var out []string
	for node := uint64(0); node < topo.NumNodes(); node++ {
		out = append(out, fmt.Sprintf("%d %q parent=%d children=%v shared=%v",
			node, h.Desc(node), topo.ParentNodeIndex(node),
			primaryChildren(topo, node), sharedChildren(topo, node)))
	}
	return out
}

func allTopologies(h *CommandHierarchy) []*Topology {
	return []*Topology{
		h.EngineHierarchyTopology(),
		h.SubmitHierarchyTopology(),
		h.AllEventHierarchyTopology(),
		h.RgpHierarchyTopology(),
		h.VulkanCallHierarchyTopology(),
		h.VulkanEventHierarchyTopology(),
	}
}

func TestDeterminism(t *testing.T) {
	a := buildVulkanMarkerStream(t)
	b := buildVulkanMarkerStream(t)

	require.Equal(t, a.NumNodes(), b.NumNodes())
	at, bt := allTopologies(a), allTopologies(b)
	for i := range at {
		if diff := cmp.Diff(dumpTopology(a, at[i]), dumpTopology(b, bt[i])); diff != "" {
			t.Errorf("topology %d differs between identical builds:\n%s", i, diff)
		}
	}
}

func TestStructuralInvariants(t *testing.T) {
	h := buildVulkanMarkerStream(t)

	for _, topo := range allTopologies(h) {
		require.Equal(t, h.NumNodes(), topo.NumNodes())
		for node := uint64(0); node < topo.NumNodes(); node++ {
			parent := topo.ParentNodeIndex(node)
			if parent == NoNode {
				continue
			}
			k := topo.ChildIndex(node)
			assert.Equal(t, node, topo.ChildNodeIndex(parent, k),
				"child index back-link of node %d", node)
		}
	}

	// Every decoded stream node is reachable in the engine and submit
	// views, through primary or shared edges.
	for _, topo := range []*Topology{h.EngineHierarchyTopology(), h.SubmitHierarchyTopology()} {
		reachable := map[uint64]bool{}
		var visit func(node uint64)
		visit = func(node uint64) {
			reachable[node] = true
			for _, c := range primaryChildren(topo, node) {
				visit(c)
			}
			for _, c := range sharedChildren(topo, node) {
				if !reachable[c] {
					visit(c)
				}
			}
		}
		visit(RootNodeIndex)
		for node := uint64(0); node < h.NumNodes(); node++ {
			switch h.NodeType(node) {
			case NodeSubmit, NodeIb, NodePacket, NodeReg, NodeField:
				assert.True(t, reachable[node], "node %d (%s) unreachable", node, h.Desc(node))
			}
		}
	}

	// In the event view, every packet belongs to exactly one event or
	// postamble node.
	allEvent := h.AllEventHierarchyTopology()
	owners := map[uint64]int{}
	for node := uint64(0); node < h.NumNodes(); node++ {
		switch h.NodeType(node) {
		case NodeDrawDispatchDma, NodeSync, NodePostambleState:
			for _, p := range sharedChildren(allEvent, node) {
				owners[p]++
			}
		}
	}
	for _, p := range findByType(h, NodePacket) {
		assert.Equal(t, 1, owners[p], "packet %d (%s)", p, h.Desc(p))
	}

	// The event list is sorted and matches the event nodes.
	indices := h.EventNodeIndices()
	var expected []uint64
	for node := uint64(0); node < h.NumNodes(); node++ {
		switch h.NodeType(node) {
		case NodeDrawDispatchDma, NodeSync:
			expected = append(expected, node)
		}
	}
	assert.Equal(t, expected, indices)
	for rank, node := range indices {
		assert.Equal(t, uint64(rank)+1, h.EventIndex(node))
	}
}

func TestAccessorTypeMismatchPanics(t *testing.T) {
	h := buildBuffer(t, drawPacket())
	submit := findByType(h, NodeSubmit)[0]
	assert.Panics(t, func() { h.IbNodeIndex(submit) })
	assert.Panics(t, func() { h.PacketNodeAddr(submit) })
}
