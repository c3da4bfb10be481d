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
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/elviscapiaq/dive/dive/capture"
	"github.com/elviscapiaq/dive/dive/pm4"
)

// noOpcode32 is the run-buffer opcode sentinel for type-4 packets.
const noOpcode32 = ^uint32(0)

// packetRun buffers the packets emitted since the last event boundary.
type packetRun struct {
	opcodes []uint32
	addrs   []uint64
	nodes   []uint64
}

func (r *packetRun) add(opcode uint32, addr uint64, node uint64) {
	r.opcodes = append(r.opcodes, opcode)
	r.addrs = append(r.addrs, addr)
	r.nodes = append(r.nodes, node)
}

func (r *packetRun) clear() {
	r.opcodes = r.opcodes[:0]
	r.addrs = r.addrs[:0]
	r.nodes = r.nodes[:0]
}

// creator drives one build: it consumes the emulator callbacks, fills
// the node arena and records pending edges, then freezes the topologies.
type creator struct {
	hierarchy *CommandHierarchy
	capture   *capture.Capture
	catalog   pm4.Catalog
	sync      pm4.SyncClassifier
	log       *zap.Logger

	flattenChainNodes bool

	// Pending adjacency: [topology][primary=0|shared=1][node] -> children.
	nodeChildren [TopologyTypeCount][2][][]uint64

	dcbIbStack          []uint64
	packets             packetRun
	markerStack         []uint64
	internalMarkerStack []uint64
	nodeParentInfo      [TopologyTypeCount]map[uint64]uint64
	hasUnendedVkMarker  bool

	numEvents uint32
	curSubmit uint64

	err error // first decode failure, set before a callback returns false
}

func newCreator(catalog pm4.Catalog, logger *zap.Logger) *creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &creator{
		hierarchy: &CommandHierarchy{},
		catalog:   catalog,
		sync:      pm4.NopSyncClassifier{},
		log:       logger,
		curSubmit: NoNode,
	}
	for i := range c.nodeParentInfo {
		c.nodeParentInfo[i] = map[uint64]uint64{}
	}
	return c
}

// CreateTrees builds the command hierarchy for the whole capture.
func CreateTrees(capt *capture.Capture, catalog pm4.Catalog, flattenChainNodes bool, logger *zap.Logger) (*CommandHierarchy, error) {
	c := newCreator(catalog, logger)
	c.capture = capt
	c.flattenChainNodes = flattenChainNodes

	c.addRootAndEngines(capture.EngineTypeCount)

	emu := pm4.Emulator{}
	for submitIndex := uint32(0); submitIndex < capt.NumSubmits(); submitIndex++ {
		submit := capt.SubmitInfo(submitIndex)
		c.OnSubmitStart(submitIndex, submit)

		if !decodableEngine(submit) {
			c.OnSubmitEnd(submitIndex, submit)
			continue
		}

		c.log.Debug("decoding submit",
			zap.Uint32("submit", submitIndex),
			zap.Stringer("engine", submit.EngineType()),
			zap.Uint32("ibs", submit.NumIndirectBuffers()))

		if err := emu.ExecuteSubmit(c, capt.Memory(), submitIndex, submit.IndirectBuffers()); err != nil {
			if c.err != nil {
				err = c.err
			}
			return nil, errors.Wrapf(err, "submit %d", submitIndex)
		}
		c.OnSubmitEnd(submitIndex, submit)
	}

	c.hierarchy.metadataVersion = capt.MetadataVersion()
	c.createTopologies()
	c.log.Debug("hierarchy built",
		zap.Uint64("nodes", c.hierarchy.NumNodes()),
		zap.Uint32("events", c.numEvents))
	return c.hierarchy, nil
}

// CreateTreesFromBuffer builds the hierarchy of a single raw command
// stream, wrapped in a synthetic one-submit capture with a trivial
// memory view. Chain flattening is forced off.
func CreateTreesFromBuffer(dwords []uint32, engine capture.EngineType, queue capture.QueueType, catalog pm4.Catalog, logger *zap.Logger) (*CommandHierarchy, error) {
	data := make([]byte, len(dwords)*4)
	for i, d := range dwords {
		binary.LittleEndian.PutUint32(data[i*4:], d)
	}
	ibs := []capture.IndirectBufferInfo{{
		VAAddr:       0,
		SizeInDwords: uint32(len(dwords)),
	}}
	submits := []capture.SubmitInfo{
		capture.NewSubmitInfo(engine, queue, 0, false, ibs),
	}
	capt := capture.New(submits, nil, capture.NewRawMemory(data), 0)
	if !decodableEngine(capt.SubmitInfo(0)) {
		return nil, errors.Errorf("engine type %s cannot be decoded", engine)
	}
	return CreateTrees(capt, catalog, false, logger)
}

// decodableEngine reports whether the submit's stream should be walked.
func decodableEngine(s *capture.SubmitInfo) bool {
	if s.IsDummy() {
		return false
	}
	switch s.EngineType() {
	case capture.EngineUniversal, capture.EngineCompute, capture.EngineDma:
		return true
	}
	return false
}

// addRootAndEngines seeds the arena with the root and one engine node
// per engine type, attached in the engine view.
func (c *creator) addRootAndEngines(numEngines capture.EngineType) {
	root := c.addNode(NodeRoot, "", nil, nil)
	if root != RootNodeIndex {
		panic("root node must be at index 0")
	}
	for engine := capture.EngineType(0); engine < numEngines; engine++ {
		node := c.addNode(NodeEngine, engine.String(), nil, nil)
		c.addChild(EngineTopology, RootNodeIndex, node)
	}
}

// OnSubmitStart implements pm4.Handler. It creates the submit node and
// attaches it in the four walk-time views.
func (c *creator) OnSubmitStart(submitIndex uint32, submit *capture.SubmitInfo) {
	dummy := 0
	if submit.IsDummy() {
		dummy = 1
	}
	desc := fmt.Sprintf("Submit: %d, Num IBs: %d, Engine: %s, Queue: %s, Engine Index: %d, Dummy Submit: %d",
		submitIndex,
		submit.NumIndirectBuffers(),
		submit.EngineType(),
		submit.QueueType(),
		submit.EngineIndex(),
		dummy)

	aux := SubmitAux{EngineType: submit.EngineType(), SubmitIndex: submitIndex}
	node := c.addNode(NodeSubmit, desc, aux, nil)

	engineNode := c.childNodeIndex(EngineTopology, RootNodeIndex, uint64(submit.EngineType()))
	c.addChild(EngineTopology, engineNode, node)
	c.addChild(SubmitTopology, RootNodeIndex, node)
	c.addChild(AllEventTopology, RootNodeIndex, node)
	c.addChild(RgpTopology, RootNodeIndex, node)
	c.curSubmit = node
}

// OnIbStart implements pm4.Handler.
func (c *creator) OnIbStart(submitIndex uint32, ibIndex uint32, ib capture.IndirectBufferInfo, typ pm4.IbType) bool {
	if ibIndex > 0xFF {
		panic(fmt.Sprintf("ib index %d out of representable range", ibIndex))
	}

	var desc string
	switch typ {
	case pm4.IbNormal:
		desc = fmt.Sprintf("IB: %d, Address: 0x%x, Size (DWORDS): %d", ibIndex, ib.VAAddr, ib.SizeInDwords)
	case pm4.IbCall:
		desc = fmt.Sprintf("Call IB, Address: 0x%x, Size (DWORDS): %d", ib.VAAddr, ib.SizeInDwords)
	case pm4.IbChain:
		desc = fmt.Sprintf("Chain IB, Address: 0x%x, Size (DWORDS): %d", ib.VAAddr, ib.SizeInDwords)
	}
	if ib.Skip {
		desc += ", NOT CAPTURED"
	}

	aux := IbAux{
		IbIndex:       uint8(ibIndex),
		Type:          typ,
		SizeInDwords:  ib.SizeInDwords,
		FullyCaptured: !ib.Skip,
	}
	node := c.addNode(NodeIb, desc, aux, nil)

	parent := c.curSubmit
	if len(c.dcbIbStack) > 0 {
		parent = c.dcbIbStack[len(c.dcbIbStack)-1]
	}
	if c.flattenChainNodes && typ == pm4.IbChain {
		// Flattening hangs chains off the nearest non-chain ancestor.
		for i := len(c.dcbIbStack) - 1; i >= 0; i-- {
			if c.hierarchy.IbNodeType(c.dcbIbStack[i]) != pm4.IbChain {
				parent = c.dcbIbStack[i]
				break
			}
		}
	}

	c.addChild(EngineTopology, parent, node)
	c.addChild(SubmitTopology, parent, node)
	c.dcbIbStack = append(c.dcbIbStack, node)
	return true
}

// OnIbEnd implements pm4.Handler. The callback arrives once per
// non-chain IB: pop the whole chain run above it first.
func (c *creator) OnIbEnd(submitIndex uint32, ibIndex uint32, ib capture.IndirectBufferInfo) bool {
	if len(c.dcbIbStack) == 0 {
		panic("ib stack underflow")
	}
	for len(c.dcbIbStack) > 0 &&
		c.hierarchy.IbNodeType(c.dcbIbStack[len(c.dcbIbStack)-1]) == pm4.IbChain {
		c.dcbIbStack = c.dcbIbStack[:len(c.dcbIbStack)-1]
	}
	c.dcbIbStack = c.dcbIbStack[:len(c.dcbIbStack)-1]
	c.closeUnendedVulkanMarker()
	return true
}

// OnPacket implements pm4.Handler.
func (c *creator) OnPacket(mem capture.MemoryView, submitIndex uint32, ibIndex uint32, va uint64, typ pm4.Type, header uint32) bool {
	if typ != pm4.Type4 && typ != pm4.Type7 {
		return true
	}

	node, err := c.addPacketNode(mem, submitIndex, va, false, typ, header)
	if err != nil {
		c.err = err
		return false
	}

	c.addSharedChild(EngineTopology, c.curSubmit, node)
	c.addSharedChild(SubmitTopology, c.curSubmit, node)
	c.addSharedChild(AllEventTopology, c.curSubmit, node)
	c.addSharedChild(RgpTopology, c.curSubmit, node)
	if len(c.dcbIbStack) == 0 {
		panic("packet outside of any ib")
	}
	top := c.dcbIbStack[len(c.dcbIbStack)-1]
	c.addSharedChild(EngineTopology, top, node)
	c.addSharedChild(SubmitTopology, top, node)

	opcode := noOpcode32
	if typ == pm4.Type7 {
		opcode = uint32(pm4.DecodeType7(header).Opcode)
	}
	c.packets.add(opcode, va, node)

	isMarker := false
	if opcode == uint32(pm4.CP_NOP) {
		var err error
		if isMarker, err = c.parseNopMarker(mem, submitIndex, va, header, node); err != nil {
			c.err = err
			return false
		}
	}

	syncType := c.sync.SyncType(mem, submitIndex, c.packets.opcodes, c.packets.addrs)
	isDrawDispatchDma := typ == pm4.Type7 && pm4.IsDrawDispatchEvent(uint8(opcode))

	if syncType != pm4.SyncNone || isDrawDispatchDma {
		parent := c.curSubmit
		if len(c.markerStack) > 0 {
			parent = c.markerStack[len(c.markerStack)-1]
		}

		var event uint64
		if syncType != pm4.SyncNone {
			aux := SyncAux{Type: syncType}
			event = c.addNode(NodeSync, fmt.Sprintf("Sync: %s", syncType), aux, nil)
		} else {
			aux := EventAux{EventID: c.numEvents}
			c.numEvents++
			event = c.addNode(NodeDrawDispatchDma, eventString(uint8(opcode)), aux, nil)
		}
		c.appendEventNodeIndex(event)

		// The event owns every packet seen since the previous event.
		for _, p := range c.packets.nodes {
			c.addSharedChild(AllEventTopology, event, p)
			c.addSharedChild(RgpTopology, event, p)
		}
		c.packets.clear()

		c.addChild(AllEventTopology, parent, event)
		c.nodeParentInfo[AllEventTopology][event] = parent

		if len(c.internalMarkerStack) > 0 {
			parent = c.internalMarkerStack[len(c.internalMarkerStack)-1]
		}
		c.addChild(RgpTopology, parent, event)
		c.nodeParentInfo[RgpTopology][event] = parent
	} else if !isMarker {
		for _, m := range c.markerStack {
			c.addSharedChild(AllEventTopology, m, node)
		}
		for _, m := range c.internalMarkerStack {
			c.addSharedChild(RgpTopology, m, node)
		}
	}
	return true
}

// OnSubmitEnd implements pm4.Handler. It normalizes the submit: sorts
// the submit-view IBs, drains residual packets into a postamble node,
// drops unmatched markers and attaches presents.
func (c *creator) OnSubmitEnd(submitIndex uint32, submit *capture.SubmitInfo) {
	// The submit view shows IBs in ib-index order, not emulation order.
	children := c.nodeChildren[SubmitTopology][0][c.curSubmit]
	sort.SliceStable(children, func(i, j int) bool {
		return c.hierarchy.IbNodeIndex(children[i]) < c.hierarchy.IbNodeIndex(children[j])
	})

	// Unmatched begin markers at end of submit are dropped.
	c.markerStack = c.markerStack[:0]
	c.internalMarkerStack = c.internalMarkerStack[:0]
	c.hasUnendedVkMarker = false

	if len(c.packets.nodes) > 0 {
		title := "Postamble State"
		if len(c.nodeChildren[AllEventTopology][0][c.curSubmit]) != 0 {
			title = "State"
		}
		postamble := c.addNode(NodePostambleState, title, nil, nil)
		for _, p := range c.packets.nodes {
			c.addSharedChild(AllEventTopology, postamble, p)
			c.addSharedChild(RgpTopology, postamble, p)
		}
		c.packets.clear()
		c.addChild(AllEventTopology, c.curSubmit, postamble)
		c.addChild(RgpTopology, c.curSubmit, postamble)
	}

	if c.capture != nil {
		for i := uint32(0); i < c.capture.NumPresents(); i++ {
			present := c.capture.PresentInfo(i)
			if present.SubmitIndex != submitIndex {
				continue
			}
			node := c.addNode(NodePresent, presentString(i, present), nil, nil)
			c.addChild(AllEventTopology, RootNodeIndex, node)
			c.addChild(RgpTopology, RootNodeIndex, node)
		}
	}

	c.curSubmit = NoNode
	c.dcbIbStack = c.dcbIbStack[:0]
}

// eventString names a draw/dispatch/dma event by its opcode.
func eventString(opcode uint8) string {
	switch opcode {
	case pm4.CP_DRAW_INDX_OFFSET:
		return "DrawIndexOffset"
	case pm4.CP_DRAW_INDIRECT:
		return "DrawIndirect"
	case pm4.CP_DRAW_INDX_INDIRECT:
		return "DrawIndexIndirect"
	case pm4.CP_DRAW_INDIRECT_MULTI:
		return "DrawIndirectMulti"
	case pm4.CP_DRAW_AUTO:
		return "DrawAuto"
	}
	panic(fmt.Sprintf("opcode 0x%x is not a draw/dispatch/dma event", opcode))
}

// presentString formats the present node description.
func presentString(index uint32, p *capture.PresentInfo) string {
	if !p.ValidData {
		return fmt.Sprintf("Present: %d", index)
	}
	fullScreen := 0
	if p.FullScreen {
		fullScreen = 1
	}
	return fmt.Sprintf("Present: %d, FullScreen: %d, Engine: %s, Queue: %s, SurfaceAddr: 0x%x, SurfaceSize: %d, VkFormat: %s, VkColorSpaceKHR: %s",
		index,
		fullScreen,
		p.EngineType,
		p.QueueType,
		p.SurfaceAddr,
		p.SurfaceSize,
		capture.VkFormatString(p.VkFormat),
		capture.VkColorSpaceString(p.VkColorSpace))
}

// readDword reads one little-endian dword of simulated GPU memory.
func readDword(mem capture.MemoryView, submitIndex uint32, va uint64) (uint32, error) {
	var buf [4]byte
	if !mem.Copy(buf[:], submitIndex, va, 4) {
		return 0, errors.Errorf("failed to read dword at 0x%x in submit %d", va, submitIndex)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// addPacketNode creates the packet node and its field/register children.
func (c *creator) addPacketNode(mem capture.MemoryView, submitIndex uint32, va uint64, isCe bool, typ pm4.Type, header uint32) (uint64, error) {
	if va != va&0x0000FFFFFFFFFFFF {
		panic(fmt.Sprintf("packet address 0x%x exceeds 48 bits", va))
	}

	if typ == pm4.Type7 {
		t7 := pm4.DecodeType7(header)
		desc := fmt.Sprintf("%s 0x%08x", c.catalog.OpcodeName(t7.Opcode), header)
		aux := PacketAux{Addr: va, Opcode: t7.Opcode, IsCe: isCe}
		node := c.addNode(NodePacket, desc, aux, nil)

		if t7.Opcode == pm4.CP_CONTEXT_REG_BUNCH {
			if err := c.appendRegBunchNodes(mem, submitIndex, va, t7, node); err != nil {
				return 0, err
			}
			return node, nil
		}

		info := c.catalog.PacketInfo(t7.Opcode)
		if info == nil {
			// An opcode without a schema means the capture is unknown to
			// this build's catalog.
			panic(fmt.Sprintf("no packet schema for opcode 0x%x (%s)", t7.Opcode, c.catalog.OpcodeName(t7.Opcode)))
		}
		if err := c.appendPacketFieldNodes(mem, submitIndex, va, isCe, t7, info, node); err != nil {
			return 0, err
		}
		return node, nil
	}

	t4 := pm4.DecodeType4(header)
	desc := fmt.Sprintf("TYPE4 REGWRITE 0x%08x", header)
	aux := PacketAux{Addr: va, Opcode: pm4.NoOpcode, IsCe: isCe}
	node := c.addNode(NodePacket, desc, aux, nil)
	if err := c.appendRegNodes(mem, submitIndex, va, t4, node); err != nil {
		return 0, err
	}
	return node, nil
}

// appendRegNodes expands a type-4 register write burst into Reg children.
func (c *creator) appendRegNodes(mem capture.MemoryView, submitIndex uint32, va uint64, header pm4.Type4Header, packetNode uint64) error {
	regAddr := header.Offset
	for i := uint32(0); i < uint32(header.Count); i++ {
		value, err := readDword(mem, submitIndex, va+4+uint64(i)*4)
		if err != nil {
			return err
		}
		regNode := c.addRegisterNode(regAddr, value)
		c.addChildAllViews(packetNode, regNode)
		regAddr++
	}
	return nil
}

// appendRegBunchNodes expands the (reg, value) pair payload of a
// CP_CONTEXT_REG_BUNCH packet.
func (c *creator) appendRegBunchNodes(mem capture.MemoryView, submitIndex uint32, va uint64, header pm4.Type7Header, packetNode uint64) error {
	for d := uint32(1); d+1 <= uint32(header.Count); d += 2 {
		reg, err := readDword(mem, submitIndex, va+uint64(d)*4)
		if err != nil {
			return err
		}
		value, err := readDword(mem, submitIndex, va+uint64(d+1)*4)
		if err != nil {
			return err
		}
		regNode := c.addRegisterNode(reg, value)
		c.addChildAllViews(packetNode, regNode)
	}
	return nil
}

// addRegisterNode creates a Reg node with one Field child per defined
// bit field of the register.
func (c *creator) addRegisterNode(reg uint32, value uint32) uint64 {
	info := c.catalog.RegInfo(reg)
	aux := RegFieldAux{}
	node := c.addNode(NodeReg, fmt.Sprintf("%s: 0x%x", info.Name, value), aux, nil)
	for _, field := range info.Fields {
		fieldValue := (value & field.Mask) >> field.Shift
		fieldNode := c.addNode(NodeField, fmt.Sprintf("%s: 0x%x", field.Name, fieldValue), aux, nil)
		c.addChildAllViews(node, fieldNode)
	}
	return node
}

// appendPacketFieldNodes decodes the catalog fields of a type-7 packet
// into Field children, followed by raw dwords for any payload the
// schema does not cover.
func (c *creator) appendPacketFieldNodes(mem capture.MemoryView, submitIndex uint32, va uint64, isCe bool, header pm4.Type7Header, info *pm4.PacketInfo, packetNode uint64) error {
	aux := RegFieldAux{IsCe: isCe}
	endDword := uint32(0)
	for _, field := range info.Fields {
		endDword = field.Dword
		// Some packets end early and do not use all schema fields.
		if field.Dword > uint32(header.Count) {
			break
		}
		value, err := readDword(mem, submitIndex, va+uint64(field.Dword)*4)
		if err != nil {
			return err
		}
		fieldValue := (value & field.Mask) >> field.Shift

		var desc string
		if field.EnumHandle != pm4.NoEnum {
			desc = fmt.Sprintf("%s: %s", field.Name, c.catalog.EnumName(field.EnumHandle, fieldValue))
		} else {
			desc = fmt.Sprintf("%s: 0x%x", field.Name, fieldValue)
		}
		fieldNode := c.addNode(NodeField, desc, aux, nil)
		c.addChildAllViews(packetNode, fieldNode)
	}

	if endDword < uint32(header.Count) {
		for i := endDword + 1; i <= uint32(header.Count); i++ {
			value, err := readDword(mem, submitIndex, va+uint64(i)*4)
			if err != nil {
				return err
			}
			fieldNode := c.addNode(NodeField, fmt.Sprintf("(DWORD %d): 0x%x", i, value), aux, nil)
			c.addChildAllViews(packetNode, fieldNode)
		}
	}
	return nil
}

// parseNopMarker inspects a CP_NOP payload for the Dive metadata
// signature and, if present, turns it into a marker node. Returns true
// if the packet was a marker.
func (c *creator) parseNopMarker(mem capture.MemoryView, submitIndex uint32, va uint64, header uint32, packetNode uint64) (bool, error) {
	count := uint32(pm4.DecodeType7(header).Count)
	if count < 2 {
		return false, nil
	}
	signature, err := readDword(mem, submitIndex, va+4)
	if err != nil {
		return false, err
	}
	if signature != NopPayloadSignature {
		return false, nil
	}
	rawCmd, err := readDword(mem, submitIndex, va+8)
	if err != nil {
		return false, err
	}
	cmd := VkCmdID(rawCmd)

	payload := make([]byte, (count-2)*4)
	if len(payload) > 0 {
		if !mem.Copy(payload, submitIndex, va+12, uint64(len(payload))) {
			return false, errors.Errorf("failed to read marker payload at 0x%x in submit %d", va+12, submitIndex)
		}
	}

	switch cmd {
	case VkCmdDebugMarkerBegin:
		label := cstring(payload)
		aux := MarkerAux{Kind: MarkerBeginEnd, ID: uint32(cmd)}
		node := c.addNode(NodeMarker, fmt.Sprintf("%s: %s", cmd, label), aux, payload)
		c.attachMarker(node)
		c.markerStack = append(c.markerStack, node)
		c.internalMarkerStack = append(c.internalMarkerStack, node)
	case VkCmdDebugMarkerEnd:
		c.closeUnendedVulkanMarker()
		if len(c.markerStack) > 0 {
			c.markerStack = c.markerStack[:len(c.markerStack)-1]
		}
		if len(c.internalMarkerStack) > 0 {
			c.internalMarkerStack = c.internalMarkerStack[:len(c.internalMarkerStack)-1]
		}
	case VkCmdPipelineBarrier:
		aux := MarkerAux{Kind: MarkerBarrier, ID: uint32(cmd)}
		node := c.addNode(NodeMarker, cmd.String(), aux, payload)
		c.attachMarker(node)
	default:
		// A Vulkan call marker stays current until the next call or the
		// end of the ib.
		c.closeUnendedVulkanMarker()
		aux := MarkerAux{Kind: MarkerDiveMetadata, ID: uint32(cmd)}
		node := c.addNode(NodeMarker, cmd.String(), aux, payload)
		c.attachMarker(node)
		c.markerStack = append(c.markerStack, node)
		c.internalMarkerStack = append(c.internalMarkerStack, node)
		c.hasUnendedVkMarker = true
	}
	return true, nil
}

// attachMarker adds a marker node under the current marker scope in the
// event views.
func (c *creator) attachMarker(node uint64) {
	parent := c.curSubmit
	if len(c.markerStack) > 0 {
		parent = c.markerStack[len(c.markerStack)-1]
	}
	c.addChild(AllEventTopology, parent, node)

	parent = c.curSubmit
	if len(c.internalMarkerStack) > 0 {
		parent = c.internalMarkerStack[len(c.internalMarkerStack)-1]
	}
	c.addChild(RgpTopology, parent, node)
}

// closeUnendedVulkanMarker pops the implicit scope of the last Vulkan
// call marker, if one is open.
func (c *creator) closeUnendedVulkanMarker() {
	if !c.hasUnendedVkMarker {
		return
	}
	// A debug marker begun after the call marker may sit above it.
	remove := func(stack []uint64) []uint64 {
		for i := len(stack) - 1; i >= 0; i-- {
			if c.hierarchy.MarkerNodeKind(stack[i]) == MarkerDiveMetadata {
				return append(stack[:i], stack[i+1:]...)
			}
		}
		panic("vulkan marker stack underflow")
	}
	c.markerStack = remove(c.markerStack)
	c.internalMarkerStack = remove(c.internalMarkerStack)
	c.hasUnendedVkMarker = false
}

// cstring returns the bytes up to the first NUL as a string.
func cstring(b []byte) string {
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// addNode appends a node to the arena and grows the pending adjacency
// tables of every view.
func (c *creator) addNode(typ NodeType, desc string, aux Aux, metadata []byte) uint64 {
	node := c.hierarchy.nodes.add(typ, desc, aux, metadata)
	for i := range c.nodeChildren {
		if uint64(len(c.nodeChildren[i][0])) != node || uint64(len(c.nodeChildren[i][1])) != node {
			panic("pending adjacency tables diverged from the node arena")
		}
		c.nodeChildren[i][0] = append(c.nodeChildren[i][0], nil)
		c.nodeChildren[i][1] = append(c.nodeChildren[i][1], nil)
	}
	return node
}

func (c *creator) appendEventNodeIndex(node uint64) {
	c.hierarchy.nodes.eventNodeIndices = append(c.hierarchy.nodes.eventNodeIndices, node)
}

func (c *creator) addChild(topology TopologyType, node uint64, child uint64) {
	c.nodeChildren[topology][0][node] = append(c.nodeChildren[topology][0][node], child)
}

func (c *creator) addSharedChild(topology TopologyType, node uint64, child uint64) {
	c.nodeChildren[topology][1][node] = append(c.nodeChildren[topology][1][node], child)
}

// addChildAllViews attaches a primary child in the four walk-time views.
func (c *creator) addChildAllViews(node uint64, child uint64) {
	c.addChild(EngineTopology, node, child)
	c.addChild(SubmitTopology, node, child)
	c.addChild(AllEventTopology, node, child)
	c.addChild(RgpTopology, node, child)
}

func (c *creator) childNodeIndex(topology TopologyType, node uint64, child uint64) uint64 {
	return c.nodeChildren[topology][0][node][child]
}

// isVulkanEventNode reports whether the node is a metadata marker for a
// Vulkan call that maps to GPU work.
func (c *creator) isVulkanEventNode(node uint64) bool {
	return c.vulkanMarkerCmd(node, true)
}

// isVulkanNonEventNode reports whether the node is a metadata marker for
// a state-only Vulkan call.
func (c *creator) isVulkanNonEventNode(node uint64) bool {
	return c.vulkanMarkerCmd(node, false)
}

func (c *creator) vulkanMarkerCmd(node uint64, wantEvent bool) bool {
	if c.hierarchy.NodeType(node) != NodeMarker {
		return false
	}
	if c.hierarchy.MarkerNodeKind(node) != MarkerDiveMetadata {
		return false
	}
	return isVulkanEventCmd(VkCmdID(c.hierarchy.MarkerNodeID(node))) == wantEvent
}

// createTopologies derives the two projected views from the pending
// tables, then freezes every view into its CSR topology.
func (c *creator) createTopologies() {
	numNodes := c.hierarchy.NumNodes()

	// The VulkanCall view is the AllEvent view without events, postamble
	// state and barrier markers.
	filterOut := func(node uint64) bool {
		switch c.hierarchy.NodeType(node) {
		case NodeDrawDispatchDma, NodeSync, NodePostambleState:
			return true
		case NodeMarker:
			return c.hierarchy.MarkerNodeKind(node) == MarkerBarrier
		}
		return false
	}
	for node := uint64(0); node < numNodes; node++ {
		if filterOut(node) {
			continue
		}
		for _, child := range c.nodeChildren[AllEventTopology][0][node] {
			if !filterOut(child) {
				c.addChild(VulkanCallTopology, node, child)
			}
		}
		shared := c.nodeChildren[AllEventTopology][1][node]
		c.nodeChildren[VulkanCallTopology][1][node] = append([]uint64(nil), shared...)
	}

	// The VulkanEvent view drops the non-event Vulkan markers from the
	// VulkanCall view; their shared packets accumulate onto the next
	// Vulkan event marker.
	for node := uint64(0); node < numNodes; node++ {
		if c.isVulkanNonEventNode(node) {
			continue
		}
		var accShared []uint64
		for _, child := range c.nodeChildren[VulkanCallTopology][0][node] {
			shared := c.nodeChildren[VulkanCallTopology][1][child]
			accShared = append(accShared, shared...)
			if c.isVulkanNonEventNode(child) {
				continue
			}
			// A non-Vulkan sibling (a plain marker, a submit) must not
			// inherit the packets of the markers skipped before it.
			if !c.isVulkanEventNode(child) {
				accShared = accShared[:0]
			}
			c.addChild(VulkanEventTopology, node, child)
			if len(accShared) == 0 {
				c.nodeChildren[VulkanEventTopology][1][child] = append([]uint64(nil), shared...)
			} else {
				c.nodeChildren[VulkanEventTopology][1][child] = append([]uint64(nil), accShared...)
			}
			accShared = accShared[:0]
		}
	}

	for topology := TopologyType(0); topology < TopologyTypeCount; topology++ {
		t := &c.hierarchy.topologies[topology]
		t.SetNumNodes(numNodes)
		for node := uint64(0); node < numNodes; node++ {
			t.AddChildren(node, c.nodeChildren[topology][0][node])
			t.AddSharedChildren(node, c.nodeChildren[topology][1][node])
		}
	}
}
