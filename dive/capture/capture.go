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

// Package capture holds the in-memory model of a captured GPU command
// stream: the submits, their indirect buffers, present events and the
// captured GPU virtual memory they reference.
package capture

// EngineType identifies the hardware engine a submit was queued to.
type EngineType uint32

const (
	EngineUniversal EngineType = iota
	EngineCompute
	EngineDma
	EngineTimer
	EngineOther
	EngineTypeCount
)

var engineTypeStrings = [EngineTypeCount]string{
	"Universal",
	"Compute",
	"DMA",
	"Timer",
	"Other",
}

// String returns the display name of the engine type.
func (e EngineType) String() string {
	if e >= EngineTypeCount {
		return "Unknown"
	}
	return engineTypeStrings[e]
}

// QueueType identifies the software queue a submit originated from.
type QueueType uint32

const (
	QueueUniversal QueueType = iota
	QueueCompute
	QueueDma
	QueueOther
	QueueTypeCount
)

var queueTypeStrings = [QueueTypeCount]string{
	"Universal",
	"Compute",
	"DMA",
	"Other",
}

// String returns the display name of the queue type.
func (q QueueType) String() string {
	if q >= QueueTypeCount {
		return "Unknown"
	}
	return queueTypeStrings[q]
}

// IndirectBufferInfo describes a single IB referenced by a submit.
type IndirectBufferInfo struct {
	VAAddr       uint64 // GPU virtual address of the first dword
	SizeInDwords uint32
	Skip         bool // true if the IB contents were not captured
}

// SubmitInfo describes one submit of the capture.
type SubmitInfo struct {
	engineType  EngineType
	queueType   QueueType
	engineIndex uint8
	isDummy     bool
	ibs         []IndirectBufferInfo
}

// NewSubmitInfo builds a SubmitInfo over the given IB list.
func NewSubmitInfo(engine EngineType, queue QueueType, engineIndex uint8, isDummy bool, ibs []IndirectBufferInfo) SubmitInfo {
	return SubmitInfo{
		engineType:  engine,
		queueType:   queue,
		engineIndex: engineIndex,
		isDummy:     isDummy,
		ibs:         ibs,
	}
}

func (s *SubmitInfo) EngineType() EngineType                  { return s.engineType }
func (s *SubmitInfo) QueueType() QueueType                    { return s.queueType }
func (s *SubmitInfo) EngineIndex() uint8                      { return s.engineIndex }
func (s *SubmitInfo) IsDummy() bool                           { return s.isDummy }
func (s *SubmitInfo) IndirectBuffers() []IndirectBufferInfo   { return s.ibs }
func (s *SubmitInfo) NumIndirectBuffers() uint32              { return uint32(len(s.ibs)) }
func (s *SubmitInfo) IndirectBuffer(i int) IndirectBufferInfo { return s.ibs[i] }

// PresentInfo describes a present that occurred after a given submit.
type PresentInfo struct {
	SubmitIndex  uint32
	EngineType   EngineType
	QueueType    QueueType
	FullScreen   bool
	ValidData    bool // true if the surface description below is meaningful
	SurfaceAddr  uint64
	SurfaceSize  uint64
	VkFormat     uint32
	VkColorSpace uint32
}

// Capture is a fully loaded capture: submits, presents and the memory
// manager holding the captured GPU memory contents.
type Capture struct {
	submits         []SubmitInfo
	presents        []PresentInfo
	memory          MemoryView
	metadataVersion uint32
}

// New creates a Capture over the given submits and memory view.
func New(submits []SubmitInfo, presents []PresentInfo, memory MemoryView, metadataVersion uint32) *Capture {
	return &Capture{
		submits:         submits,
		presents:        presents,
		memory:          memory,
		metadataVersion: metadataVersion,
	}
}

func (c *Capture) NumSubmits() uint32                { return uint32(len(c.submits)) }
func (c *Capture) SubmitInfo(i uint32) *SubmitInfo   { return &c.submits[i] }
func (c *Capture) NumPresents() uint32               { return uint32(len(c.presents)) }
func (c *Capture) PresentInfo(i uint32) *PresentInfo { return &c.presents[i] }
func (c *Capture) Memory() MemoryView                { return c.memory }
func (c *Capture) MetadataVersion() uint32           { return c.metadataVersion }
