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

package capture

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/elviscapiaq/dive/core/math/interval"
)

// MemoryView provides read-only random access into the simulated GPU
// virtual address space of a given submit.
type MemoryView interface {
	// Copy reads size bytes at va into buf. It returns false if any byte in
	// the range is absent from the capture.
	Copy(buf []byte, submitIndex uint32, va uint64, size uint64) bool

	// MaxContiguousSize returns the number of contiguous captured bytes
	// starting at va.
	MaxContiguousSize(submitIndex uint32, va uint64) uint64

	// IsValid reports whether the whole range [va, va+size) is captured.
	IsValid(submitIndex uint32, va uint64, size uint64) bool
}

// block is a captured span of GPU memory.
type block struct {
	va   uint64
	data []byte
}

// MemoryManager is the MemoryView over the memory blocks recorded in a
// capture. Blocks are shared across submits: a block tagged with submit s is
// visible to submit s and all later submits, mirroring how the capture
// layer records copy-on-write snapshots.
type MemoryManager struct {
	blocks    map[uint32][]block // keyed by first visible submit, sorted by va
	spans     map[uint32]interval.U64RangeList
	maxSubmit uint32
}

// NewMemoryManager returns an empty MemoryManager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		blocks: map[uint32][]block{},
		spans:  map[uint32]interval.U64RangeList{},
	}
}

// AddBlock records the contents of GPU memory at va, visible from
// submitIndex onward. The data is copied.
func (m *MemoryManager) AddBlock(submitIndex uint32, va uint64, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty memory block")
	}
	s := interval.U64Span{Start: va, End: va + uint64(len(data))}
	spans := m.spans[submitIndex]
	overlaps := spans.IndexOf(s.Start) >= 0
	if !overlaps {
		at := sort.Search(len(spans), func(i int) bool { return spans[i].First >= s.Start })
		overlaps = at < len(spans) && spans[at].First < s.End
	}
	if overlaps {
		return errors.Errorf("memory block [0x%x, 0x%x) overlaps an existing block", s.Start, s.End)
	}
	d := make([]byte, len(data))
	copy(d, data)
	list := m.blocks[submitIndex]
	at := sort.Search(len(list), func(i int) bool { return va < list[i].va })
	list = append(list, block{})
	copy(list[at+1:], list[at:])
	list[at] = block{va: va, data: d}
	m.blocks[submitIndex] = list
	m.spans[submitIndex] = interval.Merge(m.spans[submitIndex], s)
	if submitIndex > m.maxSubmit {
		m.maxSubmit = submitIndex
	}
	return nil
}

// visible iterates the blocks visible to the given submit, in va order per
// recording submit.
func (m *MemoryManager) visible(submitIndex uint32) [][]block {
	lists := make([][]block, 0, submitIndex+1)
	for s := uint32(0); s <= submitIndex && s <= m.maxSubmit; s++ {
		if l, ok := m.blocks[s]; ok {
			lists = append(lists, l)
		}
	}
	return lists
}

// find returns the block containing va, preferring the most recent
// recording submit.
func (m *MemoryManager) find(submitIndex uint32, va uint64) *block {
	lists := m.visible(submitIndex)
	for i := len(lists) - 1; i >= 0; i-- {
		list := lists[i]
		at := sort.Search(len(list), func(j int) bool { return va < list[j].va })
		at--
		if at >= 0 {
			b := &list[at]
			if va < b.va+uint64(len(b.data)) {
				return b
			}
		}
	}
	return nil
}

// Copy implements MemoryView.
func (m *MemoryManager) Copy(buf []byte, submitIndex uint32, va uint64, size uint64) bool {
	if uint64(len(buf)) < size {
		return false
	}
	read := uint64(0)
	for read < size {
		b := m.find(submitIndex, va+read)
		if b == nil {
			return false
		}
		offset := va + read - b.va
		n := copy(buf[read:size], b.data[offset:])
		read += uint64(n)
	}
	return true
}

// MaxContiguousSize implements MemoryView.
func (m *MemoryManager) MaxContiguousSize(submitIndex uint32, va uint64) uint64 {
	size := uint64(0)
	for {
		b := m.find(submitIndex, va+size)
		if b == nil {
			return size
		}
		size += b.va + uint64(len(b.data)) - (va + size)
	}
}

// IsValid implements MemoryView.
func (m *MemoryManager) IsValid(submitIndex uint32, va uint64, size uint64) bool {
	return m.MaxContiguousSize(submitIndex, va) >= size
}

// RawMemory is a MemoryView over a single raw buffer, with virtual
// addresses treated as byte offsets into the buffer. It backs the
// standalone single-stream entry point.
type RawMemory struct {
	data []byte
}

// NewRawMemory wraps the given bytes.
func NewRawMemory(data []byte) *RawMemory {
	return &RawMemory{data: data}
}

// Copy implements MemoryView.
func (m *RawMemory) Copy(buf []byte, submitIndex uint32, va uint64, size uint64) bool {
	if va+size > uint64(len(m.data)) {
		return false
	}
	copy(buf[:size], m.data[va:va+size])
	return true
}

// MaxContiguousSize implements MemoryView.
func (m *RawMemory) MaxContiguousSize(submitIndex uint32, va uint64) uint64 {
	if va >= uint64(len(m.data)) {
		return 0
	}
	return uint64(len(m.data)) - va
}

// IsValid implements MemoryView.
func (m *RawMemory) IsValid(submitIndex uint32, va uint64, size uint64) bool {
	return va+size <= uint64(len(m.data))
}
