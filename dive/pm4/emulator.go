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

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/elviscapiaq/dive/dive/capture"
)

// Handler receives the emulation callbacks for one submit. Any false
// return aborts the walk with a decode failure.
//
// OnIbEnd is issued once per non-chain IB: a daisy-chain of chain
// transfers reports every OnIbStart but only a single OnIbEnd, carrying
// the terminal chain's info.
type Handler interface {
	OnSubmitStart(submitIndex uint32, submit *capture.SubmitInfo)
	OnIbStart(submitIndex uint32, ibIndex uint32, ib capture.IndirectBufferInfo, typ IbType) bool
	OnPacket(mem capture.MemoryView, submitIndex uint32, ibIndex uint32, va uint64, typ Type, header uint32) bool
	OnIbEnd(submitIndex uint32, ibIndex uint32, ib capture.IndirectBufferInfo) bool
	OnSubmitEnd(submitIndex uint32, submit *capture.SubmitInfo)
}

// Emulator walks the PM4 streams of a submit and drives a Handler.
type Emulator struct{}

// errAborted marks a callback-requested abort.
var errAborted = errors.New("decode aborted by handler")

// ExecuteSubmit walks every indirect buffer of the submit in order,
// recursing into nested and called IBs and following chain transfers.
func (e *Emulator) ExecuteSubmit(h Handler, mem capture.MemoryView, submitIndex uint32, ibs []capture.IndirectBufferInfo) error {
	for i, ib := range ibs {
		ibIndex := uint32(i)
		if !h.OnIbStart(submitIndex, ibIndex, ib, IbNormal) {
			return errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
		}
		last := ib
		if !ib.Skip {
			var err error
			if last, err = e.walk(h, mem, submitIndex, ibIndex, ib); err != nil {
				return err
			}
		}
		if !h.OnIbEnd(submitIndex, ibIndex, last) {
			return errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
		}
	}
	return nil
}

// walk decodes a single IB stream. Chain transfers replace the stream
// in place; nested and called IBs recurse. It returns the info of the
// last stream walked, which is the terminal chain of a chain run.
func (e *Emulator) walk(h Handler, mem capture.MemoryView, submitIndex, ibIndex uint32, ib capture.IndirectBufferInfo) (capture.IndirectBufferInfo, error) {
	cur := ib
	for {
		chain, err := e.walkOne(h, mem, submitIndex, ibIndex, cur)
		if err != nil {
			return cur, err
		}
		if chain == nil {
			return cur, nil
		}
		if !h.OnIbStart(submitIndex, ibIndex, *chain, IbChain) {
			return cur, errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
		}
		if chain.Skip {
			return *chain, nil
		}
		cur = *chain
	}
}

// walkOne decodes the dwords of one stream. It returns the chain target
// if the stream ended in a chain transfer.
func (e *Emulator) walkOne(h Handler, mem capture.MemoryView, submitIndex, ibIndex uint32, ib capture.IndirectBufferInfo) (*capture.IndirectBufferInfo, error) {
	size := uint64(ib.SizeInDwords) * 4
	buf := make([]byte, size)
	if !mem.Copy(buf, submitIndex, ib.VAAddr, size) {
		return nil, errors.Errorf("submit %d ib %d: failed to read %d dwords at 0x%x", submitIndex, ibIndex, ib.SizeInDwords, ib.VAAddr)
	}
	numDwords := uint32(ib.SizeInDwords)
	dword := func(i uint32) uint32 { return binary.LittleEndian.Uint32(buf[i*4:]) }

	for d := uint32(0); d < numDwords; {
		header := dword(d)
		va := ib.VAAddr + uint64(d)*4
		switch Classify(header) {
		case Type7:
			t7 := DecodeType7(header)
			if d+1+uint32(t7.Count) > numDwords {
				return nil, errors.Errorf("submit %d ib %d: packet 0x%08x at 0x%x overruns the ib", submitIndex, ibIndex, header, va)
			}
			if !h.OnPacket(mem, submitIndex, ibIndex, va, Type7, header) {
				return nil, errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
			}
			if typ, ok := IsIbTransfer(t7.Opcode); ok {
				if t7.Count < 3 {
					return nil, errors.Errorf("submit %d ib %d: malformed ib transfer at 0x%x", submitIndex, ibIndex, va)
				}
				target := capture.IndirectBufferInfo{
					VAAddr:       uint64(dword(d+1)) | uint64(dword(d+2))<<32,
					SizeInDwords: dword(d+3) & 0xFFFFF,
				}
				target.Skip = !mem.IsValid(submitIndex, target.VAAddr, uint64(target.SizeInDwords)*4)
				if typ == IbChain {
					// Tail transfer. The remainder of this stream is never
					// executed.
					return &target, nil
				}
				if !h.OnIbStart(submitIndex, ibIndex, target, typ) {
					return nil, errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
				}
				last := target
				if !target.Skip {
					var err error
					if last, err = e.walk(h, mem, submitIndex, ibIndex, target); err != nil {
						return nil, err
					}
				}
				if !h.OnIbEnd(submitIndex, ibIndex, last) {
					return nil, errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
				}
			}
			d += 1 + uint32(t7.Count)
		case Type4:
			t4 := DecodeType4(header)
			if d+1+uint32(t4.Count) > numDwords {
				return nil, errors.Errorf("submit %d ib %d: packet 0x%08x at 0x%x overruns the ib", submitIndex, ibIndex, header, va)
			}
			if !h.OnPacket(mem, submitIndex, ibIndex, va, Type4, header) {
				return nil, errors.Wrapf(errAborted, "submit %d ib %d", submitIndex, ibIndex)
			}
			d += 1 + uint32(t4.Count)
		default:
			// Legacy header classes carry nothing the hierarchy wants.
			d++
		}
	}
	return nil, nil
}
