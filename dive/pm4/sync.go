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

import "github.com/elviscapiaq/dive/dive/capture"

// SyncType tags a sync event recognized in the packet stream.
type SyncType uint32

const (
	SyncNone SyncType = iota
	SyncWaitForIdle
	SyncWaitRegMem
	SyncCacheFlush
)

// String returns the display name of the sync type.
func (t SyncType) String() string {
	switch t {
	case SyncWaitForIdle:
		return "WaitForIdle"
	case SyncWaitRegMem:
		return "WaitRegMem"
	case SyncCacheFlush:
		return "CacheFlush"
	}
	return "None"
}

// SyncInfo is the per-type payload of a sync event.
type SyncInfo uint32

// CacheOp enumerates the cache maintenance operations a sync packet can
// request.
type CacheOp uint32

const (
	CacheOpNop CacheOp = iota
	CacheOpWbInvL1L2
	CacheOpWbInvL2Nc
	CacheOpWbL2Nc
	CacheOpInvL2Nc
	CacheOpInvL2Md
	CacheOpInvL1
)

// GetCacheOp translates the coherency control word of a cache-sync packet
// into the operation it requests. The PM4 encoding for this translation is
// not wired up yet; every word maps to CacheOpNop.
func GetCacheOp(cpCoherCntl uint32) CacheOp {
	return CacheOpNop
}

// SyncClassifier inspects a run of packets and decides whether the latest
// packet completes a sync event.
type SyncClassifier interface {
	SyncType(mem capture.MemoryView, submitIndex uint32, opcodes []uint32, addrs []uint64) SyncType
}

// NopSyncClassifier recognizes no sync events. It stands in until a
// catalog-driven classifier is specified.
type NopSyncClassifier struct{}

// SyncType implements SyncClassifier.
func (NopSyncClassifier) SyncType(capture.MemoryView, uint32, []uint32, []uint64) SyncType {
	return SyncNone
}
