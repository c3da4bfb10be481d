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

// Package interval provides interval arithmetic over uint64 ranges.
// It is used to maintain the set of captured GPU virtual address spans.
package interval

import "sort"

// U64Span is a half open interval that includes the lower bound, but not the
// upper.
type U64Span struct {
	Start uint64 // the value at which the interval begins
	End   uint64 // the next value not included in the interval.
}

// U64Range is an interval specified by a beginning and size.
type U64Range struct {
	First uint64 // the first value in the interval
	Count uint64 // the count of values in the interval
}

// U64RangeList is an ordered, non-overlapping list of ranges.
type U64RangeList []U64Range

// Range converts a U64Span to a U64Range.
func (s U64Span) Range() U64Range { return U64Range{First: s.Start, Count: s.End - s.Start} }

// Span converts a U64Range to a U64Span.
func (r U64Range) Span() U64Span { return U64Span{Start: r.First, End: r.First + r.Count} }

// Contains returns true if v lies within the span.
func (s U64Span) Contains(v uint64) bool { return s.Start <= v && v < s.End }

// Clone returns a copy of the list.
func (l U64RangeList) Clone() U64RangeList {
	res := make(U64RangeList, len(l))
	copy(res, l)
	return res
}

// IndexOf returns the index of the range containing v, or -1 if v is not
// covered by any range in the list.
func (l U64RangeList) IndexOf(v uint64) int {
	index := sort.Search(len(l), func(at int) bool {
		return v < l[at].First
	})
	index--
	if index >= 0 && l[index].Span().Contains(v) {
		return index
	}
	return -1
}

// Merge inserts the span into the list, merging it with any overlapping or
// abutting ranges, and returns the updated list.
func Merge(l U64RangeList, s U64Span) U64RangeList {
	if s.End <= s.Start {
		return l
	}
	// First range that could touch s.
	lo := sort.Search(len(l), func(at int) bool {
		return s.Start <= l[at].Span().End
	})
	// First range entirely after s.
	hi := sort.Search(len(l), func(at int) bool {
		return s.End < l[at].First
	})
	if lo == hi {
		// No overlap. Insert a new range at lo.
		l = append(l, U64Range{})
		copy(l[lo+1:], l[lo:])
		l[lo] = s.Range()
		return l
	}
	merged := s
	if first := l[lo].Span(); first.Start < merged.Start {
		merged.Start = first.Start
	}
	if last := l[hi-1].Span(); merged.End < last.End {
		merged.End = last.End
	}
	l[lo] = merged.Range()
	copy(l[lo+1:], l[hi:])
	return l[: len(l)-(hi-lo)+1 : cap(l)]
}
