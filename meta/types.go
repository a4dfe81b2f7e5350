// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package meta defines the log's data model (DLSN, segment metadata, truncation
// status) and the MetadataSource contract the read-ahead core consumes.
package meta

import "fmt"

// DLSN is a totally ordered log coordinate. Only SegSeqNo and EntryId are
// used by the read-ahead core; SlotId is carried through for callers that
// need sub-entry addressing.
type DLSN struct {
	SegSeqNo uint64
	EntryId  int64
	SlotId   int64
}

// Less reports whether d sorts strictly before o, lexicographically on
// (SegSeqNo, EntryId, SlotId).
func (d DLSN) Less(o DLSN) bool {
	if d.SegSeqNo != o.SegSeqNo {
		return d.SegSeqNo < o.SegSeqNo
	}
	if d.EntryId != o.EntryId {
		return d.EntryId < o.EntryId
	}
	return d.SlotId < o.SlotId
}

// Compare returns -1, 0, or 1 as d is less than, equal to, or greater than o.
func (d DLSN) Compare(o DLSN) int {
	if d == o {
		return 0
	}
	if d.Less(o) {
		return -1
	}
	return 1
}

func (d DLSN) String() string {
	return fmt.Sprintf("(%d,%d,%d)", d.SegSeqNo, d.EntryId, d.SlotId)
}

// SegmentStatus is the lifecycle state of a log segment as observed by the
// metadata source. It never regresses from Closed back to InProgress.
type SegmentStatus int

const (
	SegmentInProgress SegmentStatus = iota
	SegmentClosed
)

func (s SegmentStatus) String() string {
	if s == SegmentClosed {
		return "Closed"
	}
	return "InProgress"
}

// TruncationKind classifies how much of a segment's prefix has been deleted.
type TruncationKind int

const (
	TruncationNone TruncationKind = iota
	TruncationPartial
	TruncationFull
)

func (k TruncationKind) String() string {
	switch k {
	case TruncationPartial:
		return "Partial"
	case TruncationFull:
		return "Full"
	default:
		return "None"
	}
}

// LogSegmentMetadata is a read-only snapshot of one segment's state as known
// to the metadata source at some revision.
type LogSegmentMetadata struct {
	LogName  string
	SegSeqNo uint64
	Status   SegmentStatus

	Truncation TruncationKind
	// MinActiveDLSN is meaningful when Truncation == TruncationPartial: the
	// first entry in this segment that is still readable.
	MinActiveDLSN DLSN
	// LastDLSN is meaningful for closed segments (the segment's final entry)
	// and for fully truncated segments (the entry the truncation covers up
	// to, inclusive).
	LastDLSN DLSN

	CompletionTimeMillis int64
	// Revision is the metadata store's version stamp for this segment
	// record (e.g. an etcd mod-revision), used only for observability.
	Revision int64
}

// IsInProgress reports whether the segment is still the open tail.
func (m LogSegmentMetadata) IsInProgress() bool {
	return m.Status == SegmentInProgress
}

// Entry is one readable unit retrieved from a segment.
type Entry struct {
	SegSeqNo uint64
	EntryId  int64
	Payload  []byte
}

// VersionedSegmentList is a metadata source snapshot: an ordered-by-SegSeqNo
// list of segments plus the store revision it was read at.
type VersionedSegmentList struct {
	Segments []*LogSegmentMetadata
	Revision int64
}

// SegmentComparator orders two segment metadata records; the metadata source
// returns segments sorted according to it.
type SegmentComparator func(a, b *LogSegmentMetadata) bool

// SegmentFilter reports whether a segment should be included in a metadata
// source read.
type SegmentFilter func(m *LogSegmentMetadata) bool

// BySegSeqNo is the comparator used throughout the core: segments in
// increasing sequence-number order.
func BySegSeqNo(a, b *LogSegmentMetadata) bool {
	return a.SegSeqNo < b.SegSeqNo
}

// AllSegments is a filter that admits every segment.
func AllSegments(*LogSegmentMetadata) bool {
	return true
}
