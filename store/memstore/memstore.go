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

// Package memstore is an in-memory store.SegmentEntryStore used by the
// reader's own tests and suitable as a local/standalone backend.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/store"
)

var _ store.SegmentEntryStore = (*Store)(nil)

// Store holds a fixed set of segment fixtures, mutable by test code to
// simulate an in-progress tail (AppendEntry, CloseSegment).
type Store struct {
	mu       sync.Mutex
	segments map[uint64]*segmentState
}

type segmentState struct {
	mu       sync.Mutex
	metadata *meta.LogSegmentMetadata
	entries  []meta.Entry
	lac      int64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{segments: make(map[uint64]*segmentState)}
}

// PutSegment registers (or replaces) a segment's fixture data.
func (s *Store) PutSegment(m *meta.LogSegmentMetadata, entries []meta.Entry) {
	lac := int64(-1)
	if len(entries) > 0 {
		lac = entries[len(entries)-1].EntryId
	}
	s.mu.Lock()
	s.segments[m.SegSeqNo] = &segmentState{metadata: m, entries: entries, lac: lac}
	s.mu.Unlock()
}

// AppendEntry appends one entry to an in-progress segment and advances its
// Last Add Confirmed to match.
func (s *Store) AppendEntry(segSeqNo uint64, entry meta.Entry) {
	st := s.get(segSeqNo)
	st.mu.Lock()
	st.entries = append(st.entries, entry)
	st.lac = entry.EntryId
	st.mu.Unlock()
}

// CloseSegment transitions a segment to Closed with the given last DLSN.
func (s *Store) CloseSegment(segSeqNo uint64, lastDLSN meta.DLSN) {
	st := s.get(segSeqNo)
	st.mu.Lock()
	m := *st.metadata
	m.Status = meta.SegmentClosed
	m.LastDLSN = lastDLSN
	st.metadata = &m
	st.mu.Unlock()
}

// Metadata returns the current metadata snapshot for a registered segment,
// used by tests to build the VersionedSegmentList pushed through a
// MetadataSource fixture.
func (s *Store) Metadata(segSeqNo uint64) *meta.LogSegmentMetadata {
	st := s.get(segSeqNo)
	st.mu.Lock()
	defer st.mu.Unlock()
	m := *st.metadata
	return &m
}

func (s *Store) get(segSeqNo uint64) *segmentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.segments[segSeqNo]
	if !ok {
		st = &segmentState{lac: -1}
		s.segments[segSeqNo] = st
	}
	return st
}

// OpenReader implements store.SegmentEntryStore.
func (s *Store) OpenReader(ctx context.Context, segment *meta.LogSegmentMetadata, startEntryId int64, callback func(store.OpenResult)) {
	st := s.get(segment.SegSeqNo)
	go callback(store.OpenResult{Reader: &reader{st: st, pos: startEntryId}})
}

var _ store.InnerReader = (*reader)(nil)

type reader struct {
	st  *segmentState
	mu  sync.Mutex
	pos int64

	listener  store.StateChangeListener
	caughtUp  bool
	started   bool
}

func (r *reader) Start() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

func (r *reader) ReadNext(ctx context.Context, numEntries int, callback func(store.ReadResult)) {
	go func() {
		r.st.mu.Lock()
		var batch []meta.Entry
		for len(batch) < numEntries && int(r.pos) < len(r.st.entries) {
			batch = append(batch, r.st.entries[r.pos])
			r.pos++
		}
		closed := r.st.metadata.Status == meta.SegmentClosed
		lac := r.st.lac
		r.st.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				callback(store.ReadResult{Err: werr.ErrEndOfSegment})
				return
			}
			// Nothing new yet on an in-progress tail: brief backoff so the
			// producer loop does not spin hot against an idle fixture.
			time.Sleep(5 * time.Millisecond)
			callback(store.ReadResult{})
			return
		}

		r.mu.Lock()
		if !r.caughtUp && !closed && r.pos > lac {
			r.caughtUp = true
			listener := r.listener
			r.mu.Unlock()
			if listener != nil {
				listener.OnCaughtupOnInprogress()
			}
		} else {
			r.mu.Unlock()
		}
		callback(store.ReadResult{Entries: batch})
	}()
}

func (r *reader) OnLogSegmentMetadataUpdated(m *meta.LogSegmentMetadata) {
	r.st.mu.Lock()
	r.st.metadata = m
	r.st.mu.Unlock()
}

func (r *reader) RegisterListener(l store.StateChangeListener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

func (r *reader) AsyncClose(callback func(error)) {
	go callback(nil)
}

func (r *reader) IsBeyondLastAddConfirmed() bool {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.pos > r.st.lac
}

func (r *reader) HasCaughtUpOnInprogress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caughtUp
}

func (r *reader) GetLastAddConfirmed() int64 {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.lac
}

func (r *reader) GetSegment() *meta.LogSegmentMetadata {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.metadata
}
