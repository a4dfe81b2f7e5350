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

// Package memsource is an in-memory meta.MetadataSource fixture used by the
// reader's own tests, and by any standalone deployment that keeps its
// segment list in process memory instead of etcd.
package memsource

import (
	"context"
	"sort"
	"sync"

	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
)

var _ meta.MetadataSource = (*Source)(nil)

// Source holds a mutable segment list for one log and fans updates out to
// whatever is currently watching it.
type Source struct {
	mu       sync.Mutex
	logName  string
	deleted  bool
	segments map[uint64]*meta.LogSegmentMetadata
	revision int64
	watchers []meta.SegmentsUpdatedListener
}

// NewSource returns an empty Source for logName.
func NewSource(logName string) *Source {
	return &Source{logName: logName, segments: make(map[uint64]*meta.LogSegmentMetadata)}
}

// Put installs or replaces a segment and pushes the updated list to every
// active watcher.
func (s *Source) Put(m *meta.LogSegmentMetadata) {
	s.mu.Lock()
	s.revision++
	cp := *m
	cp.Revision = s.revision
	s.segments[m.SegSeqNo] = &cp
	list := s.snapshotLocked()
	watchers := append([]meta.SegmentsUpdatedListener{}, s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w.OnSegmentsUpdated(list)
	}
}

// Delete marks the stream deleted and notifies every watcher exactly once.
func (s *Source) Delete() {
	s.mu.Lock()
	s.deleted = true
	watchers := append([]meta.SegmentsUpdatedListener{}, s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w.OnLogStreamDeleted()
	}
}

func (s *Source) snapshotLocked() meta.VersionedSegmentList {
	segs := make([]*meta.LogSegmentMetadata, 0, len(s.segments))
	for _, m := range s.segments {
		segs = append(segs, m)
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].SegSeqNo < segs[j].SegSeqNo })
	return meta.VersionedSegmentList{Segments: segs, Revision: s.revision}
}

// ReadLogSegmentsFromStore implements meta.MetadataSource.
func (s *Source) ReadLogSegmentsFromStore(ctx context.Context, comparator meta.SegmentComparator, filter meta.SegmentFilter) (meta.VersionedSegmentList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return meta.VersionedSegmentList{}, werr.ErrLogNotFound.WithCauseErrMsg(s.logName)
	}
	list := s.snapshotLocked()
	if filter != nil {
		filtered := make([]*meta.LogSegmentMetadata, 0, len(list.Segments))
		for _, m := range list.Segments {
			if filter(m) {
				filtered = append(filtered, m)
			}
		}
		list.Segments = filtered
	}
	if comparator != nil {
		sort.Slice(list.Segments, func(i, j int) bool { return comparator(list.Segments[i], list.Segments[j]) })
	}
	return list, nil
}

// Watch registers listener to receive every subsequent Put/Delete until ctx
// is done.
func (s *Source) Watch(ctx context.Context, listener meta.SegmentsUpdatedListener) error {
	s.mu.Lock()
	s.watchers = append(s.watchers, listener)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == listener {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
	}()
	return nil
}

// Close is a no-op: lifetime is tied to the watch context.
func (s *Source) Close() error { return nil }
