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

// Package etcdsource implements meta.MetadataSource against an etcd cluster,
// mirroring the key-layout and transactional conventions of the wider
// metadata provider this package was distilled from.
package etcdsource

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
)

var _ meta.MetadataSource = (*Source)(nil)

// Source is an etcd-backed meta.MetadataSource scoped to a single log.
type Source struct {
	client   *clientv3.Client
	rootPath string
	logName  string

	mu       sync.Mutex
	watching bool
	cancel   context.CancelFunc
}

// NewSource returns a MetadataSource that resolves logName's segments under
// rootPath in the given etcd client.
func NewSource(client *clientv3.Client, rootPath, logName string) *Source {
	return &Source{client: client, rootPath: rootPath, logName: logName}
}

// ReadLogSegmentsFromStore reads every segment record under the log's
// prefix, applies filter, sorts with comparator, and reports the highest
// ModRevision observed as the snapshot's Revision.
func (s *Source) ReadLogSegmentsFromStore(ctx context.Context, comparator meta.SegmentComparator, filter meta.SegmentFilter) (meta.VersionedSegmentList, error) {
	streamKey := buildLogStreamKey(s.rootPath, s.logName)
	streamResp, err := s.client.Get(ctx, streamKey)
	if err != nil {
		return meta.VersionedSegmentList{}, werr.ErrConnect.WithCauseErr(err)
	}
	if len(streamResp.Kvs) == 0 {
		return meta.VersionedSegmentList{}, werr.ErrLogNotFound.WithCauseErrMsg(s.logName)
	}

	prefix := buildLogSegmentsPrefix(s.rootPath, s.logName)
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return meta.VersionedSegmentList{}, werr.ErrConnect.WithCauseErr(err)
	}

	segments := make([]*meta.LogSegmentMetadata, 0, len(resp.Kvs))
	var maxRevision int64
	for _, kv := range resp.Kvs {
		var rec segmentRecord
		if decodeErr := json.Unmarshal(kv.Value, &rec); decodeErr != nil {
			logger.Ctx(ctx).Warn("skipping malformed segment record",
				zap.String("key", string(kv.Key)), zap.Error(decodeErr))
			continue
		}
		m := fromRecord(rec, kv.ModRevision)
		if filter != nil && !filter(m) {
			continue
		}
		segments = append(segments, m)
		if kv.ModRevision > maxRevision {
			maxRevision = kv.ModRevision
		}
	}
	if comparator != nil {
		sort.Slice(segments, func(i, j int) bool { return comparator(segments[i], segments[j]) })
	}
	return meta.VersionedSegmentList{Segments: segments, Revision: maxRevision}, nil
}

// Watch starts a goroutine that pushes every subsequent segment-prefix
// change to listener as a fresh full read, and fires OnLogStreamDeleted when
// the stream marker key is removed. It returns once the watch channel has
// been established; the goroutine runs until ctx is done or Close is called.
func (s *Source) Watch(ctx context.Context, listener meta.SegmentsUpdatedListener) error {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return werr.ErrInvalidConfig.WithCauseErrMsg("watch already started")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	s.watching = true
	s.cancel = cancel
	s.mu.Unlock()

	prefix := buildLogSegmentsPrefix(s.rootPath, s.logName)
	streamKey := buildLogStreamKey(s.rootPath, s.logName)
	segWatch := s.client.Watch(watchCtx, prefix, clientv3.WithPrefix())
	streamWatch := s.client.Watch(watchCtx, streamKey)

	go func() {
		for {
			select {
			case <-watchCtx.Done():
				return
			case wr, ok := <-streamWatch:
				if !ok {
					return
				}
				if wr.Err() != nil {
					logger.Ctx(watchCtx).Warn("stream watch error", zap.String("log", s.logName), zap.Error(wr.Err()))
					continue
				}
				for _, ev := range wr.Events {
					if ev.Type == clientv3.EventTypeDelete {
						listener.OnLogStreamDeleted()
					}
				}
			case wr, ok := <-segWatch:
				if !ok {
					return
				}
				if wr.Err() != nil {
					logger.Ctx(watchCtx).Warn("segment watch error", zap.String("log", s.logName), zap.Error(wr.Err()))
					continue
				}
				list, readErr := s.ReadLogSegmentsFromStore(watchCtx, meta.BySegSeqNo, meta.AllSegments)
				if readErr != nil {
					logger.Ctx(watchCtx).Warn("refresh after watch event failed", zap.String("log", s.logName), zap.Error(readErr))
					continue
				}
				listener.OnSegmentsUpdated(list)
			}
		}
	}()
	return nil
}

// Close cancels any active watch.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.watching = false
	return nil
}
