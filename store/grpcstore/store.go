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

package grpcstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/dlreader/readahead/common/config"
	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/store"
)

var _ store.SegmentEntryStore = (*Store)(nil)

// TargetResolver maps a segment to the "host:port" of the entry store node
// currently serving it, the remote equivalent of the teacher's segment-to-
// quorum discovery.
type TargetResolver func(segment *meta.LogSegmentMetadata) (string, error)

// Store is a store.SegmentEntryStore that reaches entries over gRPC.
type Store struct {
	pool     *connPool
	resolve  TargetResolver
	logName  string
	cfg      config.StoreConfig
}

// NewStore returns a Store that dials targets on demand via resolve.
func NewStore(logName string, cfg config.StoreConfig, resolve TargetResolver) *Store {
	return &Store{pool: newConnPool(), resolve: resolve, logName: logName, cfg: cfg}
}

// Close tears down every pooled connection.
func (s *Store) Close() { s.pool.closeAll() }

// OpenReader implements store.SegmentEntryStore.
func (s *Store) OpenReader(ctx context.Context, segment *meta.LogSegmentMetadata, startEntryId int64, callback func(store.OpenResult)) {
	go func() {
		target, err := s.resolve(segment)
		if err != nil {
			callback(store.OpenResult{Err: werr.ErrConnect.WithCauseErr(err)})
			return
		}
		cnx, err := s.pool.get(target)
		if err != nil {
			callback(store.OpenResult{Err: err})
			return
		}

		dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout.Duration.Duration())
		defer cancel()
		var resp openReaderResponse
		req := &openReaderRequest{
			LogName:      s.logName,
			SegSeqNo:     segment.SegSeqNo,
			StartEntryId: startEntryId,
			RequestId:    uuid.New().String(),
		}
		if err := invoke(dialCtx, cnx, methodOpenReader, req, &resp); err != nil {
			callback(store.OpenResult{Err: err})
			return
		}
		if resp.Error != "" {
			callback(store.OpenResult{Err: werr.ErrEntryStoreRead.WithCauseErrMsg(resp.Error)})
			return
		}

		callback(store.OpenResult{Reader: &reader{
			store:    s,
			cnx:      cnx,
			handleId: resp.HandleId,
			segment:  segment,
			lac:      -1,
		}})
	}()
}

var _ store.InnerReader = (*reader)(nil)

// reader is a remote InnerReader handle: every method below is a unary RPC
// against the entry store node that owns the segment. There is no
// generated-stub streaming push from the server, so caught-up/LAC tracking
// is driven by a background poll of GetStatus. (The local memstore fixture
// does not poll; it detects catch-up inside ReadNext.)
type reader struct {
	store    *Store
	cnx      *grpc.ClientConn
	handleId string

	mu       sync.Mutex
	segment  *meta.LogSegmentMetadata
	listener store.StateChangeListener
	lac      int64
	caughtUp bool
	started  bool

	pollCancel context.CancelFunc
}

func (r *reader) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	pollCtx, cancel := context.WithCancel(context.Background())
	r.pollCancel = cancel
	r.mu.Unlock()

	if r.GetSegment().IsInProgress() {
		go r.pollStatus(pollCtx)
	}
}

func (r *reader) pollStatus(ctx context.Context) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var resp getStatusResponse
			callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := invoke(callCtx, r.cnx, methodGetStatus, &getStatusRequest{HandleId: r.handleId}, &resp)
			cancel()
			if err != nil {
				continue
			}
			r.mu.Lock()
			r.lac = resp.LastAddConfirmed
			fireNow := resp.CaughtUpOnInprogress && !r.caughtUp
			if fireNow {
				r.caughtUp = true
			}
			listener := r.listener
			r.mu.Unlock()
			if fireNow && listener != nil {
				listener.OnCaughtupOnInprogress()
			}
		}
	}
}

func (r *reader) ReadNext(ctx context.Context, numEntries int, callback func(store.ReadResult)) {
	go func() {
		var resp readNextResponse
		err := invoke(ctx, r.cnx, methodReadNext, &readNextRequest{HandleId: r.handleId, NumEntries: numEntries}, &resp)
		if err != nil {
			callback(store.ReadResult{Err: err})
			return
		}
		if resp.Error != "" {
			callback(store.ReadResult{Err: werr.ErrEntryStoreRead.WithCauseErrMsg(resp.Error)})
			return
		}
		callback(store.ReadResult{Entries: resp.Entries})
	}()
}

func (r *reader) OnLogSegmentMetadataUpdated(m *meta.LogSegmentMetadata) {
	r.mu.Lock()
	r.segment = m
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var resp ack
		if err := invoke(ctx, r.cnx, methodUpdateMeta, &updateMetaRequest{HandleId: r.handleId, Segment: m}, &resp); err != nil {
			logger.Ctx(ctx).Warn("failed to push metadata update to entry store", zap.Error(err))
		}
	}()
}

func (r *reader) RegisterListener(l store.StateChangeListener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

func (r *reader) AsyncClose(callback func(error)) {
	r.mu.Lock()
	if r.pollCancel != nil {
		r.pollCancel()
	}
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var resp ack
		err := invoke(ctx, r.cnx, methodCloseReader, &closeReaderRequest{HandleId: r.handleId}, &resp)
		if err == nil && resp.Error != "" {
			err = werr.ErrEntryStoreRead.WithCauseErrMsg(resp.Error)
		}
		callback(err)
	}()
}

func (r *reader) IsBeyondLastAddConfirmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caughtUp
}

func (r *reader) HasCaughtUpOnInprogress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caughtUp
}

func (r *reader) GetLastAddConfirmed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lac
}

func (r *reader) GetSegment() *meta.LogSegmentMetadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segment
}

