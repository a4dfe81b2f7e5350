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

// Package readahead implements the read-ahead entry reader: the pull-side
// pipeline that concurrently prefetches entries from a log's segments into
// a bounded queue, transparently crossing segment boundaries and absorbing
// metadata updates.
package readahead

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/config"
	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/metrics"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/store"
)

// closePromise is shared by every caller of AsyncClose; the first caller
// creates it, every subsequent caller observes the same one.
type closePromise struct {
	done chan struct{}
}

// ReadAheadEntryReader is the core aggregate: it owns the current/next/
// queued/closing SegmentReaders, the entry cache, and the single Serializer
// that every state mutation runs on.
type ReadAheadEntryReader struct {
	logName    string
	entryStore store.SegmentEntryStore
	metaSource meta.MetadataSource
	cfg        config.ReaderConfig

	serializer *Serializer
	cache      *entryCache
	listeners  *listenerSet

	// --- fields touched only on the Serializer ---
	current           *SegmentReader
	next              *SegmentReader
	queued            []*SegmentReader
	closing           []*SegmentReader
	currentSegSeqNo   uint64
	nextEntryPosition EntryPosition
	paused            bool
	initialized       bool
	fromDLSN          meta.DLSN

	// --- fields safe for lock-free concurrent access ---
	catchingUp         atomic.Bool
	lastError          stickyError
	lastEntryAddedTime atomic.Int64

	closeMu      sync.Mutex
	closePromise *closePromise

	idleCancel context.CancelFunc
	idleDone   chan struct{}

	ctx context.Context
}

// New constructs a ReadAheadEntryReader for logName. Call Start to begin
// reading from fromDLSN.
func New(ctx context.Context, logName string, entryStore store.SegmentEntryStore, metaSource meta.MetadataSource, cfg config.ReaderConfig) *ReadAheadEntryReader {
	r := &ReadAheadEntryReader{
		logName:    logName,
		entryStore: entryStore,
		metaSource: metaSource,
		cfg:        cfg,
		serializer: NewSerializer(logName, 256),
		cache:      newEntryCache(cfg.ReadAheadMaxRecords + cfg.ReadAheadBatchSize*2),
		listeners:  newListenerSet(),
		ctx:        ctx,
	}
	r.catchingUp.Store(true)
	r.lastEntryAddedTime.Store(time.Now().UnixNano())
	return r
}

// Start begins the reader at fromDLSN, reconciling against
// initialSegmentList (apply-initialize), then subscribes to push updates and
// starts the idle detector. The caller is responsible for fetching the
// initial segment list; ReadLogSegmentsFromStore past this point is only
// ever invoked internally, for idle-driven refreshes.
func (r *ReadAheadEntryReader) Start(ctx context.Context, fromDLSN meta.DLSN, initialSegmentList meta.VersionedSegmentList) error {
	r.fromDLSN = fromDLSN
	r.nextEntryPosition = EntryPosition{SegSeqNo: fromDLSN.SegSeqNo, EntryId: fromDLSN.EntryId}
	r.serializer.Start()

	r.serializer.Submit(func() { r.applyInitialize(ctx, initialSegmentList) })

	if watchErr := r.metaSource.Watch(ctx, r); watchErr != nil {
		logger.Ctx(ctx).Warn("metadata watch unavailable, relying on idle-driven refresh",
			zap.String("log", r.logName), zap.Error(watchErr))
	}

	r.startIdleDetector(ctx)
	return nil
}

// OnSegmentsUpdated implements meta.SegmentsUpdatedListener: pushed updates
// are serialized exactly like the initial read.
func (r *ReadAheadEntryReader) OnSegmentsUpdated(list meta.VersionedSegmentList) {
	r.serializer.Submit(func() {
		if !r.initialized {
			r.applyInitialize(r.ctx, list)
		} else {
			r.applyReinitialize(r.ctx, list)
		}
	})
}

// OnLogStreamDeleted implements meta.SegmentsUpdatedListener.
func (r *ReadAheadEntryReader) OnLogStreamDeleted() {
	r.serializer.Submit(func() {
		if r.lastError.setIfAbsent(werr.ErrLogStreamDeleted.WithCauseErrMsg(r.logName)) {
			r.listeners.notifyFailure(r.lastError.get())
		}
	})
}

// GetNextReadAheadEntry polls the cache with a timeout. lastError, once
// set, is re-raised on every call before the cache is polled: buffered
// entries are not drained once the reader has faulted.
func (r *ReadAheadEntryReader) GetNextReadAheadEntry(timeout time.Duration) (meta.Entry, error) {
	if err := r.lastError.get(); err != nil {
		return meta.Entry{}, err
	}
	entry, ok := r.cache.poll(timeout)
	if !ok {
		if err := r.lastError.get(); err != nil {
			return meta.Entry{}, err
		}
		return meta.Entry{}, werr.ErrTimeout.WithCauseErrMsg("getNextReadAheadEntry timed out")
	}
	metrics.ReadAheadCacheSize.WithLabelValues(r.logName).Set(float64(r.cache.size()))
	if !r.cache.isFull(r.cfg.ReadAheadMaxRecords) {
		r.serializer.Submit(func() { r.resumeIfPaused(r.ctx) })
	}
	return entry, nil
}

func (r *ReadAheadEntryReader) GetNumCachedEntries() int { return r.cache.size() }
func (r *ReadAheadEntryReader) IsCacheFull() bool        { return r.cache.isFull(r.cfg.ReadAheadMaxRecords) }
func (r *ReadAheadEntryReader) IsCacheEmpty() bool       { return r.cache.isEmpty() }

// IsReaderIdle reports whether no entry has been added to the cache for
// longer than threshold.
func (r *ReadAheadEntryReader) IsReaderIdle(threshold time.Duration) bool {
	last := time.Unix(0, r.lastEntryAddedTime.Load())
	return time.Since(last) > threshold
}

// IsReadAheadCaughtUp exposes the one-way catch-up flag.
func (r *ReadAheadEntryReader) IsReadAheadCaughtUp() bool { return !r.catchingUp.Load() }

func (r *ReadAheadEntryReader) AddStateChangeNotification(l StateChangeListener) {
	r.listeners.add(l)
}

func (r *ReadAheadEntryReader) RemoveStateChangeNotification(l StateChangeListener) {
	r.listeners.remove(l)
}

// clearCatchingUp flips catchingUp true->false; a no-op once already false.
func (r *ReadAheadEntryReader) clearCatchingUp() {
	if r.catchingUp.CompareAndSwap(true, false) {
		metrics.CatchUpTransitionsTotal.WithLabelValues(r.logName).Inc()
	}
}

// AsyncClose returns a channel closed once every sub-reader has finished
// closing. The first caller wins; subsequent callers observe the same
// channel.
func (r *ReadAheadEntryReader) AsyncClose() <-chan struct{} {
	r.closeMu.Lock()
	if r.closePromise != nil {
		p := r.closePromise
		r.closeMu.Unlock()
		return p.done
	}
	p := &closePromise{done: make(chan struct{})}
	r.closePromise = p
	r.closeMu.Unlock()

	r.stopIdleDetector()
	r.serializer.SubmitOrRunInline(func() { r.applyClose(p) })
	return p.done
}

// isClosing reports whether AsyncClose has been called; checked at the top
// of every serialized task so work scheduled after close is observed
// becomes a no-op.
func (r *ReadAheadEntryReader) isClosing() bool {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	return r.closePromise != nil
}

func (r *ReadAheadEntryReader) applyClose(p *closePromise) {
	if r.current != nil {
		r.closing = append(r.closing, r.current)
		r.current = nil
	}
	if r.next != nil {
		r.closing = append(r.closing, r.next)
		r.next = nil
	}
	r.closing = append(r.closing, r.queued...)
	r.queued = nil

	var wg sync.WaitGroup
	for _, sr := range r.closing {
		wg.Add(1)
		sr.Close(func(error) { wg.Done() })
	}
	go func() {
		wg.Wait()
		r.serializer.Close()
		close(p.done)
	}()
}
