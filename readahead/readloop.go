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

package readahead

import (
	"context"
	"time"

	"github.com/dlreader/readahead/common/metrics"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/store"
)

// issueReadNext requests the next batch from sr, re-serializing the
// completion back onto the Serializer. It also evaluates catch-up status:
// if sr is in-progress and already beyond its Last Add Confirmed at the
// moment a new read is issued, the reader has caught up.
func (r *ReadAheadEntryReader) issueReadNext(ctx context.Context, sr *SegmentReader) {
	if r.isClosing() {
		return
	}
	if sr.Metadata().IsInProgress() && sr.IsBeyondLastAddConfirmed() {
		r.clearCatchingUp()
	}
	sr.ReadNext(ctx, r.cfg.ReadAheadBatchSize, func(res store.ReadResult) {
		r.serializer.Submit(func() { r.onReadNextComplete(ctx, sr, res) })
	})
}

// onReadNextComplete is the producer side of the read-ahead loop (§4.7).
func (r *ReadAheadEntryReader) onReadNextComplete(ctx context.Context, sr *SegmentReader, res store.ReadResult) {
	if r.isClosing() {
		return
	}
	if sr != r.current {
		// Stale completion from a reader that is no longer current (e.g.
		// superseded by apply-move-to-next); safe to drop.
		return
	}

	if res.Err != nil {
		switch {
		case werr.ErrEndOfSegment.Is(res.Err):
			r.applyMoveToNext(ctx)
		case werr.ErrEntryStoreRead.Is(res.Err), werr.ErrConnect.Is(res.Err), werr.ErrTimeout.Is(res.Err):
			if r.lastError.setIfAbsent(res.Err) {
				r.listeners.notifyFailure(res.Err)
			}
		default:
			wrapped := werr.ErrInternal.WithCauseErr(res.Err)
			if r.lastError.setIfAbsent(wrapped) {
				r.listeners.notifyFailure(wrapped)
			}
		}
		return
	}

	r.lastEntryAddedTime.Store(time.Now().UnixNano())
	r.cache.push(res.Entries)
	if len(res.Entries) > 0 {
		last := res.Entries[len(res.Entries)-1]
		r.nextEntryPosition = AdvancePosition(last.SegSeqNo, last.EntryId)
	}
	r.listeners.notifySuccess()
	metrics.ReadAheadCacheSize.WithLabelValues(r.logName).Set(float64(r.cache.size()))

	if r.cache.isFull(r.cfg.ReadAheadMaxRecords) {
		r.paused = true
		metrics.PauseResumeTotal.WithLabelValues(r.logName, "pause").Inc()
		if !r.cache.isFull(r.cfg.ReadAheadMaxRecords) {
			r.paused = false
			metrics.PauseResumeTotal.WithLabelValues(r.logName, "resume").Inc()
			r.applyScheduleReadNext(ctx)
		}
		return
	}
	r.applyScheduleReadNext(ctx)
}

// applyScheduleReadNext issues the next readNext on current, or pauses if
// there is no current reader to read from.
func (r *ReadAheadEntryReader) applyScheduleReadNext(ctx context.Context) {
	if r.current == nil {
		r.paused = true
		return
	}
	r.issueReadNext(ctx, r.current)
}

// resumeIfPaused clears backpressure and resumes read-ahead if the cache
// has drained below the pause threshold.
func (r *ReadAheadEntryReader) resumeIfPaused(ctx context.Context) {
	if r.isClosing() || !r.paused {
		return
	}
	if r.cache.isFull(r.cfg.ReadAheadMaxRecords) {
		return
	}
	r.paused = false
	metrics.PauseResumeTotal.WithLabelValues(r.logName, "resume").Inc()
	r.applyScheduleReadNext(ctx)
}

// invokeReadAhead is called after reconciliation in case a paused
// read-ahead can now resume.
func (r *ReadAheadEntryReader) invokeReadAhead(ctx context.Context) {
	r.resumeIfPaused(ctx)
}
