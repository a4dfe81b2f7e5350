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

	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/metrics"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
)

// isAllowedToPosition implements the positioning admissibility check
// (§4.9): given a segment and the desired start DLSN, decide whether
// positioning there is legal, raising an alert metric when configured even
// if the error itself is suppressed.
func (r *ReadAheadEntryReader) isAllowedToPosition(segment *meta.LogSegmentMetadata, start meta.DLSN) error {
	switch segment.Truncation {
	case meta.TruncationFull:
		if segment.LastDLSN.Compare(start) >= 0 && !r.cfg.IgnoreTruncationStatus {
			return werr.ErrAlreadyTruncated.WithCauseErrMsg(segment.LogName)
		}
	case meta.TruncationPartial:
		if segment.MinActiveDLSN.Compare(start) > 0 {
			if r.cfg.AlertWhenPositioningOnTruncated {
				logger.Ctx(r.ctx).Warn("positioning at a partially truncated offset",
					zap.String("log", r.logName), zap.Uint64("segSeqNo", segment.SegSeqNo))
				metrics.ReconciliationTotal.WithLabelValues(r.logName, "truncated_position_alert").Inc()
			}
			if !r.cfg.IgnoreTruncationStatus {
				return werr.ErrAlreadyTruncated.WithCauseErrMsg(segment.LogName)
			}
		}
	}
	return nil
}

// applyInitialize is invoked the first time a non-empty segment list
// arrives after Start (§4.3).
func (r *ReadAheadEntryReader) applyInitialize(ctx context.Context, list meta.VersionedSegmentList) {
	if r.isClosing() || r.initialized {
		return
	}

	effectiveStart := r.fromDLSN
	skippingTruncation := true
	var candidates []*SegmentReader

	for _, seg := range list.Segments {
		if seg.SegSeqNo < effectiveStart.SegSeqNo {
			continue
		}
		if skippingTruncation {
			if seg.Truncation == meta.TruncationFull && !r.cfg.IgnoreTruncationStatus {
				continue
			}
			if seg.Truncation == meta.TruncationPartial && seg.MinActiveDLSN.Compare(effectiveStart) > 0 {
				effectiveStart = seg.MinActiveDLSN
			}
			skippingTruncation = false
		}

		positionStart := effectiveStart
		startEntryId := int64(0)
		if seg.SegSeqNo == effectiveStart.SegSeqNo {
			startEntryId = effectiveStart.EntryId
		} else {
			// A later segment is entered at its own beginning, not at the
			// first candidate's effective start.
			positionStart = meta.DLSN{SegSeqNo: seg.SegSeqNo, EntryId: 0}
		}

		if err := r.isAllowedToPosition(seg, positionStart); err != nil {
			if r.lastError.setIfAbsent(err) {
				r.listeners.notifyFailure(err)
			}
			return
		}

		candidates = append(candidates, NewSegmentReader(r.entryStore, seg, startEntryId))
	}

	if len(candidates) == 0 {
		metrics.ReconciliationTotal.WithLabelValues(r.logName, "initialize_deferred").Inc()
		return
	}

	head := candidates[0]
	r.current = head
	r.currentSegSeqNo = head.SegSeqNo()
	r.wireCaughtUpListener(head)
	head.OpenReader(ctx, func(error) { head.StartRead(ctx) })
	r.issueReadNext(ctx, head)

	r.queued = candidates[1:]
	for _, sr := range r.queued {
		sr.OpenReader(ctx, func(error) {})
	}
	r.applyPrefetchNext(ctx, true)

	r.initialized = true
	metrics.ReconciliationTotal.WithLabelValues(r.logName, "initialize").Inc()
}

// applyReinitialize reconciles every subsequent metadata update against
// the current/next/queued readers (§4.4).
func (r *ReadAheadEntryReader) applyReinitialize(ctx context.Context, list meta.VersionedSegmentList) {
	if r.isClosing() || !r.initialized {
		return
	}
	idx := 0
	for idx < len(list.Segments) && list.Segments[idx].SegSeqNo < r.currentSegSeqNo {
		idx++
	}
	if idx >= len(list.Segments) {
		metrics.ReconciliationTotal.WithLabelValues(r.logName, "reinitialize_noop").Inc()
		r.invokeReadAhead(ctx)
		return
	}

	if r.current != nil {
		if err := r.current.UpdateLogSegmentMetadata(ctx, list.Segments[idx]); err != nil {
			r.failReconcile(err)
			return
		}
		idx++
	} else {
		if list.Segments[idx].SegSeqNo != r.currentSegSeqNo {
			r.failReconcile(werr.ErrInconsistentMeta.WithCauseErrMsg("segment sequence mismatch on reconcile"))
			return
		}
		// Already finished reading this segment; do not reopen it.
		idx++
	}

	if idx < len(list.Segments) && r.next != nil {
		if err := r.next.UpdateLogSegmentMetadata(ctx, list.Segments[idx]); err != nil {
			r.failReconcile(err)
			return
		}
		idx++
	}

	qi := 0
	for idx < len(list.Segments) && qi < len(r.queued) {
		if err := r.queued[qi].UpdateLogSegmentMetadata(ctx, list.Segments[idx]); err != nil {
			r.failReconcile(err)
			return
		}
		idx++
		qi++
	}

	for ; idx < len(list.Segments); idx++ {
		seg := list.Segments[idx]
		sr := NewSegmentReader(r.entryStore, seg, 0)
		sr.OpenReader(ctx, func(error) {})
		r.queued = append(r.queued, sr)
	}

	if r.current == nil {
		r.applyMoveToNext(ctx)
	}
	r.invokeReadAhead(ctx)
	metrics.ReconciliationTotal.WithLabelValues(r.logName, "reinitialize").Inc()
}

// applyMoveToNext closes the current segment reader (if any) and promotes
// next, or prefetches a fresh one, to take its place (§4.8).
func (r *ReadAheadEntryReader) applyMoveToNext(ctx context.Context) {
	if r.current != nil {
		closing := r.current
		r.closing = append(r.closing, closing)
		closing.Close(func(error) {
			r.serializer.Submit(func() { r.reapClosing(closing) })
		})
		r.current = nil
	}

	if r.next == nil {
		r.applyPrefetchNext(ctx, false)
	}
	if r.next != nil {
		r.current = r.next
		r.next = nil
		r.currentSegSeqNo = r.current.SegSeqNo()
		r.wireCaughtUpListener(r.current)
		r.current.StartRead(ctx)
		r.issueReadNext(ctx, r.current)
		r.applyPrefetchNext(ctx, true)
		metrics.ReconciliationTotal.WithLabelValues(r.logName, "move_to_next").Inc()
		return
	}

	if r.catchingUp.Load() && len(r.queued) == 0 {
		r.clearCatchingUp()
	}
	r.paused = true
}

// applyPrefetchNext peeks the head of queued and, if present and admitted
// by onlyInProgress, promotes it to next.
func (r *ReadAheadEntryReader) applyPrefetchNext(ctx context.Context, onlyInProgress bool) {
	if len(r.queued) == 0 {
		return
	}
	head := r.queued[0]
	if onlyInProgress && !head.Metadata().IsInProgress() {
		return
	}
	head.StartRead(ctx)
	r.next = head
	r.queued = r.queued[1:]
	metrics.ReconciliationTotal.WithLabelValues(r.logName, "prefetch_next").Inc()
}

// failReconcile installs err as the sticky error (first writer wins) and
// notifies listeners; used whenever a metadata update is rejected as fatal.
func (r *ReadAheadEntryReader) failReconcile(err error) {
	if r.lastError.setIfAbsent(err) {
		r.listeners.notifyFailure(r.lastError.get())
	}
}

func (r *ReadAheadEntryReader) reapClosing(sr *SegmentReader) {
	for i, c := range r.closing {
		if c == sr {
			r.closing = append(r.closing[:i], r.closing[i+1:]...)
			return
		}
	}
}

func (r *ReadAheadEntryReader) wireCaughtUpListener(sr *SegmentReader) {
	sr.SetCaughtUpListener(func() {
		r.serializer.Submit(func() {
			r.clearCatchingUp()
		})
	})
}
