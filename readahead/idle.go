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
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/metrics"
	"github.com/dlreader/readahead/meta"
)

// startIdleDetector launches the periodic probe described in §4.11. It is
// disabled when the configured threshold is not a usable positive value.
func (r *ReadAheadEntryReader) startIdleDetector(ctx context.Context) {
	threshold := r.cfg.IdleWarnThreshold.Duration.Duration()
	if threshold <= 0 || threshold >= time.Duration(math.MaxInt64/2) {
		return
	}
	interval := r.cfg.IdleCheckInterval.Duration.Duration()
	if interval <= 0 {
		interval = threshold
	}

	idleCtx, cancel := context.WithCancel(ctx)
	r.idleCancel = cancel
	r.idleDone = make(chan struct{})

	go func() {
		defer close(r.idleDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-idleCtx.Done():
				return
			case <-ticker.C:
				r.idleTick(idleCtx, threshold)
			}
		}
	}()
}

// idleTick forces a metadata refresh when the pipeline looks stuck: no
// entry delivered for longer than threshold, and current is either absent
// or has drained everything durable. Failures are ignored; the next tick
// retries.
func (r *ReadAheadEntryReader) idleTick(ctx context.Context, threshold time.Duration) {
	if !r.IsReaderIdle(threshold) {
		return
	}
	r.serializer.Submit(func() {
		stuck := r.current == nil || r.current.IsBeyondLastAddConfirmed()
		if !stuck {
			return
		}
		list, err := r.metaSource.ReadLogSegmentsFromStore(ctx, meta.BySegSeqNo, meta.AllSegments)
		if err != nil {
			logger.Ctx(ctx).Debug("idle-triggered metadata refresh failed, will retry",
				zap.String("log", r.logName), zap.Error(err))
			return
		}
		metrics.IdleTriggeredRefreshTotal.WithLabelValues(r.logName).Inc()
		if !r.initialized {
			r.applyInitialize(ctx, list)
		} else {
			r.applyReinitialize(ctx, list)
		}
	})
}

// stopIdleDetector cancels the probe and waits for its goroutine to exit.
func (r *ReadAheadEntryReader) stopIdleDetector() {
	if r.idleCancel != nil {
		r.idleCancel()
	}
	if r.idleDone != nil {
		<-r.idleDone
	}
}
