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
	"sync"

	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/store"
)

// readerState is SegmentReader's internal lifecycle.
type readerState int

const (
	stateUnopened readerState = iota
	stateOpening
	stateOpen
	stateReading
	stateClosed
	stateOpenFailed
)

// SegmentReader wraps one segment's store.InnerReader with the open/start/
// read/close lifecycle described for the core. Its own small set of fields
// is guarded by an internal lock so that completion callbacks arriving on
// foreign goroutines can be safely absorbed, even though all aggregate-
// level logic driving it runs on a single Serializer.
type SegmentReader struct {
	entryStore   store.SegmentEntryStore
	startEntryId int64

	mu       sync.Mutex
	state    readerState
	metadata *meta.LogSegmentMetadata
	inner    store.InnerReader
	onOpen   []func() // deferred actions to run once open resolves
	openErr  error

	onCaughtUp func()
}

// NewSegmentReader constructs a reader over segment, not-yet-opened,
// positioned to begin at startEntryId.
func NewSegmentReader(entryStore store.SegmentEntryStore, segment *meta.LogSegmentMetadata, startEntryId int64) *SegmentReader {
	return &SegmentReader{
		entryStore:   entryStore,
		startEntryId: startEntryId,
		state:        stateUnopened,
		metadata:     segment,
	}
}

func (r *SegmentReader) SegSeqNo() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata.SegSeqNo
}

func (r *SegmentReader) Metadata() *meta.LogSegmentMetadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata
}

// OpenReader is idempotent: subsequent calls while opening or open are
// no-ops. onDone is invoked exactly once per call (not once per logical
// open), immediately if the reader is already past stateOpening.
func (r *SegmentReader) OpenReader(ctx context.Context, onDone func(error)) {
	r.mu.Lock()
	switch r.state {
	case stateUnopened:
		r.state = stateOpening
		segment := r.metadata
		start := r.startEntryId
		r.mu.Unlock()
		r.entryStore.OpenReader(ctx, segment, start, func(res store.OpenResult) {
			r.completeOpen(res)
			onDone(res.Err)
		})
		return
	case stateOpening:
		r.onOpen = append(r.onOpen, func() { onDone(r.openErr) })
		r.mu.Unlock()
		return
	case stateOpenFailed:
		err := r.openErr
		r.mu.Unlock()
		onDone(err)
		return
	default:
		r.mu.Unlock()
		onDone(nil)
		return
	}
}

func (r *SegmentReader) completeOpen(res store.OpenResult) {
	r.mu.Lock()
	pending := r.onOpen
	r.onOpen = nil
	if res.Err != nil {
		r.state = stateOpenFailed
		r.openErr = res.Err
		r.mu.Unlock()
		for _, p := range pending {
			p()
		}
		return
	}
	r.inner = res.Reader
	r.state = stateOpen
	// LAC-caught-up notifications for in-progress segments arrive through
	// the listener registered here.
	r.inner.RegisterListener(readerListenerAdapter{r})
	r.mu.Unlock()
	for _, p := range pending {
		p()
	}
}

// StartRead is idempotent; if already open it starts immediately, else it
// chains onto the open completion.
func (r *SegmentReader) StartRead(ctx context.Context) {
	r.mu.Lock()
	switch r.state {
	case stateOpen:
		r.state = stateReading
		inner := r.inner
		r.mu.Unlock()
		inner.Start()
		return
	case stateReading:
		r.mu.Unlock()
		return
	case stateUnopened, stateOpening:
		r.mu.Unlock()
		r.OpenReader(ctx, func(error) { r.StartRead(ctx) })
		return
	default:
		r.mu.Unlock()
		return
	}
}

// ReadNext issues one readNext batch request, chaining through the open
// future if necessary. onDone is invoked exactly once with the batch or an
// error (werr.ErrEndOfSegment on segment exhaustion).
func (r *SegmentReader) ReadNext(ctx context.Context, numEntries int, onDone func(store.ReadResult)) {
	r.mu.Lock()
	switch r.state {
	case stateOpen, stateReading:
		inner := r.inner
		if r.state == stateOpen {
			r.state = stateReading
		}
		r.mu.Unlock()
		inner.ReadNext(ctx, numEntries, onDone)
		return
	case stateOpenFailed:
		err := r.openErr
		r.mu.Unlock()
		onDone(store.ReadResult{Err: err})
		return
	default:
		r.mu.Unlock()
		r.OpenReader(ctx, func(err error) {
			if err != nil {
				onDone(store.ReadResult{Err: err})
				return
			}
			r.ReadNext(ctx, numEntries, onDone)
		})
		return
	}
}

// UpdateLogSegmentMetadata applies the §4.6 legality matrix and, if
// accepted, replaces the in-memory metadata: reject a segSeqNo mismatch or
// a Closed→InProgress regression; accept an InProgress→InProgress update
// silently; propagate to the inner reader only on InProgress→Closed;
// treat Closed→Closed as a no-op success. Propagation is deferred until
// open completes if the reader has not opened yet.
func (r *SegmentReader) UpdateLogSegmentMetadata(ctx context.Context, newMeta *meta.LogSegmentMetadata) error {
	r.mu.Lock()
	old := r.metadata
	if newMeta.SegSeqNo != old.SegSeqNo {
		r.mu.Unlock()
		return werr.ErrInconsistentMeta.WithCauseErrMsg("segment sequence mismatch on metadata update")
	}
	if old.Status == meta.SegmentClosed && newMeta.Status == meta.SegmentInProgress {
		r.mu.Unlock()
		return werr.ErrInconsistentMeta.WithCauseErrMsg("segment status regressed from closed to in-progress")
	}

	propagate := old.Status == meta.SegmentInProgress && newMeta.Status == meta.SegmentClosed
	r.metadata = newMeta

	switch r.state {
	case stateOpen, stateReading:
		inner := r.inner
		r.mu.Unlock()
		if propagate {
			inner.OnLogSegmentMetadataUpdated(newMeta)
		}
	case stateUnopened, stateOpening:
		if propagate {
			r.onOpen = append(r.onOpen, func() {
				r.mu.Lock()
				inner := r.inner
				r.mu.Unlock()
				if inner != nil {
					inner.OnLogSegmentMetadataUpdated(newMeta)
				}
			})
		}
		r.mu.Unlock()
	default:
		r.mu.Unlock()
	}
	return nil
}

// Close is idempotent: never-opened readers complete immediately; an
// already-closed reader's close completes immediately too. Otherwise it
// chains the inner reader's AsyncClose and always marks isClosed on
// completion.
func (r *SegmentReader) Close(onDone func(error)) {
	r.mu.Lock()
	switch r.state {
	case stateUnopened, stateOpenFailed:
		r.state = stateClosed
		r.mu.Unlock()
		onDone(nil)
		return
	case stateClosed:
		r.mu.Unlock()
		onDone(nil)
		return
	case stateOpening:
		r.onOpen = append(r.onOpen, func() { r.Close(onDone) })
		r.mu.Unlock()
		return
	default:
		inner := r.inner
		r.mu.Unlock()
		inner.AsyncClose(func(err error) {
			r.mu.Lock()
			r.state = stateClosed
			r.mu.Unlock()
			onDone(err)
		})
		return
	}
}

// IsBeyondLastAddConfirmed reports whether this reader has exhausted every
// entry durable as of the last known LAC. An unopened reader is never
// beyond LAC.
func (r *SegmentReader) IsBeyondLastAddConfirmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inner == nil {
		return false
	}
	return r.inner.IsBeyondLastAddConfirmed()
}

// HasCaughtUpOnInprogress mirrors the inner reader's flag; false if never
// opened.
func (r *SegmentReader) HasCaughtUpOnInprogress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inner == nil {
		return false
	}
	return r.inner.HasCaughtUpOnInprogress()
}

// readerListenerAdapter forwards inner-reader callbacks without exposing
// SegmentReader's internals as a public listener type.
type readerListenerAdapter struct {
	r *SegmentReader
}

func (a readerListenerAdapter) OnCaughtupOnInprogress() {
	a.r.mu.Lock()
	f := a.r.onCaughtUp
	a.r.mu.Unlock()
	if f != nil {
		f()
	}
}

// onCaughtUp, when set by the aggregate, is invoked whenever the inner
// reader reports it has caught up to LAC on an in-progress segment.
func (r *SegmentReader) SetCaughtUpListener(f func()) {
	r.mu.Lock()
	r.onCaughtUp = f
	r.mu.Unlock()
}
