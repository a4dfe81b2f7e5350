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

// Package store defines the segment entry store contract the read-ahead
// core consumes: opening a reader over one segment and pulling batches of
// entries from it asynchronously.
package store

import (
	"context"

	"github.com/dlreader/readahead/meta"
)

// ReadResult is the outcome of one InnerReader.ReadNext call.
type ReadResult struct {
	Entries []meta.Entry
	Err     error
}

// OpenResult is the outcome of one SegmentEntryStore.OpenReader call.
type OpenResult struct {
	Reader InnerReader
	Err    error
}

// StateChangeListener receives edge-triggered notifications from an
// InnerReader. Implementations must not block.
type StateChangeListener interface {
	// OnCaughtupOnInprogress fires once, the first time the reader
	// observes it has consumed every entry durable as of the moment it
	// caught up to an in-progress segment's Last Add Confirmed.
	OnCaughtupOnInprogress()
}

// InnerReader is a handle over one segment, opened at a fixed start entry
// id. All methods that perform I/O are asynchronous: they return
// immediately and invoke the supplied callback on completion, from
// whatever goroutine finishes the work. Callers are responsible for
// re-serializing onto their own single-writer task stream.
type InnerReader interface {
	// Start begins actively reading. Idempotent.
	Start()

	// ReadNext requests up to numEntries entries beyond the current
	// position and invokes callback exactly once with the result.
	ReadNext(ctx context.Context, numEntries int, callback func(ReadResult))

	// OnLogSegmentMetadataUpdated informs the inner reader of a new
	// metadata snapshot for the segment it is reading (e.g. LAC advanced,
	// or the segment closed).
	OnLogSegmentMetadataUpdated(m *meta.LogSegmentMetadata)

	// RegisterListener attaches a state-change listener. Safe to call
	// before or after Start.
	RegisterListener(l StateChangeListener)

	// AsyncClose releases the reader's resources and invokes callback
	// exactly once on completion.
	AsyncClose(callback func(error))

	// IsBeyondLastAddConfirmed reports whether every entry up to and
	// including the segment's Last Add Confirmed has already been
	// returned by ReadNext.
	IsBeyondLastAddConfirmed() bool

	// HasCaughtUpOnInprogress reports whether OnCaughtupOnInprogress has
	// already fired for this reader.
	HasCaughtUpOnInprogress() bool

	// GetLastAddConfirmed returns the highest durably-replicated entry id
	// known for an in-progress segment, or -1 if none is known yet.
	GetLastAddConfirmed() int64

	// GetSegment returns the metadata snapshot this reader currently holds.
	GetSegment() *meta.LogSegmentMetadata
}

// SegmentEntryStore opens InnerReaders over individual segments of a log.
type SegmentEntryStore interface {
	// OpenReader asynchronously opens a reader over segment starting at
	// startEntryId, invoking callback exactly once with the result.
	OpenReader(ctx context.Context, segment *meta.LogSegmentMetadata, startEntryId int64, callback func(OpenResult))
}
