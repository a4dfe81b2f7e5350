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

package meta

import "context"

// SegmentsUpdatedListener receives metadata updates pushed by a
// MetadataSource. Implementations must not block: heavy work should be
// posted onto the caller's own serialized task stream.
type SegmentsUpdatedListener interface {
	// OnSegmentsUpdated is invoked whenever the source observes a new
	// segment list for the log it is watching.
	OnSegmentsUpdated(list VersionedSegmentList)
	// OnLogStreamDeleted is invoked once, when the underlying log stream is
	// deleted out from under the reader.
	OnLogStreamDeleted()
}

// MetadataSource resolves and watches a single log's segment list. The core
// reader treats it as an external collaborator: it never mutates segment
// metadata itself, only observes it.
type MetadataSource interface {
	// ReadLogSegmentsFromStore performs a synchronous (pull) read of the
	// current segment list, ordered by comparator and restricted to
	// segments admitted by filter. Used both for the initial read and for
	// idle-driven refreshes.
	ReadLogSegmentsFromStore(ctx context.Context, comparator SegmentComparator, filter SegmentFilter) (VersionedSegmentList, error)

	// Watch begins pushing subsequent updates to listener until ctx is
	// done or Close is called. A source that cannot watch (e.g. a static
	// fixture) may implement this as a no-op.
	Watch(ctx context.Context, listener SegmentsUpdatedListener) error

	// Close releases any resources (watch goroutines, client handles) held
	// by the source.
	Close() error
}
