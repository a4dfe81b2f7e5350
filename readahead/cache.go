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
	"time"

	"github.com/dlreader/readahead/meta"
)

// entryCache is the bounded FIFO between the read-ahead producer and the
// consumer. Its channel capacity is sized generously (maxCachedEntries plus
// two full batches) so the producer never blocks mid-delivery; the pause/
// resume decision that keeps steady-state size near maxCachedEntries lives
// in the aggregate reader, not here.
type entryCache struct {
	ch chan meta.Entry
}

func newEntryCache(capacity int) *entryCache {
	return &entryCache{ch: make(chan meta.Entry, capacity)}
}

// push enqueues entries in order. The caller (the single read-ahead
// producer) must size the cache so this never blocks under normal
// operation.
func (c *entryCache) push(entries []meta.Entry) {
	for _, e := range entries {
		c.ch <- e
	}
}

// poll waits up to timeout for one entry. Returns (entry, true) if one
// arrived before the deadline, or (zero, false) on timeout.
func (c *entryCache) poll(timeout time.Duration) (meta.Entry, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e := <-c.ch:
		return e, true
	case <-timer.C:
		return meta.Entry{}, false
	}
}

func (c *entryCache) size() int   { return len(c.ch) }
func (c *entryCache) isEmpty() bool { return len(c.ch) == 0 }
func (c *entryCache) isFull(threshold int) bool { return len(c.ch) >= threshold }
