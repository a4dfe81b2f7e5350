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
	"sync"
	"sync/atomic"
)

// StateChangeListener observes read-ahead success/failure edges: a
// delivered batch, or a sticky fatal error being set.
type StateChangeListener interface {
	OnReadAheadSuccess()
	OnReadAheadFailure(err error)
}

// listenerSet is a copy-on-write set, safe for concurrent iteration during
// notify while add/remove happen from the Serializer.
type listenerSet struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]StateChangeListener]
}

func newListenerSet() *listenerSet {
	s := &listenerSet{}
	empty := make([]StateChangeListener, 0)
	s.listeners.Store(&empty)
	return s
}

func (s *listenerSet) add(l StateChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := *s.listeners.Load()
	next := make([]StateChangeListener, len(old), len(old)+1)
	copy(next, old)
	next = append(next, l)
	s.listeners.Store(&next)
}

func (s *listenerSet) remove(l StateChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := *s.listeners.Load()
	next := make([]StateChangeListener, 0, len(old))
	for _, existing := range old {
		if existing != l {
			next = append(next, existing)
		}
	}
	s.listeners.Store(&next)
}

func (s *listenerSet) notifySuccess() {
	for _, l := range *s.listeners.Load() {
		l.OnReadAheadSuccess()
	}
}

func (s *listenerSet) notifyFailure(err error) {
	for _, l := range *s.listeners.Load() {
		l.OnReadAheadFailure(err)
	}
}
