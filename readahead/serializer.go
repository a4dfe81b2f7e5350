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

	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/logger"
)

// task is one unit of serialized work: a closure the Serializer guarantees
// to run FIFO and non-overlapping with every other task submitted to the
// same Serializer instance.
type task func()

// Serializer is a single-writer task executor keyed by stream name. It is
// the generalization of a sequential append executor to arbitrary
// closures: every state-mutating operation on a ReadAheadEntryReader runs
// as a task submitted here, so at most one such operation is ever in
// flight for a given log.
type Serializer struct {
	streamName string
	tasks      chan task
	wg         sync.WaitGroup
	closeOnce  sync.Once
	closed     atomic.Bool
}

// NewSerializer creates a Serializer for streamName with the given task
// queue depth. Start must be called before Submit.
func NewSerializer(streamName string, bufferSize int) *Serializer {
	return &Serializer{
		streamName: streamName,
		tasks:      make(chan task, bufferSize),
	}
}

// Start launches the single worker goroutine.
func (s *Serializer) Start() {
	go s.worker()
}

func (s *Serializer) worker() {
	for t := range s.tasks {
		t()
		s.wg.Done()
	}
}

// Submit enqueues t for serialized execution. Returns false, as a silent
// no-op, if the Serializer has already been closed.
func (s *Serializer) Submit(t task) bool {
	if s.closed.Load() {
		logger.Ctx(nil).Debug("dropping task submitted after close",
			zap.String("stream", s.streamName))
		return false
	}
	s.wg.Add(1)
	// Blocks if the buffer is full: the contract is non-overlapping, FIFO
	// execution, not bounded submission.
	s.tasks <- t
	return true
}

// SubmitOrRunInline behaves like Submit, but if the Serializer is already
// closed it runs t synchronously on the calling goroutine instead of
// dropping it. Used only by the close path, which must run even after
// ordinary submissions have started being rejected.
func (s *Serializer) SubmitOrRunInline(t task) {
	if s.Submit(t) {
		return
	}
	t()
}

// Close stops accepting new tasks and waits for all already-submitted tasks
// to finish running.
func (s *Serializer) Close() {
	s.closed.Store(true)
	s.closeOnce.Do(func() {
		close(s.tasks)
	})
	s.wg.Wait()
}
