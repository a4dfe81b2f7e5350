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

import "sync/atomic"

// stickyError holds the aggregate's lastError: set at most once
// (first-write-wins), visible to the consumer path without taking the
// Serializer's cooperation.
type stickyError struct {
	ptr atomic.Pointer[error]
}

// setIfAbsent installs err only if no error has been set yet. Returns true
// if this call was the one that installed it.
func (s *stickyError) setIfAbsent(err error) bool {
	if err == nil {
		return false
	}
	e := err
	return s.ptr.CompareAndSwap(nil, &e)
}

func (s *stickyError) get() error {
	p := s.ptr.Load()
	if p == nil {
		return nil
	}
	return *p
}
