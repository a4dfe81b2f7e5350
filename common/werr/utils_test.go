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

package werr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestUtils_Code(t *testing.T) {
	if Code(nil) != Ok {
		t.Error("Expected Code(nil) to return Ok")
	}

	rErr := ErrAlreadyTruncated
	if Code(rErr) != rErr.Code() {
		t.Errorf("Expected Code to return %d, got %d", rErr.Code(), Code(rErr))
	}

	wrappedErr := errors.Wrap(rErr, "additional context")
	if Code(wrappedErr) != rErr.Code() {
		t.Errorf("Expected Code to return %d for wrapped error, got %d", rErr.Code(), Code(wrappedErr))
	}

	unknownErr := errors.New("some unknown error")
	if Code(unknownErr) != UnknownError {
		t.Errorf("Expected Code to return %d for unknown error, got %d", UnknownError, Code(unknownErr))
	}
}

func TestUtils_IsTimeoutError(t *testing.T) {
	if IsTimeoutError(nil) {
		t.Error("Expected IsTimeoutError(nil) to be false")
	}
	if !IsTimeoutError(context.DeadlineExceeded) {
		t.Error("Expected context.DeadlineExceeded to be a timeout error")
	}
	if !IsTimeoutError(context.Canceled) {
		t.Error("Expected context.Canceled to be a timeout error")
	}
	wrapped := errors.Wrap(context.DeadlineExceeded, "reading next entry")
	if !IsTimeoutError(wrapped) {
		t.Error("Expected wrapped deadline exceeded to be a timeout error")
	}
	if IsTimeoutError(errors.New("some unrelated error")) {
		t.Error("Expected unrelated error not to be a timeout error")
	}
}

func TestUtils_IsNotFoundErr(t *testing.T) {
	if IsNotFoundErr(nil) {
		t.Error("Expected IsNotFoundErr(nil) to be false")
	}
	if !IsNotFoundErr(ErrLogNotFound) {
		t.Error("Expected ErrLogNotFound to be a not-found error")
	}
	if !IsNotFoundErr(ErrSegmentNotFound.WithCauseErrMsg("segment 3 missing")) {
		t.Error("Expected wrapped ErrSegmentNotFound to be a not-found error")
	}
	if IsNotFoundErr(ErrAlreadyTruncated) {
		t.Error("Expected ErrAlreadyTruncated not to be treated as not-found")
	}
}
