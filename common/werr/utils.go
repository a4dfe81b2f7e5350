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
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsTimeoutError reports whether err is a context deadline/cancellation, or a
// gRPC-surfaced equivalent, possibly wrapped.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.IsAny(err, context.Canceled, context.DeadlineExceeded) {
		return true
	}

	if st, ok := status.FromError(err); ok {
		if st.Code() == codes.DeadlineExceeded || st.Code() == codes.Canceled {
			return true
		}
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "context deadline exceeded") ||
		strings.Contains(errMsg, "DeadlineExceeded") ||
		strings.Contains(errMsg, "context canceled")
}

// IsNotFoundErr reports whether err indicates a missing log or segment.
func IsNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	return ErrLogNotFound.Is(err) || ErrSegmentNotFound.Is(err)
}
