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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	// Ok means no error
	Ok = iota
	// UnknownError means an error of an unclassified kind occurred
	UnknownError
	// InternalError means an internal invariant was violated
	InternalError
	// InvalidConfiguration means a config value failed validation
	InvalidConfiguration
	// TimeoutError means an operation exceeded its deadline
	TimeoutError
	// ConnectError means a connection to the entry store or metadata source failed
	ConnectError
	// ReaderClosed means the reader has already been closed
	ReaderClosed
	// ReaderNotInitialized means an operation was attempted before Start
	ReaderNotInitialized
	// LogNotFound means the metadata source has no record of the stream
	LogNotFound
	// LogStreamDeleted means the stream was deleted out from under an open reader
	LogStreamDeleted
	// SegmentNotFound means the requested segment id has no metadata entry
	SegmentNotFound
	// SegmentStateInvalid means a segment reader operation was attempted from an incompatible lifecycle state
	SegmentStateInvalid
	// InconsistentMetadata means the metadata source returned data that violates ordering/continuity invariants
	InconsistentMetadata
	// AlreadyTruncated means the requested position falls before the log's truncation point
	AlreadyTruncated
	// EndOfLogSegment means every entry known to be durable in the current segment has been delivered
	EndOfLogSegment
	// EntryStoreReadError means the entry store returned an error while serving a read
	EntryStoreReadError
	// Interrupted means a blocking wait was cancelled via context
	Interrupted
	// CacheFull means the bounded entry queue rejected a push because it is at capacity
	CacheFull
	// InvalidPosition means a position was requested that the reader cannot reasonably seek to
	InvalidPosition
)

var (
	ErrUnknown          = newReaderError("unknown error", UnknownError, false)
	ErrInternal         = newReaderError("internal invariant violated", InternalError, false)
	ErrInvalidConfig    = newReaderError("invalid configuration", InvalidConfiguration, false)
	ErrTimeout          = newReaderError("operation timed out", TimeoutError, true)
	ErrConnect          = newReaderError("failed to connect", ConnectError, true)
	ErrReaderClosed     = newReaderError("reader is closed", ReaderClosed, false)
	ErrReaderNotStarted = newReaderError("reader has not been started", ReaderNotInitialized, false)
	ErrLogNotFound      = newReaderError("log stream not found", LogNotFound, false)
	ErrLogStreamDeleted = newReaderError("log stream was deleted", LogStreamDeleted, false)
	ErrSegmentNotFound  = newReaderError("segment not found", SegmentNotFound, false)
	ErrSegmentState     = newReaderError("segment reader in invalid state for this operation", SegmentStateInvalid, false)
	ErrInconsistentMeta = newReaderError("metadata source returned inconsistent segment list", InconsistentMetadata, true)
	ErrAlreadyTruncated = newReaderError("position is before the log's truncation point", AlreadyTruncated, false)
	ErrEndOfSegment     = newReaderError("no more entries known to be durable in this segment", EndOfLogSegment, false)
	ErrEntryStoreRead   = newReaderError("entry store read failed", EntryStoreReadError, true)
	ErrInterrupted      = newReaderError("operation interrupted", Interrupted, false)
	ErrCacheFull        = newReaderError("read-ahead cache is full", CacheFull, true)
	ErrInvalidPosition  = newReaderError("invalid read position", InvalidPosition, false)
)

// readerError is the taxonomy type every error the reader raises is built
// from: a stable numeric code, a retryability hint, and a human message.
type readerError struct {
	msg       string
	errCode   int32
	retryable bool
}

func newReaderError(msg string, code int32, retryable bool) readerError {
	return readerError{msg: msg, errCode: code, retryable: retryable}
}

func (e readerError) Code() int32       { return e.errCode }
func (e readerError) Error() string     { return e.msg }
func (e readerError) IsRetryable() bool { return e.retryable }

func (e readerError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(readerError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

func (e readerError) WithCauseErr(cause error) error {
	return e.WithCauseErrMsg(cause.Error())
}

func (e readerError) WithCauseErrMsg(msg string) error {
	return readerError{msg: msg, errCode: e.errCode, retryable: e.retryable}
}

// IsRetryableErr reports whether err (or its readerError cause) is safe to retry.
func IsRetryableErr(err error) bool {
	var re readerError
	if errors.As(err, &re) {
		return re.retryable
	}
	return false
}

// Code extracts the numeric error code, defaulting to UnknownError.
func Code(err error) int32 {
	if err == nil {
		return Ok
	}
	var re readerError
	if errors.As(err, &re) {
		return re.errCode
	}
	return UnknownError
}

type multiErrors struct {
	errs []error
}

func (e *multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	if len(e.errs) == 2 {
		return e.errs[1]
	}
	return &multiErrors{errs: e.errs[1:]}
}

func (e *multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e *multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

// Combine folds a set of errors (dropping nils) into a single error whose
// Is() matches any of the originals. Returns nil if every input was nil.
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return &multiErrors{errs}
}
