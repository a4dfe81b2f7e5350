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

package readahead_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlreader/readahead/common/config"
	"github.com/dlreader/readahead/common/werr"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/meta/memsource"
	"github.com/dlreader/readahead/readahead"
	"github.com/dlreader/readahead/store/memstore"
)

func testConfig() config.ReaderConfig {
	return config.ReaderConfig{
		ReadAheadMaxRecords:             100,
		ReadAheadBatchSize:              4,
		IdleWarnThreshold:               config.NewDurationMillisecondsFromInt(0),
		IdleCheckInterval:               config.NewDurationMillisecondsFromInt(0),
		IgnoreTruncationStatus:          false,
		AlertWhenPositioningOnTruncated: true,
	}
}

func closedSegment(logName string, segSeqNo uint64, lastEntryId int64) *meta.LogSegmentMetadata {
	return &meta.LogSegmentMetadata{
		LogName:  logName,
		SegSeqNo: segSeqNo,
		Status:   meta.SegmentClosed,
		LastDLSN: meta.DLSN{SegSeqNo: segSeqNo, EntryId: lastEntryId},
	}
}

func entries(segSeqNo uint64, from, to int64) []meta.Entry {
	var out []meta.Entry
	for i := from; i <= to; i++ {
		out = append(out, meta.Entry{SegSeqNo: segSeqNo, EntryId: i, Payload: []byte("e")})
	}
	return out
}

func initialList(t *testing.T, ctx context.Context, src *memsource.Source) meta.VersionedSegmentList {
	t.Helper()
	list, err := src.ReadLogSegmentsFromStore(ctx, meta.BySegSeqNo, meta.AllSegments)
	require.NoError(t, err)
	return list
}

func drain(t *testing.T, r *readahead.ReadAheadEntryReader, want int) []meta.Entry {
	t.Helper()
	var got []meta.Entry
	for len(got) < want {
		e, err := r.GetNextReadAheadEntry(2 * time.Second)
		require.NoError(t, err)
		got = append(got, e)
	}
	return got
}

// S1: simple replay from closed segments.
func TestReadAhead_S1_SimpleReplay(t *testing.T) {
	ms := memstore.NewStore()
	ms.PutSegment(closedSegment("log", 1, 9), entries(1, 0, 9))
	ms.PutSegment(closedSegment("log", 2, 4), entries(2, 0, 4))

	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))
	src.Put(ms.Metadata(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 0}, initialList(t, ctx, src)))

	got := drain(t, r, 15)
	var prev meta.DLSN
	for i, e := range got {
		cur := meta.DLSN{SegSeqNo: e.SegSeqNo, EntryId: e.EntryId}
		if i > 0 {
			assert.True(t, prev.Less(cur))
		}
		prev = cur
	}
	assert.Equal(t, uint64(1), got[0].SegSeqNo)
	assert.Equal(t, int64(0), got[0].EntryId)
	assert.Equal(t, uint64(2), got[14].SegSeqNo)
	assert.Equal(t, int64(4), got[14].EntryId)

	require.Eventually(t, r.IsReadAheadCaughtUp, time.Second, 10*time.Millisecond)
}

// S2: positioning inside a closed segment.
func TestReadAhead_S2_PositionInsideClosedSegment(t *testing.T) {
	ms := memstore.NewStore()
	ms.PutSegment(closedSegment("log", 1, 9), entries(1, 0, 9))
	ms.PutSegment(closedSegment("log", 2, 4), entries(2, 0, 4))

	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))
	src.Put(ms.Metadata(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 7}, initialList(t, ctx, src)))

	got := drain(t, r, 8)
	assert.Equal(t, int64(7), got[0].EntryId)
	assert.Equal(t, uint64(1), got[0].SegSeqNo)
	assert.Equal(t, uint64(2), got[7].SegSeqNo)
	assert.Equal(t, int64(4), got[7].EntryId)
}

// S3: skip fully truncated, partial truncation bumps start.
func TestReadAhead_S3_SkipFullyTruncated_BumpPartial(t *testing.T) {
	ms := memstore.NewStore()
	seg1 := &meta.LogSegmentMetadata{
		LogName: "log", SegSeqNo: 1, Status: meta.SegmentClosed,
		Truncation: meta.TruncationFull, LastDLSN: meta.DLSN{SegSeqNo: 1, EntryId: 9},
	}
	ms.PutSegment(seg1, entries(1, 0, 9))
	seg2 := &meta.LogSegmentMetadata{
		LogName: "log", SegSeqNo: 2, Status: meta.SegmentClosed,
		Truncation: meta.TruncationPartial, MinActiveDLSN: meta.DLSN{SegSeqNo: 2, EntryId: 3},
	}
	ms.PutSegment(seg2, entries(2, 0, 9))

	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))
	src.Put(ms.Metadata(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 0}, initialList(t, ctx, src)))

	got := drain(t, r, 7)
	assert.Equal(t, uint64(2), got[0].SegSeqNo)
	assert.Equal(t, int64(3), got[0].EntryId)
	assert.Equal(t, int64(9), got[6].EntryId)

	_, err := r.GetNextReadAheadEntry(50 * time.Millisecond)
	assert.True(t, werr.Code(err) == werr.Code(werr.ErrTimeout) || err == nil)
}

// S4: truncation violation raises AlreadyTruncated.
func TestReadAhead_S4_TruncationViolation(t *testing.T) {
	ms := memstore.NewStore()
	seg1 := &meta.LogSegmentMetadata{
		LogName: "log", SegSeqNo: 1, Status: meta.SegmentClosed,
		Truncation: meta.TruncationFull, LastDLSN: meta.DLSN{SegSeqNo: 1, EntryId: 9},
	}
	ms.PutSegment(seg1, entries(1, 0, 9))

	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 5}, initialList(t, ctx, src)))

	require.Eventually(t, func() bool {
		_, err := r.GetNextReadAheadEntry(50 * time.Millisecond)
		return werr.ErrAlreadyTruncated.Is(err)
	}, 2*time.Second, 20*time.Millisecond)

	// Sticky: every subsequent call re-raises the same error.
	_, err := r.GetNextReadAheadEntry(10 * time.Millisecond)
	assert.True(t, werr.ErrAlreadyTruncated.Is(err))
}

// S5: backpressure bound.
func TestReadAhead_S5_BackpressureBound(t *testing.T) {
	ms := memstore.NewStore()
	ms.PutSegment(closedSegment("log", 1, 999), entries(1, 0, 999))
	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))

	cfg := testConfig()
	cfg.ReadAheadMaxRecords = 10
	cfg.ReadAheadBatchSize = 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, cfg)
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 0}, initialList(t, ctx, src)))

	time.Sleep(100 * time.Millisecond)
	maxObserved := 0
	count := 0
	for count < 1000 {
		n := r.GetNumCachedEntries()
		if n > maxObserved {
			maxObserved = n
		}
		_, err := r.GetNextReadAheadEntry(2 * time.Second)
		require.NoError(t, err)
		count++
		time.Sleep(time.Millisecond)
	}
	assert.LessOrEqual(t, maxObserved, cfg.ReadAheadMaxRecords+cfg.ReadAheadBatchSize)
}

// S6: in-progress tail with LAC advance and catch-up, then segment
// transition.
func TestReadAhead_S6_InProgressTailAdvanceAndTransition(t *testing.T) {
	ms := memstore.NewStore()
	seg1 := &meta.LogSegmentMetadata{LogName: "log", SegSeqNo: 1, Status: meta.SegmentInProgress}
	ms.PutSegment(seg1, entries(1, 0, 4)) // LAC=4

	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 0}, initialList(t, ctx, src)))

	got := drain(t, r, 5)
	assert.Equal(t, int64(4), got[4].EntryId)
	require.Eventually(t, r.IsReadAheadCaughtUp, time.Second, 10*time.Millisecond)

	ms.AppendEntry(1, meta.Entry{SegSeqNo: 1, EntryId: 5, Payload: []byte("e")})
	ms.AppendEntry(1, meta.Entry{SegSeqNo: 1, EntryId: 6, Payload: []byte("e")})
	ms.AppendEntry(1, meta.Entry{SegSeqNo: 1, EntryId: 7, Payload: []byte("e")})
	ms.AppendEntry(1, meta.Entry{SegSeqNo: 1, EntryId: 8, Payload: []byte("e")})
	ms.AppendEntry(1, meta.Entry{SegSeqNo: 1, EntryId: 9, Payload: []byte("e")})

	closed := closedSegment("log", 1, 9)
	ms.CloseSegment(1, meta.DLSN{SegSeqNo: 1, EntryId: 9})
	src.Put(closed)

	seg2 := &meta.LogSegmentMetadata{LogName: "log", SegSeqNo: 2, Status: meta.SegmentInProgress}
	ms.PutSegment(seg2, nil)
	src.Put(ms.Metadata(2))
	ms.AppendEntry(2, meta.Entry{SegSeqNo: 2, EntryId: 0, Payload: []byte("e")})

	more := drain(t, r, 6)
	assert.Equal(t, int64(5), more[0].EntryId)
	assert.Equal(t, int64(9), more[4].EntryId)
	assert.Equal(t, uint64(2), more[5].SegSeqNo)
	assert.Equal(t, int64(0), more[5].EntryId)
}

// Idempotent close: calling AsyncClose N times returns the same channel.
func TestReadAhead_IdempotentClose(t *testing.T) {
	ms := memstore.NewStore()
	ms.PutSegment(closedSegment("log", 1, 9), entries(1, 0, 9))
	src := memsource.NewSource("log")
	src.Put(ms.Metadata(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := readahead.New(ctx, "log", ms, src, testConfig())
	require.NoError(t, r.Start(ctx, meta.DLSN{SegSeqNo: 1, EntryId: 0}, initialList(t, ctx, src)))

	ch1 := r.AsyncClose()
	ch2 := r.AsyncClose()
	assert.Equal(t, ch1, ch2)

	select {
	case <-ch1:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not complete")
	}
}
