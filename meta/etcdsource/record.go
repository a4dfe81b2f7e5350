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

package etcdsource

import "github.com/dlreader/readahead/meta"

// segmentRecord is the on-the-wire shape of a LogSegmentMetadata stored
// under a segment's etcd key. Revision is not stored here; it comes from
// the key-value's own ModRevision at read time.
type segmentRecord struct {
	LogName              string `json:"logName"`
	SegSeqNo              uint64 `json:"segSeqNo"`
	Status                int    `json:"status"`
	Truncation            int    `json:"truncation"`
	MinActiveSegSeqNo      uint64 `json:"minActiveSegSeqNo"`
	MinActiveEntryId       int64  `json:"minActiveEntryId"`
	MinActiveSlotId        int64  `json:"minActiveSlotId"`
	LastSegSeqNo           uint64 `json:"lastSegSeqNo"`
	LastEntryId            int64  `json:"lastEntryId"`
	LastSlotId             int64  `json:"lastSlotId"`
	CompletionTimeMillis  int64  `json:"completionTimeMillis"`
}

func toRecord(m *meta.LogSegmentMetadata) segmentRecord {
	return segmentRecord{
		LogName:             m.LogName,
		SegSeqNo:            m.SegSeqNo,
		Status:              int(m.Status),
		Truncation:          int(m.Truncation),
		MinActiveSegSeqNo:   m.MinActiveDLSN.SegSeqNo,
		MinActiveEntryId:    m.MinActiveDLSN.EntryId,
		MinActiveSlotId:     m.MinActiveDLSN.SlotId,
		LastSegSeqNo:        m.LastDLSN.SegSeqNo,
		LastEntryId:         m.LastDLSN.EntryId,
		LastSlotId:          m.LastDLSN.SlotId,
		CompletionTimeMillis: m.CompletionTimeMillis,
	}
}

func fromRecord(r segmentRecord, revision int64) *meta.LogSegmentMetadata {
	return &meta.LogSegmentMetadata{
		LogName:              r.LogName,
		SegSeqNo:             r.SegSeqNo,
		Status:               meta.SegmentStatus(r.Status),
		Truncation:           meta.TruncationKind(r.Truncation),
		MinActiveDLSN:        meta.DLSN{SegSeqNo: r.MinActiveSegSeqNo, EntryId: r.MinActiveEntryId, SlotId: r.MinActiveSlotId},
		LastDLSN:             meta.DLSN{SegSeqNo: r.LastSegSeqNo, EntryId: r.LastEntryId, SlotId: r.LastSlotId},
		CompletionTimeMillis: r.CompletionTimeMillis,
		Revision:             revision,
	}
}
