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

// EntryPosition is the reader's read cursor. It only ever advances: once a
// batch of entries has been delivered into the cache, the position moves to
// just past the last delivered entry.
type EntryPosition struct {
	SegSeqNo uint64
	EntryId  int64
}

// AdvancePosition returns the position immediately following entry (segSeqNo,
// entryId).
func AdvancePosition(segSeqNo uint64, entryId int64) EntryPosition {
	return EntryPosition{SegSeqNo: segSeqNo, EntryId: entryId + 1}
}
