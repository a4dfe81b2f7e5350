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

package grpcstore

import "github.com/dlreader/readahead/meta"

const (
	serviceName       = "entrystore.EntryStore"
	methodOpenReader  = "/" + serviceName + "/OpenReader"
	methodReadNext    = "/" + serviceName + "/ReadNext"
	methodUpdateMeta  = "/" + serviceName + "/UpdateMetadata"
	methodGetStatus   = "/" + serviceName + "/GetStatus"
	methodCloseReader = "/" + serviceName + "/CloseReader"
)

type openReaderRequest struct {
	LogName      string `json:"logName"`
	SegSeqNo     uint64 `json:"segSeqNo"`
	StartEntryId int64  `json:"startEntryId"`
	// RequestId is a client-generated correlation id, fresh for every
	// OpenReader call. The client does not retry OpenReader.
	RequestId string `json:"requestId"`
}

type openReaderResponse struct {
	HandleId string `json:"handleId"`
	Error    string `json:"error,omitempty"`
}

type readNextRequest struct {
	HandleId   string `json:"handleId"`
	NumEntries int    `json:"numEntries"`
}

type readNextResponse struct {
	Entries   []meta.Entry `json:"entries,omitempty"`
	ErrorCode int32        `json:"errorCode,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type updateMetaRequest struct {
	HandleId string                   `json:"handleId"`
	Segment  *meta.LogSegmentMetadata `json:"segment"`
}

type getStatusRequest struct {
	HandleId string `json:"handleId"`
}

type getStatusResponse struct {
	LastAddConfirmed    int64 `json:"lastAddConfirmed"`
	CaughtUpOnInprogress bool `json:"caughtUpOnInprogress"`
}

type closeReaderRequest struct {
	HandleId string `json:"handleId"`
}

type ack struct {
	Error string `json:"error,omitempty"`
}
