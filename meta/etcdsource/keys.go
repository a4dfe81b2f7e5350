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

import "fmt"

// buildLogSegmentsPrefix returns the etcd key prefix under which every
// segment record for logName lives, keyed by zero-padded SegSeqNo so that
// lexicographic and numeric ordering agree.
func buildLogSegmentsPrefix(rootPath, logName string) string {
	return fmt.Sprintf("%s/logs/%s/segments/", rootPath, logName)
}

func buildSegmentKey(rootPath, logName string, segSeqNo uint64) string {
	return fmt.Sprintf("%s/logs/%s/segments/%020d", rootPath, logName, segSeqNo)
}

// buildLogStreamKey is the marker key whose deletion signals the stream was
// dropped entirely.
func buildLogStreamKey(rootPath, logName string) string {
	return fmt.Sprintf("%s/logs/%s", rootPath, logName)
}
