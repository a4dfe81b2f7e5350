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

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/dlreader/readahead/common/werr"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// connPool keeps one lazily-dialed *grpc.ClientConn per target, mirroring
// the teacher's logStoreClientPool but without a generated stub layer: all
// calls go through ClientConn.Invoke directly.
type connPool struct {
	mu          sync.RWMutex
	connections map[string]*grpc.ClientConn
}

func newConnPool() *connPool {
	return &connPool{connections: make(map[string]*grpc.ClientConn)}
}

func (p *connPool) get(target string) (*grpc.ClientConn, error) {
	p.mu.RLock()
	cnx, ok := p.connections[target]
	p.mu.RUnlock()
	if ok {
		return cnx, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cnx, ok = p.connections[target]; ok {
		return cnx, nil
	}

	cnx, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, werr.ErrConnect.WithCauseErr(err)
	}
	p.connections[target] = cnx
	return cnx, nil
}

func (p *connPool) clear(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cnx, ok := p.connections[target]; ok {
		_ = cnx.Close()
		delete(p.connections, target)
	}
}

func (p *connPool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for target, cnx := range p.connections {
		_ = cnx.Close()
		delete(p.connections, target)
	}
}

func invoke(ctx context.Context, cnx *grpc.ClientConn, method string, req, resp interface{}) error {
	if err := cnx.Invoke(ctx, method, req, resp); err != nil {
		return werr.ErrEntryStoreRead.WithCauseErr(err)
	}
	return nil
}
