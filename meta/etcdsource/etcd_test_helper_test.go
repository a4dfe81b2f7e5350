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

import (
	"net"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

var (
	embeddedOnce   sync.Once
	embeddedServer *embed.Etcd
	embeddedClient *clientv3.Client
)

// newEmbeddedClient starts (once per test binary) a single-node embedded
// etcd server on free loopback ports and returns a client bound to it. All
// tests in this package share the instance; each test uses its own
// logName/rootPath so there is no key collision.
func newEmbeddedClient(t *testing.T) *clientv3.Client {
	t.Helper()
	embeddedOnce.Do(func() {
		cfg := embed.NewConfig()
		cfg.Dir = t.TempDir()
		cfg.LogLevel = "error"
		clientURL := freeLoopbackURL(t)
		peerURL := freeLoopbackURL(t)
		cfg.LCUrls = []url.URL{*clientURL}
		cfg.ACUrls = []url.URL{*clientURL}
		cfg.LPUrls = []url.URL{*peerURL}
		cfg.APUrls = []url.URL{*peerURL}
		cfg.InitialCluster = "default=" + peerURL.String()

		e, err := embed.StartEtcd(cfg)
		require.NoError(t, err)
		select {
		case <-e.Server.ReadyNotify():
		case err := <-e.Err():
			t.Fatalf("embedded etcd failed to start: %v", err)
		}
		embeddedServer = e

		client, err := clientv3.New(clientv3.Config{Endpoints: []string{clientURL.String()}})
		require.NoError(t, err)
		embeddedClient = client
	})
	t.Cleanup(func() {})
	return embeddedClient
}

func freeLoopbackURL(t *testing.T) *url.URL {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	u, err := url.Parse("http://" + addr)
	require.NoError(t, err)
	return u
}
