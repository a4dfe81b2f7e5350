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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/dlreader/readahead/common/config"
	"github.com/dlreader/readahead/common/etcd"
	"github.com/dlreader/readahead/common/logger"
	"github.com/dlreader/readahead/common/metrics"
	netutil "github.com/dlreader/readahead/common/net"
	"github.com/dlreader/readahead/meta"
	"github.com/dlreader/readahead/meta/etcdsource"
	"github.com/dlreader/readahead/readahead"
	"github.com/dlreader/readahead/store/grpcstore"
)

func main() {
	var (
		configFile       = flag.String("config", "", "Configuration file path")
		logName          = flag.String("log", "", "Name of the log stream to tail")
		fromSeg          = flag.Uint64("from-seg", 0, "Segment sequence number to start from")
		fromEntry        = flag.Int64("from-entry", 0, "Entry id within the starting segment")
		storeTarget      = flag.String("store-target", "", "host:port of the entry store node serving every segment (single-node deployments)")
		advertiseAddr    = flag.String("advertise-addr", "", "address to report in logs; resolved from the local interface if empty")
		embedEtcdConfig  = flag.String("embed-etcd-config", "", "embedded etcd config file (only used when etcd.use.embed is set)")
		embedEtcdDataDir = flag.String("embed-etcd-data-dir", "./etcd-data", "embedded etcd data directory (only used when etcd.use.embed is set)")
	)
	flag.Parse()

	if *logName == "" {
		log.Fatal("Usage: tail -log=<name> [-config=<file>] [-from-seg=N] [-from-entry=N] [-store-target=host:port]")
	}

	var files []string
	if *configFile != "" {
		files = append(files, *configFile)
	}
	cfg, err := config.NewConfiguration(files...)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger.InitLogger(cfg)

	if cfg.Metrics.Enabled {
		metrics.RegisterReaderMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := ":" + strconv.Itoa(cfg.Metrics.Port)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Ctx(context.Background()).Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ip := netutil.GetIP(*advertiseAddr)
	logger.Ctx(context.Background()).Info("starting tail", zap.String("log", *logName), zap.String("advertiseAddr", ip))

	var etcdClient *clientv3.Client
	if cfg.Etcd.Use.Embed {
		if err := etcd.InitEtcdServer(true, *embedEtcdConfig, *embedEtcdDataDir, cfg.Etcd.Log.Path, cfg.Etcd.Log.Level); err != nil {
			log.Fatalf("failed to start embedded etcd server: %v", err)
		}
		defer etcd.StopEtcdServer()
		etcdClient, err = etcd.GetEmbedEtcdClient()
		if err != nil {
			log.Fatalf("failed to get embedded etcd client: %v", err)
		}
	} else {
		etcdClient, err = clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.GetEndpoints(),
			DialTimeout: time.Duration(cfg.Etcd.RequestTimeout) * time.Second,
		})
		if err != nil {
			log.Fatalf("failed to connect to etcd: %v", err)
		}
	}
	defer etcdClient.Close()

	metaSrc := etcdsource.NewSource(etcdClient, cfg.Etcd.RootPath, *logName)

	resolver := func(segment *meta.LogSegmentMetadata) (string, error) {
		if *storeTarget == "" {
			return "", fmt.Errorf("no entry store target configured for segment %d", segment.SegSeqNo)
		}
		return *storeTarget, nil
	}
	entryStore := grpcstore.NewStore(*logName, cfg.Store, resolver)
	defer entryStore.Close()

	initialList, err := metaSrc.ReadLogSegmentsFromStore(ctx, meta.BySegSeqNo, meta.AllSegments)
	if err != nil {
		log.Fatalf("failed to read initial segment list: %v", err)
	}

	r := readahead.New(ctx, *logName, entryStore, metaSrc, cfg.Reader)
	if err := r.Start(ctx, meta.DLSN{SegSeqNo: *fromSeg, EntryId: *fromEntry}, initialList); err != nil {
		log.Fatalf("failed to start reader: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			entry, err := r.GetNextReadAheadEntry(cfg.Reader.IdleWarnThreshold.Duration.Duration())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Ctx(ctx).Warn("stopped tailing", zap.Error(err))
				return
			}
			fmt.Printf("%d:%d %s\n", entry.SegSeqNo, entry.EntryId, entry.Payload)
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	select {
	case <-r.AsyncClose():
	case <-closeCtx.Done():
		log.Println("timed out waiting for reader to close")
	}
}
