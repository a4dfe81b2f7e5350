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

// Package metrics exposes the reader's Prometheus gauges and counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const readerNamespace = "dlreader"

var (
	registerOnce sync.Once

	// ReadAheadCacheSize is the current number of entries buffered ahead of the consumer.
	ReadAheadCacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: readerNamespace,
			Name:      "readahead_cache_size",
			Help:      "Number of entries currently buffered in the read-ahead cache.",
		},
		[]string{"log_name"},
	)

	// PauseResumeTotal counts read-ahead pause/resume transitions driven by cache backpressure.
	PauseResumeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: readerNamespace,
			Name:      "readahead_pause_resume_total",
			Help:      "Count of read-ahead pause/resume transitions, labeled by transition direction.",
		},
		[]string{"log_name", "transition"},
	)

	// CatchUpTransitionsTotal counts how many times a read-ahead reader has flipped from catching up to caught up.
	CatchUpTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: readerNamespace,
			Name:      "readahead_catchup_transitions_total",
			Help:      "Count of read-ahead reader transitions from catching up to caught up.",
		},
		[]string{"log_name"},
	)

	// IdleTriggeredRefreshTotal counts metadata refreshes forced by the idle detector.
	IdleTriggeredRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: readerNamespace,
			Name:      "readahead_idle_triggered_refresh_total",
			Help:      "Count of metadata refreshes forced because the consumer appeared stuck.",
		},
		[]string{"log_name"},
	)

	// ReconciliationTotal counts metadata reconciliation passes, labeled by outcome.
	ReconciliationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: readerNamespace,
			Name:      "readahead_reconciliation_total",
			Help:      "Count of metadata reconciliation passes, labeled by outcome (initialize, initialize_deferred, reinitialize, reinitialize_noop, move_to_next, prefetch_next, truncated_position_alert).",
		},
		[]string{"log_name", "outcome"},
	)

	// ReadAheadEntryLatencySeconds measures the time from segment read request to entry delivery into the cache.
	ReadAheadEntryLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: readerNamespace,
			Name:      "readahead_entry_latency_seconds",
			Help:      "Latency between issuing a segment ReadNext and the entry landing in the read-ahead cache.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"log_name"},
	)
)

// RegisterReaderMetricsWithRegisterer registers every reader metric exactly
// once, against the supplied registerer (a test may pass a fresh one).
func RegisterReaderMetricsWithRegisterer(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			ReadAheadCacheSize,
			PauseResumeTotal,
			CatchUpTransitionsTotal,
			IdleTriggeredRefreshTotal,
			ReconciliationTotal,
			ReadAheadEntryLatencySeconds,
		)
	})
}

// RegisterReaderMetrics registers every reader metric against the default registry.
func RegisterReaderMetrics() {
	RegisterReaderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}
