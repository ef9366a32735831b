// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the Prometheus metrics this service emits:
// ingestion batch throughput/latency and query latency/result counts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bmindex"

// Registry holds every metric this process emits, collected under a
// dedicated prometheus.Registry rather than the global default so
// /metrics never picks up stray collectors from an imported library.
type Registry struct {
	registry *prometheus.Registry

	BatchDocsIndexed *prometheus.CounterVec
	BatchDocsSkipped *prometheus.CounterVec
	BatchDocsFailed  *prometheus.CounterVec
	BatchDuration    *prometheus.HistogramVec
	CommitDuration   *prometheus.HistogramVec

	QueriesTotal   *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	QueryResultLen *prometheus.HistogramVec
}

// New builds a Registry with every collector registered.
func New() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.BatchDocsIndexed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "ingest", Name: "docs_indexed_total",
		Help: "Documents successfully upserted by index_bookmarks_batch.",
	}, []string{"index_name"})

	r.BatchDocsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "ingest", Name: "docs_skipped_total",
		Help: "Documents skipped because their content hash was unchanged.",
	}, []string{"index_name"})

	r.BatchDocsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "ingest", Name: "docs_failed_total",
		Help: "Documents that failed to index within a batch.",
	}, []string{"index_name"})

	r.BatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "ingest", Name: "batch_duration_seconds",
		Help:    "Wall-clock duration of index_bookmarks_batch calls.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"index_name"})

	r.CommitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "store", Name: "commit_duration_seconds",
		Help:    "Duration of Writer.Commit calls against the bleve index.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"index_name"})

	r.QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "search", Name: "queries_total",
		Help: "Total search_fulltext calls.",
	}, []string{"index_name"})

	r.QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "search", Name: "query_duration_seconds",
		Help:    "Duration of search_fulltext calls, including federation fan-out.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"index_name"})

	r.QueryResultLen = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "search", Name: "query_result_count",
		Help:    "Number of hits returned per search_fulltext call.",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"index_name"})

	r.registry.MustRegister(
		r.BatchDocsIndexed, r.BatchDocsSkipped, r.BatchDocsFailed,
		r.BatchDuration, r.CommitDuration,
		r.QueriesTotal, r.QueryDuration, r.QueryResultLen,
	)
	return r
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
