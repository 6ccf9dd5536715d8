// Copyright 2025 Poiesic Systems
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

// Package metrics holds the Prometheus collectors for ingestion runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scrubdex"

// Document outcome label values.
const (
	OutcomeIndexed = "indexed"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Pipeline metrics.
var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by outcome",
		},
		[]string{"outcome"},
	)

	ListingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_errors_total",
			Help:      "Container listings that failed during traversal",
		},
	)

	SegmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Text segments extracted",
		},
	)

	RedactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redactions_total",
			Help:      "Spans replaced, by rule",
		},
		[]string{"rule"},
	)

	IndexFlushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_flushes_total",
			Help:      "Batches appended to the search index",
		},
	)

	IndexVectors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_vectors",
			Help:      "Vectors appended to the search index in this process",
		},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	DocumentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time to take one document from download to index",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DocumentsTotal,
			ListingErrorsTotal,
			SegmentsTotal,
			RedactionsTotal,
			IndexFlushesTotal,
			IndexVectors,
			EmbeddingCacheTotal,
			DocumentDuration,
		)
	})
}

// ObserveRedactions counts replacements made by one rule.
func ObserveRedactions(rule string, n int) {
	RedactionsTotal.WithLabelValues(rule).Add(float64(n))
}

// ObserveFlush counts one batch of n vectors.
func ObserveFlush(n int) {
	IndexFlushesTotal.Inc()
	IndexVectors.Add(float64(n))
}

// ObserveCache counts an embedding cache lookup.
func ObserveCache(hit bool) {
	if hit {
		EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	EmbeddingCacheTotal.WithLabelValues("miss").Inc()
}
