// Package metrics exposes Prometheus collectors for the ingestion and
// retrieval pipeline. A nil *Metrics is valid everywhere and records
// nothing, so instrumentation stays optional.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	documentsIngested  prometheus.Counter
	chunksIndexed      prometheus.Counter
	generationFailures prometheus.Counter
	embeddingDuration  prometheus.Histogram
	searchDuration     prometheus.Histogram
}

// New creates a metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		documentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctalk_documents_ingested_total",
			Help: "Documents successfully ingested into the index.",
		}),
		chunksIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctalk_chunks_indexed_total",
			Help: "Chunks inserted into the vector index.",
		}),
		generationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctalk_generation_failures_total",
			Help: "Answer generation calls that fell back to the error response.",
		}),
		embeddingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "doctalk_embedding_duration_seconds",
			Help:    "Time spent in embedding provider calls.",
			Buckets: prometheus.DefBuckets,
		}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "doctalk_search_duration_seconds",
			Help:    "Time spent in vector index searches.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AddDocuments records successfully ingested documents.
func (m *Metrics) AddDocuments(n int) {
	if m == nil {
		return
	}
	m.documentsIngested.Add(float64(n))
}

// AddChunks records chunks inserted into the index.
func (m *Metrics) AddChunks(n int) {
	if m == nil {
		return
	}
	m.chunksIndexed.Add(float64(n))
}

// IncGenerationFailure records a generation call that degraded to the
// fallback answer.
func (m *Metrics) IncGenerationFailure() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}

// ObserveEmbedding records the duration of an embedding call.
func (m *Metrics) ObserveEmbedding(d time.Duration) {
	if m == nil {
		return
	}
	m.embeddingDuration.Observe(d.Seconds())
}

// ObserveSearch records the duration of an index search.
func (m *Metrics) ObserveSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
}
