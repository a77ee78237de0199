// Package metrics exposes Prometheus instrumentation for the query
// pipeline. A nil *Metrics is valid and records nothing, so wiring metrics
// stays optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
	rerankTotal   *prometheus.CounterVec
	retrievedDocs prometheus.Histogram
	stageDuration *prometheus.HistogramVec
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "legalrag_queries_total",
			Help: "Queries processed, by terminal status.",
		}, []string{"status"}),
		cacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "legalrag_cache_total",
			Help: "Response cache lookups, by result.",
		}, []string{"result"}),
		rerankTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "legalrag_rerank_total",
			Help: "Rerank attempts, by outcome.",
		}, []string{"outcome"}),
		retrievedDocs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "legalrag_retrieval_documents",
			Help:    "Documents retained after deduplication, per query.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15},
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "legalrag_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// QueryCompleted counts a query by terminal status ("ok", "no_data",
// "embedding_error", "generation_error", "config_error").
func (m *Metrics) QueryCompleted(status string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(status).Inc()
}

// CacheLookup counts a cache probe ("hit" or "miss").
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// RerankOutcome counts a rerank attempt ("applied" or "degraded").
func (m *Metrics) RerankOutcome(outcome string) {
	if m == nil {
		return
	}
	m.rerankTotal.WithLabelValues(outcome).Inc()
}

// DocumentsRetrieved records the deduplicated hit count for one query.
func (m *Metrics) DocumentsRetrieved(n int) {
	if m == nil {
		return
	}
	m.retrievedDocs.Observe(float64(n))
}

// ObserveStage records one pipeline stage's latency.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
