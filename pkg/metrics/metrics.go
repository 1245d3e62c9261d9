// Package metrics defines the Prometheus collectors of the query engine and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	QueriesTotal     *prometheus.CounterVec
	QueryLatency     *prometheus.HistogramVec
	SegmentsSearched prometheus.Counter
	DocsScored       prometheus.Counter
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal prometheus.Counter
	BoostRulesLoaded prometheus.Gauge
	EventsPublished  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. When reg is nil a
// fresh registry is used.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querycore_queries_total",
				Help: "Total queries by operation (search, count, explain) and outcome (ok, zero_result, error).",
			},
			[]string{"operation", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "querycore_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation"},
		),
		SegmentsSearched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "querycore_segments_searched_total",
				Help: "Total segment scorers driven to completion.",
			},
		),
		DocsScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "querycore_docs_scored_total",
				Help: "Total live documents scored.",
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querycore_cache_hits_total",
				Help: "Total result cache hits by tier (local, remote).",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "querycore_cache_misses_total",
				Help: "Total result cache misses.",
			},
		),
		BoostRulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "querycore_boost_rules_loaded",
				Help: "Number of boost rules currently installed.",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querycore_search_events_total",
				Help: "Search analytics events by status (published, dropped, failed).",
			},
			[]string{"status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.SegmentsSearched,
		m.DocsScored,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.BoostRulesLoaded,
		m.EventsPublished,
	)
	return m
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation, outcome).Inc()
	m.QueryLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveSegment records one searched segment and the docs it scored.
func (m *Metrics) ObserveSegment(docsScored int) {
	if m == nil {
		return
	}
	m.SegmentsSearched.Inc()
	m.DocsScored.Add(float64(docsScored))
}

func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) SetBoostRules(n int) {
	if m == nil {
		return
	}
	m.BoostRulesLoaded.Set(float64(n))
}

func (m *Metrics) Event(status string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus scrape HTTP handler for m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
