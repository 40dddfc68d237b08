// Package metrics defines the Prometheus collectors used by the builder, the
// searcher and the HTTP layer, and exposes a handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bse"

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing; the helper methods check for it.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	BuildFilesTotal      *prometheus.CounterVec
	BuildTokensTotal     prometheus.Counter
	BuildDuration        prometheus.Histogram
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	gatherer             prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),
		BuildFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_files_total",
				Help:      "Files seen by the index builder by outcome (indexed, skipped, failed).",
			},
			[]string{"status"},
		),
		BuildTokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_tokens_total",
				Help:      "Normalized tokens inserted into the posting stores.",
			},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Wall time of complete index builds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_queries_total",
				Help:      "Search queries by index and result (hit, empty, parse_error, error).",
			},
			[]string{"index", "result"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_latency_seconds",
				Help:      "Search query latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"index"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results_count",
				Help:      "Number of documents matched per search query.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of result cache misses.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.BuildFilesTotal,
		m.BuildTokensTotal,
		m.BuildDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	return m
}

func (m *Metrics) FileIndexed() {
	if m != nil {
		m.BuildFilesTotal.WithLabelValues("indexed").Inc()
	}
}

func (m *Metrics) FileSkipped() {
	if m != nil {
		m.BuildFilesTotal.WithLabelValues("skipped").Inc()
	}
}

func (m *Metrics) FileFailed() {
	if m != nil {
		m.BuildFilesTotal.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) TokensAdded(n int) {
	if m != nil && n > 0 {
		m.BuildTokensTotal.Add(float64(n))
	}
}

func (m *Metrics) BuildFinished(seconds float64) {
	if m != nil {
		m.BuildDuration.Observe(seconds)
	}
}

// SearchObserved records one query against indexName.
func (m *Metrics) SearchObserved(indexName, result string, seconds float64, matched int) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(indexName, result).Inc()
	m.SearchLatency.WithLabelValues(indexName).Observe(seconds)
	if result == "hit" || result == "empty" {
		m.SearchResultsCount.Observe(float64(matched))
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHitsTotal.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMissesTotal.Inc()
	}
}

// Handler serves the registry the metrics were registered with, or the
// default registry when that registry cannot be gathered.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
