// Package metrics exposes prometheus metrics for the station server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "radio"

// Metrics holds the server collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	NowPlayingTotal    *prometheus.CounterVec
	SkipsTotal         *prometheus.CounterVec
	LoginsTotal        *prometheus.CounterVec
	CatalogChanges     *prometheus.CounterVec
	ProjectionSeconds  prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIActiveRequests  prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		NowPlayingTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "now_playing_requests_total",
			Help:      "Schedule queries by station and outcome.",
		}, []string{"station", "result"}),
		SkipsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Skip requests by station and outcome.",
		}, []string{"station", "result"}),
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by outcome.",
		}, []string{"result"}),
		CatalogChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_changes_total",
			Help:      "Catalog mutations by operation.",
		}, []string{"op"}),
		ProjectionSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "Time to load inputs and project a snapshot.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by outcome.",
		}, []string{"result"}),
		APIRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		APIRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		APIActiveRequests: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Requests currently being served.",
		}),
	}
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveNowPlaying records a schedule query.
func (m *Metrics) ObserveNowPlaying(station, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.NowPlayingTotal.WithLabelValues(station, result).Inc()
	m.ProjectionSeconds.Observe(took.Seconds())
}

// ObserveSkip records a skip request.
func (m *Metrics) ObserveSkip(station, result string) {
	if m == nil {
		return
	}
	m.SkipsTotal.WithLabelValues(station, result).Inc()
}

// ObserveLogin records a login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// ObserveCatalogChange records a catalog mutation.
func (m *Metrics) ObserveCatalogChange(op string) {
	if m == nil {
		return
	}
	m.CatalogChanges.WithLabelValues(op).Inc()
}

// ObserveCacheLookup records a catalog cache hit, miss or error.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
