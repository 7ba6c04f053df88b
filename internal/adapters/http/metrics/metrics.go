// Package metrics holds the Prometheus instruments for requests, queries and document generation.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goaliegen"

// Metrics is one registry and the instruments registered on it.
// Each instance owns its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	QueryDuration       *prometheus.HistogramVec
	SlowQueries         prometheus.Counter
	DocumentsGenerated  *prometheus.CounterVec
	DocumentDuration    *prometheus.HistogramVec
	DocumentBytes       *prometheus.HistogramVec
	Downloads           *prometheus.CounterVec
	AnalyticsEvents     *prometheus.CounterVec
	OpenModals          prometheus.Gauge
}

// New registers all instruments plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database call duration in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		SlowQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "slow_queries_total",
			Help:      "Database calls slower than the configured threshold",
		}),
		DocumentsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "generated_total",
			Help:      "Document generation attempts by kind and outcome",
		}, []string{"kind", "status"}),
		DocumentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "generation_duration_seconds",
			Help:      "Time spent assembling a document",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		DocumentBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "size_bytes",
			Help:      "Size of generated documents",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 8),
		}, []string{"kind"}),
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "downloads_total",
			Help:      "Artifacts and materials handed to the browser",
		}, []string{"kind"}),
		AnalyticsEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_total",
			Help:      "Analytics events by name and outcome",
		}, []string{"name", "status"}),
		OpenModals: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "modal",
			Name:      "open",
			Help:      "Modals currently held in memory",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CountEvent counts one analytics event outcome.
func (m *Metrics) CountEvent(name, status string) {
	m.AnalyticsEvents.WithLabelValues(name, status).Inc()
}

// DocumentGenerated records one assembly attempt. size is ignored for failures.
func (m *Metrics) DocumentGenerated(kind, status string, d time.Duration, size int) {
	m.DocumentsGenerated.WithLabelValues(kind, status).Inc()
	m.DocumentDuration.WithLabelValues(kind).Observe(d.Seconds())
	if status == "ok" {
		m.DocumentBytes.WithLabelValues(kind).Observe(float64(size))
	}
}

// Downloaded counts one artifact or material handed to the browser.
func (m *Metrics) Downloaded(kind string) {
	m.Downloads.WithLabelValues(kind).Inc()
}

// Route collapses per-instance path segments so label cardinality stays bounded.
// "/modals/3f1c.../download" becomes "/modals/{id}/download".
func Route(path string) string {
	if strings.HasPrefix(path, "/materials/") {
		return "/materials/{file}"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
