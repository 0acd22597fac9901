package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry with the service's collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	commitActions   *prometheus.CounterVec
	cascadeSize     prometheus.Histogram
	snapshotLookups *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgchart",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orgchart",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgchart",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Failed requests by route, method and error code.",
		}, []string{"route", "method", "code"}),
		commitActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgchart",
			Subsystem: "ledger",
			Name:      "commit_actions_total",
			Help:      "Commit actions recorded by kind and target.",
		}, []string{"action", "target_kind"}),
		cascadeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orgchart",
			Subsystem: "ledger",
			Name:      "cascade_teams",
			Help:      "Teams deactivated per cascade.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		snapshotLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgchart",
			Subsystem: "snapshot",
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
		m.errors,
		m.commitActions,
		m.cascadeSize,
		m.snapshotLookups,
	)
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordCommitAction counts one appended commit action.
func (m *Metrics) RecordCommitAction(action, targetKind string) {
	if m == nil {
		return
	}
	m.commitActions.WithLabelValues(action, targetKind).Inc()
}

// ObserveCascade records how many teams one deactivation switched off.
func (m *Metrics) ObserveCascade(teams int) {
	if m == nil {
		return
	}
	m.cascadeSize.Observe(float64(teams))
}

// RecordSnapshotLookup counts a cache lookup; result is hit, miss or error.
func (m *Metrics) RecordSnapshotLookup(result string) {
	if m == nil {
		return
	}
	m.snapshotLookups.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
