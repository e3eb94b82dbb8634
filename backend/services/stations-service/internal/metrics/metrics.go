// Package metrics exposes Prometheus instruments for stations-service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	StartRejections   *prometheus.CounterVec
	NearbyQueries     *prometheus.CounterVec
	NearbyCache       *prometheus.CounterVec
	EventFailures     *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "sessions_started_total",
			Help:      "Charging sessions started.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "sessions_completed_total",
			Help:      "Charging sessions completed.",
		}),
		StartRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "session_start_rejections_total",
			Help:      "Rejected session starts by reason.",
		}, []string{"reason"}),
		NearbyQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "nearby_queries_total",
			Help:      "Nearby station searches by outcome.",
		}, []string{"outcome"}),
		NearbyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "nearby_cache_total",
			Help:      "Nearby cache lookups by result: hit, miss, or stale when a result was dropped because stations changed while it was computed.",
		}, []string{"result"}),
		EventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chargemap",
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be delivered to at least one publisher.",
		}, []string{"type"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chargemap",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.SessionsCompleted,
		m.StartRejections,
		m.NearbyQueries,
		m.NearbyCache,
		m.EventFailures,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
