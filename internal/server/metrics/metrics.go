// Package metrics exposes Prometheus counters for the trust boundary:
// rejected credentials, denied farm access and HTTP request latency.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmkeeper"

// Transport label values.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

type Metrics struct {
	registry        *prometheus.Registry
	authFailures    *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New builds a private registry with the farmkeeper collectors plus the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Requests rejected for a missing, invalid or expired bearer token.",
		}, []string{"transport"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Authenticated requests refused for lack of farm membership.",
		}, []string{"transport"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		m.authFailures,
		m.accessDenied,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) AuthFailed(transport string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(transport).Inc()
}

func (m *Metrics) AccessDenied(transport string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(transport).Inc()
}

// InstrumentRoute wraps next so its latency is recorded under route.
func (m *Metrics) InstrumentRoute(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	obs := m.requestDuration.MustCurryWith(prometheus.Labels{"route": route})
	return promhttp.InstrumentHandlerDuration(obs, next)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
