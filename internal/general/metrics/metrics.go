// Package metrics exposes the per-service Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeAck      = "ack"
	OutcomeRejected = "rejected"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
	OutcomeLimited  = "rate_limited"
)

// Metrics bundles the collectors of one service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	ingress    *prometheus.CounterVec
	detached   *prometheus.CounterVec
	outbound   *prometheus.CounterVec
	provider   *prometheus.CounterVec
	providerRT *prometheus.HistogramVec
}

// New registers all collectors for service.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,
		ingress: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nd_ingress_requests_total",
			Help:        "Inbound stage calls by method and outcome.",
			ConstLabels: labels,
		}, []string{"method", "outcome"}),
		detached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nd_detached_tasks_total",
			Help:        "Detached background tasks by name and outcome.",
			ConstLabels: labels,
		}, []string{"task", "outcome"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nd_outbound_calls_total",
			Help:        "Calls to the next stage by target, method and outcome.",
			ConstLabels: labels,
		}, []string{"target", "method", "outcome"}),
		provider: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nd_provider_requests_total",
			Help:        "Requests to external data providers.",
			ConstLabels: labels,
		}, []string{"provider", "outcome"}),
		providerRT: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nd_provider_request_duration_seconds",
			Help:        "Latency of external data provider requests.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.ingress, m.detached, m.outbound, m.provider, m.providerRT,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Ingress(method, outcome string) {
	if m == nil {
		return
	}
	m.ingress.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) Detached(task, outcome string) {
	if m == nil {
		return
	}
	m.detached.WithLabelValues(task, outcome).Inc()
}

func (m *Metrics) Outbound(target, method, outcome string) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(target, method, outcome).Inc()
}

// Provider records one provider round trip.
func (m *Metrics) Provider(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.provider.WithLabelValues(provider, outcome).Inc()
	m.providerRT.WithLabelValues(provider).Observe(took.Seconds())
}
