// Package metrics provides Prometheus instrumentation.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple binaries never
// collide on the default one. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	passesTotal     *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	recordsByStatus *prometheus.GaugeVec
	matchesTotal    *prometheus.CounterVec
	anomaliesTotal  *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		passesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_reconcile_passes_total",
				Help: "Total number of reconciliation passes",
			},
			[]string{"trigger", "outcome"},
		),
		passDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_reconcile_pass_duration_seconds",
				Help:    "Duration of reconciliation passes in seconds, ledger reads included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		recordsByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crm_reconcile_records",
				Help: "Customers per integrity status in the last pass",
			},
			[]string{"status"},
		),
		matchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_reconcile_matches_total",
				Help: "Total number of customers matched to an appointment, by method",
			},
			[]string{"method"},
		),
		anomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_reconcile_anomalies_total",
				Help: "Total number of unknown intent or appointment status values seen",
			},
			[]string{"field"},
		),
		sourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_ledger_unavailable_total",
				Help: "Total number of failed ledger reads",
			},
			[]string{"source"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
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

// ObservePass records one finished pass.
func (m *Metrics) ObservePass(trigger string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.passesTotal.WithLabelValues(trigger, outcome).Inc()
	m.passDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())
}

// SetStatusCounts replaces the per-status gauges with the last pass.
func (m *Metrics) SetStatusCounts(counts map[string]int) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.recordsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// AddMatches counts matched customers for method.
func (m *Metrics) AddMatches(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matchesTotal.WithLabelValues(method).Add(float64(n))
}

// IncAnomaly counts one unknown value of field.
func (m *Metrics) IncAnomaly(field string) {
	if m == nil {
		return
	}
	m.anomaliesTotal.WithLabelValues(field).Inc()
}

// IncSourceFailure counts one failed read of source.
func (m *Metrics) IncSourceFailure(source string) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(source).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
