// Package metrics holds the prometheus collectors of the estimate API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the reimbursement API.
type Metrics struct {
	registry *prometheus.Registry

	// Calculations by era and sector
	Calculations *prometheus.CounterVec

	// Reimbursed CHF by era
	ReimbursedCHF *prometheus.CounterVec

	// Request latency by route and status
	RequestDuration *prometheus.HistogramVec
}

// New creates a Metrics instance on its own registry, so several servers
// (and tests) can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mineraltax_calculations_total",
			Help: "Total reimbursement calculations by era and sector",
		}, []string{"era", "sector"}),

		ReimbursedCHF: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mineraltax_reimbursed_chf_total",
			Help: "Sum of computed reimbursement amounts in CHF by era",
		}, []string{"era"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mineraltax_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementCalculation records one computed line.
func (m *Metrics) IncrementCalculation(era, sector string, amountCHF float64) {
	if m != nil {
		m.Calculations.WithLabelValues(era, sector).Inc()
		if amountCHF > 0 {
			m.ReimbursedCHF.WithLabelValues(era).Add(amountCHF)
		}
	}
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
