// Package metrics exposes Prometheus metrics for payroll calculations.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/csg33k/paytax/internal/engine"
)

const namespace = "paytax"

// Outcome labels for the calculations counter.
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeConfiguration = "configuration"
	OutcomeError         = "error"
)

// Outcome classifies a calculation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, engine.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, engine.ErrConfiguration):
		return OutcomeConfiguration
	}
	return OutcomeError
}

type Metrics struct {
	registry *prometheus.Registry

	calculations    *prometheus.CounterVec
	calculationTime prometheus.Histogram
	batchSize       prometheus.Histogram
	tablesSource    *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		calculations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Payroll calculations by outcome.",
		}, []string{"outcome"}),
		calculationTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent computing one pay period.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_entries",
			Help:      "Entries per batch run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		tablesSource: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tax_tables_info",
			Help:      "Loaded tax years; 1 for the source each year was read from.",
		}, []string{"tax_year", "source"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveCalculation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.calculationTime.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveBatch(entries int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(entries))
}

func (m *Metrics) SetTablesSource(taxYear, source string) {
	if m == nil {
		return
	}
	m.tablesSource.WithLabelValues(taxYear, source).Set(1)
}

func (m *Metrics) ObserveHTTP(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Handler serves the private registry. A nil receiver serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
