// Package telemetry holds the Prometheus collectors of the clinic server.
// A nil *Metrics is valid and records nothing, so domain services can be
// built without it in tests.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinic"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	assetResolutionFailures prometheus.Counter
	consentTransitions      *prometheus.CounterVec
	stockDebits             *prometheus.CounterVec
	reconciliationRequired  *prometheus.CounterVec
	postingsCreated         *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		assetResolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_resolution_failures_total",
			Help:      "Media previews that could not be resolved to an access URL.",
		}),
		consentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consent_transitions_total",
			Help:      "Consent document transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		stockDebits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_debits_total",
			Help:      "Inventory debit attempts by outcome.",
		}, []string{"outcome"}),
		reconciliationRequired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_required_total",
			Help:      "Partially applied operations that need manual reconciliation.",
		}, []string{"operation"}),
		postingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_created_total",
			Help:      "Financial postings created by direction.",
		}, []string{"direction"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.assetResolutionFailures,
		m.consentTransitions,
		m.stockDebits,
		m.reconciliationRequired,
		m.postingsCreated,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latencies keyed by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) AssetResolutionFailed() {
	if m == nil {
		return
	}
	m.assetResolutionFailures.Inc()
}

func (m *Metrics) ConsentTransition(operation string, err error) {
	if m == nil {
		return
	}
	m.consentTransitions.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) StockDebit(err error) {
	if m == nil {
		return
	}
	m.stockDebits.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ReconciliationRequired(operation string) {
	if m == nil {
		return
	}
	m.reconciliationRequired.WithLabelValues(operation).Inc()
}

func (m *Metrics) PostingsCreated(direction string, n int) {
	if m == nil {
		return
	}
	m.postingsCreated.WithLabelValues(direction).Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
