package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics covers the pricing and billing domain counters.
type Metrics struct {
	invoiceCalculations *prometheus.CounterVec
	invoiceLineItems    *prometheus.HistogramVec
	minimumCharges      *prometheus.CounterVec
	tierFallbacks       *prometheus.CounterVec
	currencyFallbacks   *prometheus.CounterVec
	scheduledRuns       *prometheus.CounterVec
}

// NewMetrics registers the domain collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invoiceCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "pricing",
			Name:      "invoice_calculations_total",
			Help:      "Completed invoice calculations by package.",
		}, []string{"package"}),
		invoiceLineItems: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solara",
			Subsystem: "pricing",
			Name:      "invoice_line_items",
			Help:      "Line item count per calculated invoice.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}, []string{"package"}),
		minimumCharges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "pricing",
			Name:      "minimum_charge_applied_total",
			Help:      "Invoices raised to the contractual minimum charge.",
		}, []string{"package"}),
		tierFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "pricing",
			Name:      "tier_fallback_total",
			Help:      "Quantities priced via fallback because no tier matched.",
		}, []string{"addon"}),
		currencyFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "currency",
			Name:      "fallback_rate_total",
			Help:      "Conversions served from the static fallback rate table.",
		}, []string{"currency"}),
		scheduledRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduler passes by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.invoiceCalculations,
		m.invoiceLineItems,
		m.minimumCharges,
		m.tierFallbacks,
		m.currencyFallbacks,
		m.scheduledRuns,
	)
	return m
}

func (m *Metrics) RecordInvoiceCalculation(packageCode string, lineCount int) {
	m.invoiceCalculations.WithLabelValues(packageCode).Inc()
	m.invoiceLineItems.WithLabelValues(packageCode).Observe(float64(lineCount))
}

func (m *Metrics) RecordMinimumCharge(packageCode string) {
	m.minimumCharges.WithLabelValues(packageCode).Inc()
}

func (m *Metrics) RecordTierFallback(addonCode string) {
	m.tierFallbacks.WithLabelValues(addonCode).Inc()
}

func (m *Metrics) RecordCurrencyFallback(currency string) {
	m.currencyFallbacks.WithLabelValues(currency).Inc()
}

func (m *Metrics) RecordSchedulerRun(outcome string) {
	m.scheduledRuns.WithLabelValues(outcome).Inc()
}

// HTTPMetrics covers the transport-level collectors.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors on the given registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	h := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solara",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solara",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "solara",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		}),
	}

	reg.MustRegister(h.requests, h.duration, h.inflight)
	return h
}

// GinMiddleware records request counts, latency and in-flight gauge.
func (h *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		h.inflight.Inc()
		defer h.inflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		h.requests.WithLabelValues(route, method, status).Inc()
		h.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
