package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	billsCreated   prometheus.Counter
	billsEdited    prometheus.Counter
	billsFailed    *prometheus.CounterVec
	lowStockAlerts *prometheus.CounterVec
}

// New registers the domain instruments on the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		billsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_bills_created_total",
			Help: "Number of bills committed by the billing engine.",
		}),
		billsEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_bills_edited_total",
			Help: "Number of bill edits committed by the billing engine.",
		}),
		billsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_bill_transactions_failed_total",
			Help: "Number of bill transactions rolled back, by reason.",
		}, []string{"reason"}),
		lowStockAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_low_stock_alerts_total",
			Help: "Number of low-stock alerts emitted after commit.",
		}, []string{"product"}),
	}

	for _, c := range []prometheus.Collector{m.billsCreated, m.billsEdited, m.billsFailed, m.lowStockAlerts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordBillCreated() {
	if m == nil {
		return
	}
	m.billsCreated.Inc()
}

func (m *Metrics) RecordBillEdited() {
	if m == nil {
		return
	}
	m.billsEdited.Inc()
}

func (m *Metrics) RecordBillFailed(reason string) {
	if m == nil {
		return
	}
	m.billsFailed.WithLabelValues(strings.TrimSpace(reason)).Inc()
}

func (m *Metrics) RecordLowStockAlert(product string) {
	if m == nil {
		return
	}
	m.lowStockAlerts.WithLabelValues(strings.TrimSpace(product)).Inc()
}

// HTTPMetrics instruments inbound HTTP requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the given registerer.
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	h := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_http_requests_total",
			Help: "Number of HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tally_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{h.requests, h.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// GinMiddleware records request counts and latencies.
func GinMiddleware(h *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		h.requests.WithLabelValues(method, route, status).Inc()
		h.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
