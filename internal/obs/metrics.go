package obs

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors of the server.
type Metrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec

	// QuotesTotal counts quote computations by result (priced, unpriceable).
	QuotesTotal *prometheus.CounterVec
	// SalesTotal counts checkouts by result (ok, insufficient_stock, error).
	SalesTotal *prometheus.CounterVec
	// SalesRevenue sums the revenue of recorded sales.
	SalesRevenue prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg, reusing collectors
// that are already registered. A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "route"}),
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of quote computations by result.",
		}, []string{"result"}),
		SalesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Count of checkouts by result.",
		}, []string{"result"}),
		SalesRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_revenue_total",
			Help:      "Revenue of recorded sales, shipping included.",
		}),
	}

	mustRegister(reg, m.ReqTotal, func(c prometheus.Collector) { m.ReqTotal = c.(*prometheus.CounterVec) })
	mustRegister(reg, m.ReqDur, func(c prometheus.Collector) { m.ReqDur = c.(*prometheus.HistogramVec) })
	mustRegister(reg, m.QuotesTotal, func(c prometheus.Collector) { m.QuotesTotal = c.(*prometheus.CounterVec) })
	mustRegister(reg, m.SalesTotal, func(c prometheus.Collector) { m.SalesTotal = c.(*prometheus.CounterVec) })
	mustRegister(reg, m.SalesRevenue, func(c prometheus.Collector) { m.SalesRevenue = c.(prometheus.Counter) })
	return m
}

func mustRegister(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reuse(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}

// ObserveQuote counts a computed quote.
func (m *Metrics) ObserveQuote(priced bool) {
	if m == nil {
		return
	}
	result := "priced"
	if !priced {
		result = "unpriceable"
	}
	m.QuotesTotal.WithLabelValues(result).Inc()
}

// ObserveSale counts a checkout outcome and adds revenue for successful ones.
func (m *Metrics) ObserveSale(result string, revenue float64) {
	if m == nil {
		return
	}
	m.SalesTotal.WithLabelValues(result).Inc()
	if result == "ok" && revenue > 0 {
		m.SalesRevenue.Add(revenue)
	}
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := routePattern(r)
		if route == "" {
			route = "unknown"
		}
		m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.Status())).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	})
}
