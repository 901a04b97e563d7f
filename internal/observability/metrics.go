package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP server and the sales
// domain.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesRecorded   prometheus.Counter
	salesRevenue    prometheus.Counter
	salesRejected   *prometheus.CounterVec
	chartCache      *prometheus.CounterVec
}

// NewMetrics builds a private registry with the process collectors and the
// application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbook_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockbook_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	recorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockbook_sales_recorded_total",
		Help: "Sales committed together with their stock decrement.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockbook_sales_revenue_total",
		Help: "Sum of sale totals committed.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbook_sales_rejected_total",
		Help: "Sales refused before commit, by reason.",
	}, []string{"reason"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbook_chart_cache_total",
		Help: "Chart cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests, duration, recorded, revenue, rejected, cache,
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		salesRecorded:   recorded,
		salesRevenue:    revenue,
		salesRejected:   rejected,
		chartCache:      cache,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// SaleRecorded counts a committed sale.
func (m *Metrics) SaleRecorded(total float64) {
	if m == nil {
		return
	}
	m.salesRecorded.Inc()
	if total > 0 {
		m.salesRevenue.Add(total)
	}
}

// SaleRejected counts a refused sale.
func (m *Metrics) SaleRejected(reason string) {
	if m == nil {
		return
	}
	m.salesRejected.WithLabelValues(reason).Inc()
}

// ChartCacheLookup counts a cache hit or miss.
func (m *Metrics) ChartCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.chartCache.WithLabelValues(result).Inc()
}

// Registerer exposes the registry for other collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
