// Package metrics holds the Prometheus collectors of the API server and the
// middleware and handler that expose them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cakeworld"

// DefaultRegistry is served on /metrics. Collectors below register with it
// at package init.
var DefaultRegistry = prometheus.NewRegistry()

var factory = promauto.With(DefaultRegistry)

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

// HTTP.
var (
	RequestDuration = histogram("http", "request_duration_seconds",
		"API request latency by route.", prometheus.DefBuckets, "method", "route", "status")
	RequestsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
		Help: "API requests being served.",
	})
)

// Storage and background work.
var (
	DBQueryDuration = histogram("db", "query_duration_seconds",
		"Repository query latency.", []float64{.001, .005, .01, .025, .05, .1, .5, 1}, "operation")
	CacheHits   = counter("cache", "hits_total", "Catalog cache hits.", "driver")
	CacheMisses = counter("cache", "misses_total", "Catalog cache misses.", "driver")
	JobRuns     = counter("schedule", "runs_total", "Scheduled job runs by result.", "job", "result")
)

// Orders.
var (
	OrdersCreated    = counter("orders", "created_total", "Orders accepted.", "delivery_method")
	OrderTransitions = counter("orders", "transitions_total", "Order status changes applied.", "from", "to")
	// reason is invalid_transition, conflict or authorization_denied.
	OrderTransitionsRejected = counter("orders", "transitions_rejected_total", "Order status changes refused.", "reason")
	// Refreshed by the orders:status-gauge job.
	OrdersByStatus = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "orders", Name: "by_status",
		Help: "Orders currently in each status.",
	}, []string{"status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// Middleware times every request under its route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			RequestsInFlight.Inc()
			defer RequestsInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			RequestDuration.
				WithLabelValues(r.Method, route(r), strconv.Itoa(rec.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

// route is the matched chi pattern, e.g. /api/orders/{id}, so order IDs
// never become label values.
func route(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Handler serves DefaultRegistry.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP
}

// ObserveDBQuery is meant to be deferred:
//
//	defer metrics.ObserveDBQuery("select", time.Now())
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
