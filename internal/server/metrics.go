package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// labelHandler partitions HTTP metrics by logical endpoint name rather
// than the raw URL path.
const labelHandler = "handler"

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New so that tests can inject a fresh
// prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// translateRequestsTotal counts finished translations, partitioned by
	// outcome: "ok", "passthrough", "timeout" or "error".
	translateRequestsTotal *prometheus.CounterVec

	// translateDurationSeconds records the wall-clock duration of each
	// translation, embedding through completion.
	translateDurationSeconds *prometheus.HistogramVec

	// translateInFlight is the number of translations currently running.
	translateInFlight prometheus.Gauge

	// httpRequestsTotal counts all instrumented HTTP requests, partitioned
	// by method, handler and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of instrumented HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec

	// rateLimitedTotal counts requests rejected with 429.
	rateLimitedTotal prometheus.Counter
}

// newServerMetrics registers all server metrics against reg.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		translateRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragcypher",
			Subsystem: "translate",
			Name:      "requests_total",
			Help:      "Total number of translations completed, partitioned by outcome.",
		}, []string{"outcome"}),

		translateDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragcypher",
			Subsystem: "translate",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of translations from receipt to completion.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),

		translateInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ragcypher",
			Subsystem: "translate",
			Name:      "in_flight",
			Help:      "Number of translations currently running.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragcypher",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ragcypher",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),

		rateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragcypher",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the per-client rate limiter.",
		}),
	}
}

// instrument wraps h with the HTTP request counter and latency histogram,
// labelled with the logical handler name.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	labels := prometheus.Labels{labelHandler: name}
	return promhttp.InstrumentHandlerDuration(
		s.metrics.httpDurationSeconds.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(s.metrics.httpRequestsTotal.MustCurryWith(labels), h),
	)
}
