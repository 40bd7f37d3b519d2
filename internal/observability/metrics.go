package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate per route. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases on /compute.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation from large /compute inputs.
	HTTPRequestsInFlight prometheus.Gauge

	// Compute outcomes by status: success, invalid_input, error.
	ComputeRequestsTotal *prometheus.CounterVec

	// Wall-clock time of the prime-counting loop itself, excluding parse/validate.
	ComputeDuration prometheus.Histogram

	// Rate limit denials on /compute. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ComputeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "computeRequestsTotal",
			Help: "Total number of /compute requests by outcome",
		},
		[]string{"status"},
	)
	ComputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "computeDurationSeconds",
			Help:    "Prime-counting latency in seconds, computation only",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ComputeRequestsTotal, ComputeDuration,
		RateLimitDeniedTotal,
	)
}

// RecordCompute records one /compute outcome and, for successes, the
// computation-only latency.
func RecordCompute(status string, seconds float64) {
	ComputeRequestsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		ComputeDuration.Observe(seconds)
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
