// Package metrics exposes the gateway's Prometheus instrumentation: request
// totals and latencies plus counters for the two edge-layer terminal
// outcomes, rate-limit rejection and authorization denial.
package metrics

import (
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts every request handled by the gateway, labeled by
	// method and final status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total number of requests processed by the gateway.",
	}, []string{"method", "code"})

	// RateLimitedTotal counts requests rejected with 429 by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter.",
	})

	// AuthzDeniedTotal counts requests denied with 403 by the policy engine.
	AuthzDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_authz_denied_total",
		Help: "Total number of requests denied by the authorization policy engine.",
	})

	// RequestDuration observes end-to-end request latency, including the
	// proxied backend call.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "End-to-end request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request totals and latency for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		timer := prometheus.NewTimer(RequestDuration)
		defer timer.ObserveDuration()

		next.ServeHTTP(ww, r)

		RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}
