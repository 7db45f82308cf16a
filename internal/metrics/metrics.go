// Package metrics collects Prometheus metrics and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records HTTP and quiz dispatch metrics.
type Collector struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	quizDispatches *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizbench_http_requests_total",
			Help: "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizbench_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		quizDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizbench_quiz_dispatch_total",
			Help: "Number of quiz dispatches by method and response status code.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(c.requests, c.duration, c.quizDispatches)

	return c
}

// RecordRequest records a served HTTP request. Route is the matched mux pattern, not the raw path.
func (c *Collector) RecordRequest(method, route string, statusCode int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordQuizDispatch records the result of a quiz dispatch.
func (c *Collector) RecordQuizDispatch(method string, statusCode int) {
	c.quizDispatches.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// Handler returns an HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
