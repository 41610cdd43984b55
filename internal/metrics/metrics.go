// Package metrics collects and exposes Prometheus metrics for the web client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates request and upstream call metrics.
type Collector struct {
	registry        *prometheus.Registry
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	upstreamFailure *prometheus.CounterVec
}

// NewCollector builds a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkshelf_http_status_total",
			Help: "Responses served, by status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "inkshelf_request_latency_seconds",
			Help:    "End-to-end request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkshelf_upstream_failure_total",
			Help: "Failed backend API calls, by resource.",
		}, []string{"resource"}),
	}
	c.registry.MustRegister(c.httpStatus, c.requestLatency, c.upstreamFailure)
	return c
}

// RecordUpstreamFailure counts a failed backend call for a resource
// ("auth", "books", "profile").
func (c *Collector) RecordUpstreamFailure(resource string) {
	c.upstreamFailure.WithLabelValues(resource).Inc()
}

// Handler exposes the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Middleware records status and latency for every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		c.httpStatus.WithLabelValues(strconv.Itoa(status)).Inc()
		c.requestLatency.Observe(time.Since(start).Seconds())
	})
}
