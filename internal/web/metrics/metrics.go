// Package metrics exposes the web app's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and handlers report to.
type Recorder interface {
	// RecordAuth counts one auth operation by its result, e.g.
	// ("signin", "invalid_credentials") or ("oauth", "linked").
	RecordAuth(operation, outcome string)
	RecordWaitlistJoin(outcome string)
	RecordWebhookDelivery(event string, ok bool, d time.Duration)
	RecordHTTP(method, route string, status int, d time.Duration)
}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	authOutcomes     *prometheus.CounterVec
	waitlistJoins    *prometheus.CounterVec
	webhookDelivered *prometheus.CounterVec
	webhookLatency   prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector registers the app's metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_auth_outcomes_total",
			Help: "Auth operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		waitlistJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_waitlist_joins_total",
			Help: "Waitlist join attempts by outcome.",
		}, []string{"outcome"}),
		webhookDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_webhook_deliveries_total",
			Help: "Outbound webhook attempts by event and result.",
		}, []string{"event", "result"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "launchpad_webhook_delivery_seconds",
			Help:    "Latency of outbound webhook attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_http_requests_total",
			Help: "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "launchpad_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.authOutcomes,
		c.waitlistJoins,
		c.webhookDelivered,
		c.webhookLatency,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) RecordAuth(operation, outcome string) {
	c.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordWaitlistJoin(outcome string) {
	c.waitlistJoins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordWebhookDelivery(event string, ok bool, d time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	c.webhookDelivered.WithLabelValues(event, result).Inc()
	c.webhookLatency.Observe(d.Seconds())
}

func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when metrics are not wired, e.g. in tests.
type Nop struct{}

func (Nop) RecordAuth(string, string) {}
func (Nop) RecordWaitlistJoin(string) {}
func (Nop) RecordWebhookDelivery(string, bool, time.Duration) {}
func (Nop) RecordHTTP(string, string, int, time.Duration) {}
