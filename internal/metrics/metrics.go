// Package metrics exposes Prometheus collectors for the parser service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	extractionsTotal           *prometheus.CounterVec
	upstreamFetchTotal         *prometheus.CounterVec
	upstreamFetchDuration      prometheus.Histogram
	upstreamBytesTotal         prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		)

		extractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogparser_extractions_total",
				Help: "Total number of parse requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		upstreamFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogparser_upstream_fetch_total",
				Help: "Total number of upstream fetches, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		upstreamFetchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ogparser_upstream_fetch_duration_seconds",
				Help:    "Histogram of upstream fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		upstreamBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ogparser_upstream_bytes_total",
				Help: "Total number of body bytes downloaded from upstream pages.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveExtraction counts one parse request by outcome.
func ObserveExtraction(outcome string) {
	extractionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpstreamFetch records a single upstream fetch.
func ObserveUpstreamFetch(site, outcome string, duration time.Duration, bytesFetched int) {
	upstreamFetchTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
	upstreamFetchDuration.Observe(duration.Seconds())
	if bytesFetched > 0 {
		upstreamBytesTotal.Add(float64(bytesFetched))
	}
}
