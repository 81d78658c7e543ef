package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made against the commerce backend.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of commerce backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Commerce backend calls by route, method, and status.",
	}, []string{"route", "method", "status"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_clear_retry_attempts_total",
		Help: "Attempts made by the post-order cart clear retry loop.",
	}, []string{"outcome"})
	reg.MustRegister(duration, requests, retries)
	return &UpstreamMetrics{
		duration: duration,
		requests: requests,
		retries:  retries,
	}
}

// ObserveRequest records one upstream call.
func (m *UpstreamMetrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if m.duration != nil {
		m.duration.WithLabelValues(normalizeLabel(route), method).Observe(elapsed.Seconds())
	}
	if m.requests != nil {
		m.requests.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Inc()
	}
}

// IncClearRetry counts one cart-clear attempt by outcome.
func (m *UpstreamMetrics) IncClearRetry(outcome string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
