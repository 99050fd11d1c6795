// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pikup"

// Metrics groups the collectors. Components take a *Metrics so tests can
// register on a private registry.
type Metrics struct {
	Submissions          *prometheus.CounterVec
	DistanceLookups      *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	EventFailures        prometheus.Counter
	QuoteTotal           prometheus.Histogram
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Move requests by terminal intake outcome.",
		}, []string{"outcome"}),
		DistanceLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distance_lookups_total",
			Help:      "Distance resolutions by source; source=degraded counts failed lookups.",
		}, []string{"source"}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Mail sends that failed and were not reported to the client.",
		}, []string{"recipient"}),
		EventFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Submission events that could not be published.",
		}),
		QuoteTotal: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_total_dollars",
			Help:      "Distribution of computed quote totals.",
			Buckets:   []float64{100, 150, 200, 300, 500, 750, 1000, 2000},
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
