// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "ride_transitions_total", Help: "Committed ride status transitions"},
		[]string{"from", "to"},
	)
	AcceptAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "ride_accept_attempts_total", Help: "Ride acceptance attempts by outcome"},
		[]string{"outcome"},
	)
	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ridehail",
		Name:      "ride_lock_wait_seconds",
		Help:      "Time spent acquiring a ride lock",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	})
	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridehail", Name: "event_publish_failures_total", Help: "Ride events that could not be published",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridehail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Accept outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeTaken    = "already_taken"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)
