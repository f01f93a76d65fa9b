package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by flow (login|signup) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulink_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"flow", "result"},
	)

	// VerificationSends counts dispatched verification codes by channel and result (sent|failed).
	VerificationSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulink_verification_sends_total",
			Help: "Total number of verification code dispatches",
		},
		[]string{"channel", "result"},
	)

	// VerificationChecks counts code verification attempts by channel and outcome.
	VerificationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulink_verification_checks_total",
			Help: "Total number of verification code checks",
		},
		[]string{"channel", "outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consulink_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
