package kairos

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kairos_api_requests_total",
			Help: "Requests sent to the Kairos API by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kairos_api_request_duration_seconds",
			Help:    "Kairos API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	tokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kairos_token_refresh_total",
			Help: "Access token refreshes by result",
		},
		[]string{"result"},
	)

	tokenRefreshWaiters = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kairos_token_refresh_waiters",
			Help:    "Requests released by a single token refresh",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kairos_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
