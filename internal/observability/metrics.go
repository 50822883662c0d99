package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesRequested = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "rides_requested_total", Help: "Total ride requests accepted into the pending queue"})
	RidesMatched   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "rides_matched_total", Help: "Total rides matched to a driver"})
	RidesCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "rides_completed_total", Help: "Total rides finalized after dual confirmation"})
	RidesCanceled  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "rides_canceled_total", Help: "Total rides canceled before completion"})
	AcceptConflict = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "accept_conflicts_total", Help: "Accept attempts that lost the claim race"})

	PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_lifecycle", Name: "pending_requests", Help: "Ride requests currently awaiting a driver"})

	ConfirmationGap = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ride_lifecycle",
		Name:      "confirmation_gap_seconds",
		Help:      "Delay between the first and second completion confirmation",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_lifecycle", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_lifecycle",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
