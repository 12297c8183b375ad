package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RosterLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "swiftride", Name: "roster_loads_total", Help: "Roster loads by outcome"},
		[]string{"outcome"},
	)
	RosterSize = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "swiftride", Name: "roster_drivers", Help: "Drivers in the current roster"})

	RideSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "swiftride", Name: "ride_submissions_total", Help: "Ride request submissions by outcome"},
		[]string{"outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swiftride",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of outbound backend calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "swiftride", Name: "http_requests_total", Help: "Total view-server HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swiftride",
			Name:      "http_request_duration_seconds",
			Help:      "View-server HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	ViewSubscribers = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "swiftride", Name: "view_subscribers", Help: "Connected websocket view clients"})
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)
