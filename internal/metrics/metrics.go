// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogLoads counts catalog loads by outcome ("success", "error").
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hikinghelper_catalog_loads_total",
			Help: "Trail catalog loads by outcome",
		},
		[]string{"outcome"},
	)

	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hikinghelper_catalog_load_duration_seconds",
			Help:    "Time spent reading and merging region files",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// TierRequests counts tier classifications by outcome.
	TierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hikinghelper_tier_requests_total",
			Help: "Tier classifications served by outcome",
		},
		[]string{"outcome"},
	)

	// ChatRequests counts assistant calls by outcome
	// ("success", "error", "unavailable", "rate_limited").
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hikinghelper_chat_requests_total",
			Help: "Chat assistant requests by outcome",
		},
		[]string{"outcome"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hikinghelper_stream_clients",
			Help: "Open websocket clients on this instance",
		},
	)
)

const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
	OutcomeRateLimited = "rate_limited"
)
