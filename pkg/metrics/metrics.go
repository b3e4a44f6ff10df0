// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// HTTPRequestsTotal counts handled requests by route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// PaywallUnlocksTotal counts unlock attempts by outcome
	// (unlocked, already_owned, free, insufficient_funds, error).
	PaywallUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_unlocks_total",
			Help: "Total number of chapter unlock attempts",
		},
		[]string{"result"},
	)

	// RecommendationsServedTotal counts related-manga lookups by mode
	// (scored or cold_start).
	RecommendationsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of related manga lookups",
		},
		[]string{"mode"},
	)

	// CatalogFallbacksTotal counts ordered queries retried unordered.
	CatalogFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_unordered_fallbacks_total",
			Help: "Total number of listings served by the in-memory sort fallback",
		},
		[]string{"query"},
	)

	// CDNUploadsTotal counts image uploads by outcome.
	CDNUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdn_uploads_total",
			Help: "Total number of image uploads to the CDN",
		},
		[]string{"result"},
	)

	// EventSubscribers tracks open viewer event streams.
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewer_event_subscribers",
			Help: "Current number of viewer event subscriptions",
		},
	)

	// EventsDroppedTotal counts events dropped for slow subscribers.
	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewer_events_dropped_total",
			Help: "Total number of viewer events dropped because the subscriber buffer was full",
		},
	)
)
