// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package metrics provides Prometheus instrumentation for the tracking
// pipeline: classification outcomes, enrichment cache and quota behavior,
// batch flushes, and delivery outcomes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Visit pipeline metrics
	VisitsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visits_classified_total",
			Help: "Total number of requests classified by the visit pipeline",
		},
		[]string{"result"}, // "trackable", "referrer", "asset", "cookie", "favicon"
	)

	VisitsTracked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visits_tracked_total",
			Help: "Total number of visits that produced an alert message",
		},
	)

	VisitsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visits_suppressed_total",
			Help: "Total number of visits suppressed by the per-fingerprint cooldown",
		},
	)

	// Enrichment metrics
	GeoCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolocation_cache_hits_total",
			Help: "Total number of geolocation cache hits",
		},
	)

	GeoCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolocation_cache_misses_total",
			Help: "Total number of geolocation cache misses (provider fetch required)",
		},
	)

	GeoLimiterRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolocation_limiter_rejections_total",
			Help: "Total number of geolocation lookups skipped because the provider quota was exhausted",
		},
	)

	GeoLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geolocation_lookup_duration_seconds",
			Help:    "Duration of geolocation provider calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_failures_total",
			Help: "Total number of degraded enrichment lookups",
		},
		[]string{"provider"}, // "geo", "proxycheck"
	)

	// Batching metrics
	BatchFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_flushes_total",
			Help: "Total number of non-empty batch flushes",
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_size",
			Help:    "Number of messages per batch flush",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100, 256},
		},
	)

	BatchDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_dropped_total",
			Help: "Total number of messages dropped because the batch buffer was full",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "delivery_queue_depth",
			Help: "Current number of payloads waiting for the delivery worker",
		},
	)

	// Delivery metrics
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of delivery attempts by terminal outcome",
		},
		[]string{"outcome"}, // "delivered", "rate_limited_dropped", "failed", "queue_full"
	)

	DeliveryRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_retries_total",
			Help: "Total number of rate-limited payload re-enqueues",
		},
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Duration of notification channel send calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordClassification records a classifier outcome.
func RecordClassification(result string) {
	VisitsClassified.WithLabelValues(result).Inc()
}

// RecordGeoLookup records the duration and outcome of a provider call.
func RecordGeoLookup(duration time.Duration, err error) {
	GeoLookupDuration.Observe(duration.Seconds())
	if err != nil {
		EnrichmentFailures.WithLabelValues("geo").Inc()
	}
}

// RecordBatchFlush records a non-empty flush of the batching queue.
func RecordBatchFlush(size int) {
	BatchFlushes.Inc()
	BatchSize.Observe(float64(size))
}

// RecordDelivery records the terminal outcome of a payload.
func RecordDelivery(outcome string, duration time.Duration) {
	Deliveries.WithLabelValues(outcome).Inc()
	if duration > 0 {
		DeliveryDuration.Observe(duration.Seconds())
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
