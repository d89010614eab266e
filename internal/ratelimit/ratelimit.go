// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package ratelimit provides a reject-on-exhausted token bucket for outbound
// provider quotas, built on golang.org/x/time/rate.
//
// The geolocation provider grants 45 lookups per minute; a consumption that
// cannot be served fails immediately so the caller degrades instead of
// queueing behind the quota.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket is a token bucket granting limit permits per window.
type Bucket struct {
	lim *rate.Limiter
}

// NewBucket creates a bucket with the full window quota available.
func NewBucket(limit int, window time.Duration) *Bucket {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Bucket{
		lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
	}
}

// Allow consumes one permit if available.
// Returns false immediately when the bucket is exhausted; it never blocks.
func (b *Bucket) Allow() bool {
	return b.lim.Allow()
}

// Registry manages one bucket per key, created lazily with shared settings.
// Used to keep independent quotas per provider endpoint.
type Registry struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	limit   int
	window  time.Duration
}

// NewRegistry creates a registry whose buckets grant limit permits per window.
func NewRegistry(limit int, window time.Duration) *Registry {
	return &Registry{
		buckets: make(map[string]*Bucket),
		limit:   limit,
		window:  window,
	}
}

// Allow consumes one permit from the bucket for key, creating it on first use.
func (r *Registry) Allow(key string) bool {
	r.mu.Lock()
	b, ok := r.buckets[key]
	if !ok {
		b = NewBucket(r.limit, r.window)
		r.buckets[key] = b
	}
	r.mu.Unlock()

	return b.Allow()
}
