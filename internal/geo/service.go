// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package geo

import (
	"context"
	"sync"
	"time"

	"github.com/daracheol/doorbell/internal/cache"
	"github.com/daracheol/doorbell/internal/logging"
	"github.com/daracheol/doorbell/internal/metrics"
	"github.com/daracheol/doorbell/internal/ratelimit"
)

// limiterKey identifies the geolocation quota in the rate limiter registry.
const limiterKey = "geo"

// Service coordinates cached, quota-limited enrichment lookups.
type Service struct {
	client  *Client
	proxy   *ProxyClient
	cache   *cache.Store[Record]
	limiter *ratelimit.Registry
}

// NewService creates an enrichment service.
// The cache TTL bounds how long a geolocation record is served before a
// refetch; the limiter enforces the provider's lookup quota.
func NewService(client *Client, proxy *ProxyClient, store *cache.Store[Record], limiter *ratelimit.Registry) *Service {
	return &Service{
		client:  client,
		proxy:   proxy,
		cache:   store,
		limiter: limiter,
	}
}

// Enrich resolves ip to a geolocation record and proxy status.
//
// The two provider calls run concurrently and degrade independently: a
// failed geolocation lookup yields a nil Record, a failed proxy check
// yields ProxyStatusUnknown. Enrich never returns an error.
func (s *Service) Enrich(ctx context.Context, ip string) Result {
	if ip == "" {
		return Result{Record: nil, Proxy: ProxyStatusUnknown}
	}

	var (
		wg     sync.WaitGroup
		record *Record
		proxy  = ProxyStatusUnknown
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		record = s.lookupGeo(ctx, ip)
	}()
	go func() {
		defer wg.Done()
		proxy = s.checkProxy(ctx, ip)
	}()
	wg.Wait()

	return Result{Record: record, Proxy: proxy}
}

// lookupGeo serves the record from cache or fetches it under the quota.
// Returns nil when no record is available for any reason.
func (s *Service) lookupGeo(ctx context.Context, ip string) *Record {
	if rec, ok := s.cache.Get(ip); ok {
		metrics.GeoCacheHits.Inc()
		return &rec
	}
	metrics.GeoCacheMisses.Inc()

	if !s.limiter.Allow(limiterKey) {
		metrics.GeoLimiterRejections.Inc()
		logging.Debug().Str("ip", ip).Msg("geolocation quota exhausted, skipping lookup")
		return nil
	}

	start := time.Now()
	rec, err := s.client.Lookup(ctx, ip)
	metrics.RecordGeoLookup(time.Since(start), err)
	if err != nil {
		logging.Warn().Err(err).Str("ip", ip).Msg("geolocation lookup failed")
		return nil
	}

	s.cache.Set(ip, *rec)
	return rec
}

// checkProxy runs the independent proxy/VPN check.
func (s *Service) checkProxy(ctx context.Context, ip string) ProxyStatus {
	status, err := s.proxy.Check(ctx, ip)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("proxycheck").Inc()
		logging.Warn().Err(err).Str("ip", ip).Msg("proxy check failed")
	}
	return status
}
