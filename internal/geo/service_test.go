// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daracheol/doorbell/internal/cache"
	"github.com/daracheol/doorbell/internal/ratelimit"
)

func newTestService(t *testing.T, geoHandler, proxyHandler http.HandlerFunc, ttl time.Duration, quota int) *Service {
	t.Helper()

	geoSrv := httptest.NewServer(geoHandler)
	t.Cleanup(geoSrv.Close)
	proxySrv := httptest.NewServer(proxyHandler)
	t.Cleanup(proxySrv.Close)

	return NewService(
		NewClient(ClientConfig{BaseURL: geoSrv.URL}),
		NewProxyClient(ProxyClientConfig{BaseURL: proxySrv.URL}),
		cache.New[Record](ttl),
		ratelimit.NewRegistry(quota, time.Minute),
	)
}

func okProxyHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"status":"ok","203.0.113.9":{"proxy":"no"}}`))
}

func TestEnrichCachesGeoRecord(t *testing.T) {
	var geoCalls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		w.Write([]byte(sampleSuccess))
	}, okProxyHandler, 10*time.Minute, 45)

	for i := 0; i < 3; i++ {
		res := svc.Enrich(context.Background(), "203.0.113.9")
		if res.Record == nil {
			t.Fatalf("enrichment %d: expected a record", i+1)
		}
		if res.Record.City != "Seoul" {
			t.Errorf("enrichment %d: unexpected city %q", i+1, res.Record.City)
		}
		if res.Proxy != ProxyStatusNo {
			t.Errorf("enrichment %d: expected proxy No, got %v", i+1, res.Proxy)
		}
	}

	if got := geoCalls.Load(); got != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", got)
	}
}

func TestEnrichRefetchesAfterTTL(t *testing.T) {
	var geoCalls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		w.Write([]byte(sampleSuccess))
	}, okProxyHandler, 50*time.Millisecond, 45)

	svc.Enrich(context.Background(), "203.0.113.9")
	time.Sleep(60 * time.Millisecond)
	res := svc.Enrich(context.Background(), "203.0.113.9")

	if res.Record == nil {
		t.Fatal("expected a record after refetch")
	}
	if got := geoCalls.Load(); got != 2 {
		t.Errorf("expected exactly 2 provider calls (one refetch), got %d", got)
	}
}

func TestEnrichQuotaExhaustedSkipsLookup(t *testing.T) {
	var geoCalls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		w.Write([]byte(sampleSuccess))
	}, okProxyHandler, time.Nanosecond, 1)

	// First lookup spends the only permit; the cached record expires
	// immediately so the second enrich must hit the limiter.
	svc.Enrich(context.Background(), "203.0.113.9")
	time.Sleep(time.Millisecond)
	res := svc.Enrich(context.Background(), "203.0.113.9")

	if res.Record != nil {
		t.Error("expected absent record when quota is exhausted")
	}
	if res.Proxy != ProxyStatusNo {
		t.Errorf("proxy check must still run when geo is skipped, got %v", res.Proxy)
	}
	if got := geoCalls.Load(); got != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", got)
	}
}

func TestEnrichDegradesIndependently(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","203.0.113.9":{"proxy":"yes","type":"VPN"}}`))
	}, 10*time.Minute, 45)

	res := svc.Enrich(context.Background(), "203.0.113.9")

	if res.Record != nil {
		t.Error("expected absent record when provider fails")
	}
	if res.Proxy != ProxyStatusYes {
		t.Errorf("expected proxy Yes despite geo failure, got %v", res.Proxy)
	}
}

func TestEnrichEmptyIP(t *testing.T) {
	var called atomic.Bool
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}, func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}, 10*time.Minute, 45)

	res := svc.Enrich(context.Background(), "")

	if res.Record != nil || res.Proxy != ProxyStatusUnknown {
		t.Errorf("expected absent/Unknown for empty IP, got %+v", res)
	}
	if called.Load() {
		t.Error("no provider call should be made for an empty IP")
	}
}
