// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ProxyClientConfig configures the proxy/VPN detection client.
type ProxyClientConfig struct {
	// BaseURL is the provider endpoint, e.g. https://proxycheck.io/v2.
	BaseURL string
	// APIKey raises the provider quota when present; the provider also
	// answers keyless requests at a reduced rate.
	APIKey  string
	Timeout time.Duration
}

// ProxyClient queries the proxy/VPN detection provider.
// This check is independent of the geolocation lookup: one failing must
// never block the other.
type ProxyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProxyClient creates a proxy/VPN detection client.
func NewProxyClient(cfg ProxyClientConfig) *ProxyClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ProxyClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// proxyEntry is the per-IP object in a proxycheck.io style reply:
//
//	{"status": "ok", "203.0.113.9": {"proxy": "yes", "type": "VPN"}}
type proxyEntry struct {
	Proxy string `json:"proxy"`
	Type  string `json:"type"`
}

// Check reports whether ip is a known proxy or VPN exit.
// Returns ProxyStatusUnknown together with the error on any failure; the
// caller logs and proceeds with the sentinel.
func (p *ProxyClient) Check(ctx context.Context, ip string) (ProxyStatus, error) {
	endpoint := fmt.Sprintf("%s/%s?vpn=1", p.baseURL, url.PathEscape(ip))
	if p.apiKey != "" {
		endpoint += "&key=" + url.QueryEscape(p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProxyStatusUnknown, fmt.Errorf("failed to create proxy check request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProxyStatusUnknown, fmt.Errorf("proxy check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProxyStatusUnknown, fmt.Errorf("proxy check provider returned status %d", resp.StatusCode)
	}

	// The reply is keyed by the queried IP next to a status field, so it
	// cannot decode into a fixed struct.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ProxyStatusUnknown, fmt.Errorf("failed to decode proxy check response: %w", err)
	}

	var status string
	if s, ok := raw["status"]; ok {
		if err := json.Unmarshal(s, &status); err != nil {
			return ProxyStatusUnknown, fmt.Errorf("failed to decode proxy check status: %w", err)
		}
	}
	if status != "ok" && status != "warning" {
		return ProxyStatusUnknown, fmt.Errorf("proxy check provider reported %q", status)
	}

	entryRaw, ok := raw[ip]
	if !ok {
		return ProxyStatusUnknown, fmt.Errorf("proxy check response missing entry for queried address")
	}

	var entry proxyEntry
	if err := json.Unmarshal(entryRaw, &entry); err != nil {
		return ProxyStatusUnknown, fmt.Errorf("failed to decode proxy check entry: %w", err)
	}

	if strings.EqualFold(entry.Proxy, "yes") {
		return ProxyStatusYes, nil
	}
	return ProxyStatusNo, nil
}
