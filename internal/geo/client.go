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
	gobreaker "github.com/sony/gobreaker/v2"
)

// ClientConfig configures the geolocation provider client.
type ClientConfig struct {
	// BaseURL is the provider endpoint, e.g. http://ip-api.com/json.
	BaseURL string
	// Fields is the comma-separated field list requested per lookup.
	Fields  string
	Timeout time.Duration
}

// Client queries the geolocation provider for a single IP.
// Calls run through a circuit breaker so a failing provider is skipped
// quickly instead of burning the lookup quota on timeouts.
type Client struct {
	baseURL string
	fields  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Record]
}

// NewClient creates a geolocation provider client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:     "geolocation-provider",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		fields:  cfg.Fields,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*Record](settings),
	}
}

// Lookup fetches the geolocation record for ip.
// Returns an error on transport failure, non-2xx responses, a provider
// status other than "success", or an open circuit breaker.
func (c *Client) Lookup(ctx context.Context, ip string) (*Record, error) {
	return c.breaker.Execute(func() (*Record, error) {
		return c.fetch(ctx, ip)
	})
}

// providerResponse is the ip-api.com reply envelope. On failure the provider
// returns status "fail" with a message instead of an HTTP error code.
type providerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Record
}

func (c *Client) fetch(ctx context.Context, ip string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(ip))
	if c.fields != "" {
		endpoint += "?fields=" + url.QueryEscape(c.fields)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geolocation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation provider returned status %d", resp.StatusCode)
	}

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if pr.Status != "success" {
		return nil, fmt.Errorf("geolocation provider reported %q: %s", pr.Status, pr.Message)
	}

	rec := pr.Record
	rec.FetchedAt = time.Now()
	if rec.IP == "" {
		rec.IP = ip
	}
	return &rec, nil
}
