// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks that the configuration is structurally valid.
//
// The Telegram bot token is intentionally not checked here: per the error
// handling design it is a send-time configuration error, so a server without
// alerting credentials still starts and serves traffic.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateHTTPURL(c.Geo.BaseURL, "GEO_API_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.ProxyCheck.BaseURL, "PROXYCHECK_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Telegram.APIBaseURL, "TELEGRAM_API_BASE_URL"); err != nil {
		return err
	}

	for _, origin := range c.Tracking.AllowedReferrers {
		if err := validateHTTPURL(origin, "TRACKING_ALLOWED_REFERRERS"); err != nil {
			return err
		}
	}

	if c.Tracking.CooldownTTL <= 0 {
		return fmt.Errorf("TRACKING_COOLDOWN_TTL must be positive")
	}
	if c.Geo.CacheTTL <= 0 {
		return fmt.Errorf("GEO_CACHE_TTL must be positive")
	}
	if c.Delivery.FlushInterval <= 0 {
		return fmt.Errorf("delivery flush_interval must be positive")
	}
	if !strings.HasPrefix(c.Tracking.FaviconPath, "/") {
		return fmt.Errorf("tracking favicon_path must start with /")
	}

	return nil
}

// validateHTTPURL checks that a value is an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", name, raw)
	}
	return nil
}
