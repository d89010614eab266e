// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package config loads and validates Doorbell configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest wins):
//  1. Built-in defaults
//  2. Optional YAML config file (CONFIG_PATH, ./config.yaml, /etc/doorbell/)
//  3. Environment variables (TELEGRAM_BOT_TOKEN, GEO_API_URL, HTTP_PORT, ...)
package config

import "time"

// Config is the root configuration for the Doorbell server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Telegram   TelegramConfig   `koanf:"telegram"`
	Geo        GeoConfig        `koanf:"geo"`
	ProxyCheck ProxyCheckConfig `koanf:"proxycheck"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	Delivery   DeliveryConfig   `koanf:"delivery"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`

	// Inbound request rate limiting (go-chi/httprate).
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins is the browser origin allow-list for the frontend.
	CORSOrigins []string `koanf:"cors_origins"`
}

// TelegramConfig holds notification channel settings.
//
// BotToken is deliberately not required at load time: a missing token fails
// the send path with a configuration error instead of preventing startup,
// so the host request pipeline keeps running without alerting.
type TelegramConfig struct {
	BotToken   string        `koanf:"bot_token"`
	ChatID     string        `koanf:"chat_id"`
	APIBaseURL string        `koanf:"api_base_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// GeoConfig holds geolocation provider settings.
type GeoConfig struct {
	BaseURL string `koanf:"base_url"`
	// Fields is the provider field list requested on each lookup.
	Fields     string        `koanf:"fields"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
	RateLimit  int           `koanf:"rate_limit" validate:"gte=1"`
	RateWindow time.Duration `koanf:"rate_window"`
	Timeout    time.Duration `koanf:"timeout"`
}

// ProxyCheckConfig holds proxy/VPN detection provider settings.
type ProxyCheckConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// TrackingConfig holds visit classification and cooldown settings.
type TrackingConfig struct {
	// AllowedReferrers lists frontend origins whose traffic is trackable.
	AllowedReferrers []string      `koanf:"allowed_referrers"`
	FaviconPath      string        `koanf:"favicon_path"`
	CookieMaxAge     time.Duration `koanf:"cookie_max_age"`
	CooldownTTL      time.Duration `koanf:"cooldown_ttl"`
}

// DeliveryConfig holds batching and delivery worker settings.
type DeliveryConfig struct {
	FlushInterval  time.Duration `koanf:"flush_interval"`
	QueueSize      int           `koanf:"queue_size" validate:"gte=1"`
	MaxAttempts    int           `koanf:"max_attempts" validate:"gte=1"`
	SuccessDelay   time.Duration `koanf:"success_delay"`
	DefaultBackoff time.Duration `koanf:"default_backoff"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure attribute on the _visited cookie.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Default returns a Config populated with built-in defaults, without reading
// any file or environment source.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8340,
			Timeout:         30 * time.Second,
			Environment:     "development",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Telegram: TelegramConfig{
			BotToken:   "",
			ChatID:     "",
			APIBaseURL: "https://api.telegram.org",
			Timeout:    15 * time.Second,
		},
		Geo: GeoConfig{
			BaseURL: "http://ip-api.com/json",
			Fields: "status,message,country,countryCode,region,city," +
				"lat,lon,timezone,isp,org,as,proxy,hosting,query",
			CacheTTL:   10 * time.Minute,
			RateLimit:  45, // ip-api free tier quota
			RateWindow: time.Minute,
			Timeout:    10 * time.Second,
		},
		ProxyCheck: ProxyCheckConfig{
			BaseURL: "https://proxycheck.io/v2",
			APIKey:  "",
			Timeout: 10 * time.Second,
		},
		Tracking: TrackingConfig{
			AllowedReferrers: []string{"https://daracheol.com"},
			FaviconPath:      "/favicon.ico",
			CookieMaxAge:     10 * time.Minute,
			CooldownTTL:      5 * time.Minute,
		},
		Delivery: DeliveryConfig{
			FlushInterval:  5 * time.Second,
			QueueSize:      256,
			MaxAttempts:    3,
			SuccessDelay:   3 * time.Second,
			DefaultBackoff: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
