// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package main is the entry point for the Doorbell server.
//
// Doorbell watches inbound traffic for a personal site, classifies which
// requests are real visits, enriches them with geolocation and proxy
// metadata from rate-limited external providers, and delivers batched
// MarkdownV2 alerts to a Telegram channel with bounded retry semantics.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Logging: zerolog global logger
//  3. Enrichment: geolocation client, proxy check, TTL cache, quota limiter
//  4. Alerting: composer, batching queue, delivery worker, Telegram client
//  5. Tracking: classifier, fingerprint, cooldown guard
//  6. HTTP server: Chi router with health and metrics endpoints
//
// Long-running loops (batch flush, delivery worker, HTTP server) run under a
// suture supervision tree and restart independently on failure.
//
// # Configuration
//
// Key environment variables:
//   - TELEGRAM_BOT_TOKEN: bot credential; absence disables delivery but
//     never prevents startup
//   - TELEGRAM_CHAT_ID: destination channel
//   - GEO_API_URL, PROXYCHECK_API_KEY: enrichment providers
//   - HTTP_PORT, ENVIRONMENT, LOG_LEVEL
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains, the
// batcher performs a final flush, and the delivery worker stops.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daracheol/doorbell/internal/alert"
	"github.com/daracheol/doorbell/internal/api"
	"github.com/daracheol/doorbell/internal/cache"
	"github.com/daracheol/doorbell/internal/config"
	"github.com/daracheol/doorbell/internal/geo"
	"github.com/daracheol/doorbell/internal/logging"
	"github.com/daracheol/doorbell/internal/ratelimit"
	"github.com/daracheol/doorbell/internal/supervisor"
	"github.com/daracheol/doorbell/internal/supervisor/services"
	"github.com/daracheol/doorbell/internal/visit"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("starting doorbell")

	if cfg.Telegram.BotToken == "" {
		logging.Warn().Msg("no bot token configured, alerts will fail at send time")
	}

	// Enrichment stack: provider clients behind a TTL cache and the
	// provider's lookup quota.
	enricher := geo.NewService(
		geo.NewClient(geo.ClientConfig{
			BaseURL: cfg.Geo.BaseURL,
			Fields:  cfg.Geo.Fields,
			Timeout: cfg.Geo.Timeout,
		}),
		geo.NewProxyClient(geo.ProxyClientConfig{
			BaseURL: cfg.ProxyCheck.BaseURL,
			APIKey:  cfg.ProxyCheck.APIKey,
			Timeout: cfg.ProxyCheck.Timeout,
		}),
		cache.New[geo.Record](cfg.Geo.CacheTTL),
		ratelimit.NewRegistry(cfg.Geo.RateLimit, cfg.Geo.RateWindow),
	)

	// Delivery stack: worker drains batched payloads sequentially.
	worker := alert.NewWorker(
		alert.NewTelegramClient(alert.TelegramConfig{
			BaseURL: cfg.Telegram.APIBaseURL,
			Token:   cfg.Telegram.BotToken,
			Timeout: cfg.Telegram.Timeout,
		}),
		alert.WorkerConfig{
			QueueSize:      cfg.Delivery.QueueSize,
			MaxAttempts:    cfg.Delivery.MaxAttempts,
			SuccessDelay:   cfg.Delivery.SuccessDelay,
			DefaultBackoff: cfg.Delivery.DefaultBackoff,
		},
	)
	batcher := alert.NewBatcher(worker, cfg.Delivery.FlushInterval, cfg.Delivery.QueueSize)

	tracker := visit.NewTracker(
		visit.NewGuard(cache.New[time.Time](cfg.Tracking.CooldownTTL)),
		enricher,
		batcher,
		visit.TrackerConfig{
			AllowedReferrers: cfg.Tracking.AllowedReferrers,
			FaviconPath:      cfg.Tracking.FaviconPath,
			CookieMaxAge:     int(cfg.Tracking.CookieMaxAge.Seconds()),
			ChannelID:        cfg.Telegram.ChatID,
			Production:       cfg.IsProduction(),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, tracker).Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(services.NewPipelineService("batcher", batcher.Run))
	tree.AddPipelineService(services.NewPipelineService("delivery-worker", worker.Run))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	tracker.Drain()
	logging.Info().Msg("doorbell stopped")
	return nil
}
