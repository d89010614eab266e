// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daracheol/doorbell/internal/config"
	"github.com/daracheol/doorbell/internal/middleware"
	"github.com/daracheol/doorbell/internal/visit"
)

// Router assembles the HTTP surface: health and metrics endpoints plus the
// tracked page routes.
type Router struct {
	cfg     *config.Config
	tracker *visit.Tracker
}

// NewRouter creates a router.
func NewRouter(cfg *config.Config, tracker *visit.Tracker) *Router {
	return &Router{cfg: cfg, tracker: tracker}
}

// Setup configures all routes and the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware stack, applied in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(router.cfg.Server.RateLimitReqs, router.cfg.Server.RateLimitWindow))

	// Observability endpoints sit outside the tracking pipeline.
	r.Get("/healthz", router.handleHealth)
	r.Get("/readyz", router.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	// Every page route runs through the tracker; the classifier filters out
	// assets, repeat visits, and foreign referrers.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.tracker.Middleware)
		r.Get("/*", router.handleRoot)
	})

	return r
}
