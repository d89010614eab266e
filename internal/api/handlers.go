// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/daracheol/doorbell/internal/logging"
)

var startTime = time.Now()

type healthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

func (router *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Environment: router.cfg.Server.Environment,
		Uptime:      time.Since(startTime).Round(time.Second).String(),
	})
}

// handleReady reports readiness. The pipeline has no hard dependencies to
// probe: a missing bot token degrades delivery but never the request path.
func (router *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleRoot answers tracked page routes. The surrounding site's rendered
// frontend lives elsewhere; this surface only feeds the tracking pipeline.
func (router *Router) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}
