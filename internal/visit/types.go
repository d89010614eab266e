// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package visit classifies inbound requests, derives anonymized visitor
// fingerprints, enforces the per-visitor alert cooldown, and feeds qualifying
// visits into the alert pipeline without ever blocking the request path.
package visit

import (
	"net/http"
	"net/url"
	"time"
)

// Event is the ephemeral record of one qualifying visit. It is created per
// trackable request and discarded once the composer has consumed it.
type Event struct {
	Timestamp   time.Time
	Path        string
	Method      string
	Protocol    string
	Referrer    string
	Query       url.Values
	Headers     http.Header
	Fingerprint string
}

// newEvent captures the request fields the pipeline needs. Headers are cloned
// because the request object is recycled once the handler returns.
func newEvent(r *http.Request, fingerprint string) Event {
	return Event{
		Timestamp:   time.Now(),
		Path:        r.URL.Path,
		Method:      r.Method,
		Protocol:    r.Proto,
		Referrer:    r.Referer(),
		Query:       r.URL.Query(),
		Headers:     r.Header.Clone(),
		Fingerprint: fingerprint,
	}
}
