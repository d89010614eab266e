// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package alert composes visitor reports, batches them, and delivers the
// combined payloads to the notification channel.
package alert

import (
	"net/http"
	"net/url"
	"time"

	"github.com/daracheol/doorbell/internal/geo"
)

// VisitReport carries everything the composer needs to render one alert.
type VisitReport struct {
	Timestamp   time.Time
	Path        string
	Method      string
	Protocol    string
	Referrer    string
	Query       url.Values
	Headers     http.Header
	Fingerprint string
	Geo         *geo.Record
	Proxy       geo.ProxyStatus
}

// Message is a single composed alert, held by the batching queue until the
// next flush.
type Message struct {
	Text      string
	ChannelID string
	CreatedAt time.Time
}

// Payload is a flushed batch handed to the delivery worker. Attempt counts
// sends already performed for this payload.
type Payload struct {
	Text      string
	ChannelID string
	Attempt   int
}
