// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package geo resolves client network addresses to geolocation, ISP and
// proxy/VPN metadata using rate-limited external providers.
//
// Enrichment is strictly best-effort: every failure mode (provider error,
// transport error, exhausted quota, open circuit breaker) degrades to an
// absent record or an Unknown proxy status. Nothing in this package returns
// an error to the tracking pipeline.
package geo

import "time"

// Record is a cached geolocation result for a single IP.
// Field tags follow the ip-api.com response contract.
type Record struct {
	IP          string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	ASN         string  `json:"as"`
	Proxy       bool    `json:"proxy"`
	Hosting     bool    `json:"hosting"`

	FetchedAt time.Time `json:"-"`
}

// ProxyStatus is the outcome of the independent proxy/VPN check.
type ProxyStatus string

const (
	// ProxyStatusUnknown is the sentinel for any failed or skipped check.
	ProxyStatusUnknown ProxyStatus = "Unknown"
	ProxyStatusYes     ProxyStatus = "Yes"
	ProxyStatusNo      ProxyStatus = "No"
)

// Result is the combined outcome of enriching one visit.
// Record is nil when geolocation was unavailable for any reason.
type Result struct {
	Record *Record
	Proxy  ProxyStatus
}
