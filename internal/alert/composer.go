// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/daracheol/doorbell/internal/geo"
)

// proxyHeaders lists the forwarding/proxy family headers surfaced verbatim in
// the report when at least one is present.
var proxyHeaders = []string{
	"X-Forwarded-For",
	"X-Real-Ip",
	"X-Client-Ip",
	"X-Forwarded",
	"Forwarded-For",
	"Forwarded",
	"Via",
	"X-Proxy-Id",
	"Proxy-Connection",
}

// Composer renders visit reports as MarkdownV2 text. It is a pure formatter
// with no I/O and is safe for concurrent use.
type Composer struct{}

// NewComposer creates a composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose renders one report. Absent values render as "Unknown" or "N/A" so
// the message shape stays stable regardless of enrichment outcome.
func (c *Composer) Compose(rep VisitReport) string {
	var b strings.Builder

	b.WriteString("🔔 *New visit*\n\n")

	b.WriteString("*Request*\n")
	writeField(&b, "Time", rep.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	writeField(&b, "Path", orUnknown(rep.Path))
	writeField(&b, "Method", orUnknown(rep.Method))
	writeField(&b, "Protocol", orUnknown(rep.Protocol))
	writeField(&b, "Referrer", orUnknown(rep.Referrer))
	if len(rep.Query) > 0 {
		writeField(&b, "Query", encodeQuery(rep.Query))
	}

	b.WriteString("\n*Visitor*\n")
	writeField(&b, "Fingerprint", rep.Fingerprint)
	browser, os := parseUserAgent(rep.Headers.Get("User-Agent"))
	writeField(&b, "Browser", browser)
	writeField(&b, "OS", os)
	writeField(&b, "Mobile", mobileHint(rep.Headers.Get("Sec-CH-UA-Mobile")))
	writeField(&b, "Platform", orNA(strings.Trim(rep.Headers.Get("Sec-CH-UA-Platform"), `"`)))
	writeField(&b, "Language", orNA(rep.Headers.Get("Accept-Language")))
	writeField(&b, "DNT", orNA(rep.Headers.Get("DNT")))

	b.WriteString("\n*Location* " + geoFlag(rep.Geo) + "\n")
	if rep.Geo != nil {
		g := rep.Geo
		writeField(&b, "Country", fmt.Sprintf("%s (%s)", orUnknown(g.Country), orUnknown(g.CountryCode)))
		writeField(&b, "City", fmt.Sprintf("%s, %s", orUnknown(g.City), orUnknown(g.Region)))
		writeField(&b, "Coordinates", fmt.Sprintf("%.4f, %.4f", g.Lat, g.Lon))
		writeField(&b, "Timezone", orUnknown(g.Timezone))
		writeField(&b, "ISP", orUnknown(g.ISP))
		writeField(&b, "Org", orUnknown(g.Org))
		writeField(&b, "ASN", orUnknown(g.ASN))
	} else {
		writeField(&b, "Country", "Unknown")
		writeField(&b, "City", "Unknown")
		writeField(&b, "ISP", "Unknown")
	}
	writeField(&b, "Proxy/VPN", proxyLabel(rep.Proxy))

	if block := proxyHeaderBlock(rep.Headers); block != "" {
		b.WriteString("\n*Proxy headers*\n")
		b.WriteString(block)
	}

	return b.String()
}

// writeField appends one "Name: value" line with the value escaped. Field
// names never contain reserved characters.
func writeField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(EscapeMarkdownV2(value))
	b.WriteString("\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func geoFlag(g *geo.Record) string {
	if g == nil {
		return "🌐"
	}
	return CountryFlag(g.CountryCode)
}

func proxyLabel(status geo.ProxyStatus) string {
	switch status {
	case geo.ProxyStatusYes:
		return "yes"
	case geo.ProxyStatusNo:
		return "no"
	default:
		return "Unknown"
	}
}

func mobileHint(hint string) string {
	switch hint {
	case "?1":
		return "yes"
	case "?0":
		return "no"
	default:
		return "N/A"
	}
}

// encodeQuery renders query parameters as compact JSON so arbitrary keys stay
// readable in a single line.
func encodeQuery(q map[string][]string) string {
	data, err := json.Marshal(q)
	if err != nil {
		return "Unknown"
	}
	return string(data)
}

// proxyHeaderBlock returns the escaped lines for present proxy headers, or an
// empty string when none are set.
func proxyHeaderBlock(headers map[string][]string) string {
	var b strings.Builder
	for _, name := range proxyHeaders {
		for _, value := range headers[name] {
			b.WriteString(EscapeMarkdownV2(strings.ToLower(name)))
			b.WriteString(": ")
			b.WriteString(EscapeMarkdownV2(value))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// parseUserAgent extracts a coarse browser and OS name from a user agent
// string. Token order matters: Edge and Opera embed "Chrome", Chrome embeds
// "Safari".
func parseUserAgent(ua string) (browser, os string) {
	browser, os = "Unknown", "Unknown"
	if ua == "" {
		return browser, os
	}

	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		browser = "Opera"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	case strings.Contains(ua, "curl/"):
		browser = "curl"
	}

	switch {
	case strings.Contains(ua, "Windows"):
		os = "Windows"
	case strings.Contains(ua, "Android"):
		os = "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		os = "iOS"
	case strings.Contains(ua, "Mac OS X"):
		os = "macOS"
	case strings.Contains(ua, "Linux"):
		os = "Linux"
	}

	return browser, os
}
