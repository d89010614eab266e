// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/daracheol/doorbell/internal/geo"
)

func sampleReport() VisitReport {
	return VisitReport{
		Timestamp:   time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		Path:        "/projects/42",
		Method:      "GET",
		Protocol:    "HTTP/1.1",
		Referrer:    "https://daracheol.com/",
		Query:       url.Values{},
		Headers:     http.Header{"User-Agent": {"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"}},
		Fingerprint: "ab12cd34",
		Geo: &geo.Record{
			IP:          "203.0.113.9",
			Country:     "South Korea",
			CountryCode: "KR",
			Region:      "11",
			City:        "Seoul",
			Lat:         37.5665,
			Lon:         126.978,
			Timezone:    "Asia/Seoul",
			ISP:         "Example ISP",
			Org:         "Example Org",
			ASN:         "AS4766 Example Telecom",
		},
		Proxy: geo.ProxyStatusNo,
	}
}

func TestComposeFullReport(t *testing.T) {
	text := NewComposer().Compose(sampleReport())

	for _, want := range []string{
		"🔔 *New visit*",
		"Path: /projects/42",
		"Method: GET",
		`Referrer: https://daracheol\.com/`,
		"Fingerprint: ab12cd34",
		"Browser: Chrome",
		"OS: macOS",
		"🇰🇷",
		`Country: South Korea \(KR\)`,
		"City: Seoul, 11",
		"Proxy/VPN: no",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("composed message missing %q\n%s", want, text)
		}
	}
	if strings.Contains(text, "Proxy headers") {
		t.Error("proxy header block should be absent when no proxy headers are set")
	}
}

func TestComposeAbsentGeoRendersUnknown(t *testing.T) {
	rep := sampleReport()
	rep.Geo = nil
	rep.Proxy = geo.ProxyStatusUnknown
	rep.Headers = http.Header{}

	text := NewComposer().Compose(rep)

	for _, want := range []string{
		"*Location* 🌐",
		"Country: Unknown",
		"City: Unknown",
		"ISP: Unknown",
		"Proxy/VPN: Unknown",
		"Browser: Unknown",
		"Language: N/A",
		"DNT: N/A",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("composed message missing %q\n%s", want, text)
		}
	}
}

func TestComposeProxyHeaderBlock(t *testing.T) {
	rep := sampleReport()
	rep.Headers.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rep.Headers.Set("Via", "1.1 proxy.example")

	text := NewComposer().Compose(rep)

	if !strings.Contains(text, "*Proxy headers*") {
		t.Fatalf("expected proxy header block\n%s", text)
	}
	if !strings.Contains(text, `x\-forwarded\-for: 203\.0\.113\.9, 10\.0\.0\.1`) {
		t.Errorf("expected escaped forwarded-for line\n%s", text)
	}
	if !strings.Contains(text, `via: 1\.1 proxy\.example`) {
		t.Errorf("expected escaped via line\n%s", text)
	}
}

func TestComposeEscapesQueryJSON(t *testing.T) {
	rep := sampleReport()
	rep.Query = url.Values{"q": {"hello world"}}

	text := NewComposer().Compose(rep)

	if !strings.Contains(text, `Query: \{"q":\["hello world"\]\}`) {
		t.Errorf("expected escaped query JSON\n%s", text)
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua          string
		wantBrowser string
		wantOS      string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0", "Edge", "Windows"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0", "Firefox", "Linux"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1", "Safari", "iOS"},
		{"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36", "Chrome", "Android"},
		{"curl/8.6.0", "curl", "Unknown"},
		{"", "Unknown", "Unknown"},
	}

	for _, tt := range tests {
		browser, os := parseUserAgent(tt.ua)
		if browser != tt.wantBrowser || os != tt.wantOS {
			t.Errorf("parseUserAgent(%q) = (%q, %q), want (%q, %q)", tt.ua, browser, os, tt.wantBrowser, tt.wantOS)
		}
	}
}
