// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"a_b", `a\_b`},
		{"*bold*", `\*bold\*`},
		{"[link](url)", `\[link\]\(url\)`},
		{"~`>#+-=|{}.!", "\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
		{"https://daracheol.com/", `https://daracheol\.com/`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.input); got != tt.want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCountryFlag(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"KR", "🇰🇷"},
		{"us", "🇺🇸"},
		{"DE", "🇩🇪"},
		{"", "🌐"},
		{"KOR", "🌐"},
		{"K1", "🌐"},
	}

	for _, tt := range tests {
		if got := CountryFlag(tt.code); got != tt.want {
			t.Errorf("CountryFlag(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
