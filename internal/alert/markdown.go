// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import "strings"

// markdownEscaper backslash-prefixes every character MarkdownV2 reserves.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// EscapeMarkdownV2 escapes externally sourced text so it renders literally
// under the channel's MarkdownV2 parse mode. Every value interpolated into a
// composed message must pass through here.
func EscapeMarkdownV2(s string) string {
	return markdownEscaper.Replace(s)
}

// CountryFlag renders a two-letter ISO country code as its flag glyph using
// regional indicator symbols, or a globe when the code is not resolvable.
func CountryFlag(code string) string {
	if len(code) != 2 {
		return "🌐"
	}
	var flag []rune
	for _, c := range strings.ToUpper(code) {
		if c < 'A' || c > 'Z' {
			return "🌐"
		}
		flag = append(flag, 0x1F1E6+c-'A')
	}
	return string(flag)
}
