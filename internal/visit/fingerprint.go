// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package visit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/daracheol/doorbell/internal/cache"
)

// localFingerprint is the sentinel for loopback and unresolvable addresses.
const localFingerprint = "localhost"

// ClientAddress extracts the client's network address: the first entry of
// X-Forwarded-For when present, else the socket address without its port.
func ClientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// Fingerprint derives the anonymized visitor identity from a raw network
// address. The raw address is never retained: the result is the first 8 hex
// characters of its SHA-256 digest, or the localhost sentinel for loopback
// and empty addresses.
func Fingerprint(addr string) string {
	if isLocal(addr) {
		return localFingerprint
	}
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])[:8]
}

func isLocal(addr string) bool {
	if addr == "" || addr == "localhost" {
		return true
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// Guard suppresses repeated alerts for the same fingerprint within the
// cooldown window.
type Guard struct {
	cooldowns *cache.Store[time.Time]
}

// NewGuard creates a cooldown guard backed by store. The store's TTL is the
// cooldown window.
func NewGuard(store *cache.Store[time.Time]) *Guard {
	return &Guard{cooldowns: store}
}

// Admit records the fingerprint and reports whether the caller may proceed.
// The write happens atomically with the check, so concurrent requests from
// the same fingerprint admit exactly one.
func (g *Guard) Admit(fingerprint string) bool {
	return g.cooldowns.SetIfAbsent(fingerprint, time.Now())
}
