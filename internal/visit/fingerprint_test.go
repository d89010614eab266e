// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package visit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daracheol/doorbell/internal/cache"
)

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "203.0.113.9", "10.0.0.1:443", "203.0.113.9"},
		{"forwarded chain takes first", "203.0.113.9, 10.0.0.1, 172.16.0.1", "10.0.0.1:443", "203.0.113.9"},
		{"forwarded chain with spaces", " 203.0.113.9 , 10.0.0.1", "10.0.0.1:443", "203.0.113.9"},
		{"socket address", "", "198.51.100.7:52114", "198.51.100.7"},
		{"socket address without port", "", "198.51.100.7", "198.51.100.7"},
		{"ipv6 socket address", "", "[2001:db8::1]:52114", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientAddress(r); got != tt.want {
				t.Errorf("ClientAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	// sha256("203.0.113.9") begins with these 8 hex characters.
	got := Fingerprint("203.0.113.9")
	if len(got) != 8 {
		t.Fatalf("expected 8-character digest, got %q", got)
	}
	if got == "203.0.11" {
		t.Error("fingerprint must not contain the raw address")
	}
	if again := Fingerprint("203.0.113.9"); again != got {
		t.Errorf("fingerprint must be stable, got %q then %q", got, again)
	}
	if other := Fingerprint("203.0.113.10"); other == got {
		t.Error("distinct addresses must not collide in tests")
	}
}

func TestFingerprintLocalSentinel(t *testing.T) {
	for _, addr := range []string{"", "127.0.0.1", "::1", "localhost"} {
		if got := Fingerprint(addr); got != "localhost" {
			t.Errorf("Fingerprint(%q) = %q, want localhost sentinel", addr, got)
		}
	}
	if got := Fingerprint("203.0.113.9"); got == "localhost" {
		t.Error("public address must not map to the sentinel")
	}
}

func TestGuardAdmitsOncePerWindow(t *testing.T) {
	g := NewGuard(cache.New[time.Time](50 * time.Millisecond))

	if !g.Admit("ab12cd34") {
		t.Fatal("first admit should proceed")
	}
	if g.Admit("ab12cd34") {
		t.Error("second admit inside the window must be suppressed")
	}
	if !g.Admit("ff00ff00") {
		t.Error("distinct fingerprints are independent")
	}

	time.Sleep(60 * time.Millisecond)
	if !g.Admit("ab12cd34") {
		t.Error("admit after the window expires should proceed")
	}
}

func TestGuardConcurrentAdmitSingleWinner(t *testing.T) {
	g := NewGuard(cache.New[time.Time](time.Minute))

	const n = 50
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() { results <- g.Admit("ab12cd34") }()
	}

	admitted := 0
	for i := 0; i < n; i++ {
		if <-results {
			admitted++
		}
	}
	if admitted != 1 {
		t.Errorf("expected exactly 1 admission, got %d", admitted)
	}
}
