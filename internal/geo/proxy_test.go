// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxyCheckYes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","203.0.113.9":{"proxy":"yes","type":"VPN"}}`))
	}))
	defer srv.Close()

	p := NewProxyClient(ProxyClientConfig{BaseURL: srv.URL})
	status, err := p.Check(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if status != ProxyStatusYes {
		t.Errorf("expected Yes, got %v", status)
	}
}

func TestProxyCheckNo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","203.0.113.9":{"proxy":"no","type":"Residential"}}`))
	}))
	defer srv.Close()

	p := NewProxyClient(ProxyClientConfig{BaseURL: srv.URL})
	status, err := p.Check(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if status != ProxyStatusNo {
		t.Errorf("expected No, got %v", status)
	}
}

func TestProxyCheckSendsKey(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"ok","203.0.113.9":{"proxy":"no"}}`))
	}))
	defer srv.Close()

	p := NewProxyClient(ProxyClientConfig{BaseURL: srv.URL, APIKey: "secret"})
	if _, err := p.Check(context.Background(), "203.0.113.9"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if gotQuery != "vpn=1&key=secret" {
		t.Errorf("expected vpn and key params, got %q", gotQuery)
	}
}

func TestProxyCheckFailuresReturnUnknown(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"provider denied", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"denied","message":"no key"}`))
		}},
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"missing entry", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewProxyClient(ProxyClientConfig{BaseURL: srv.URL})
			status, err := p.Check(context.Background(), "203.0.113.9")
			if err == nil {
				t.Error("expected an error")
			}
			if status != ProxyStatusUnknown {
				t.Errorf("expected Unknown sentinel, got %v", status)
			}
		})
	}
}
