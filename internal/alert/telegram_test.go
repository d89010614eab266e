// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestTelegramSendSuccess(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	c := NewTelegramClient(TelegramConfig{BaseURL: srv.URL, Token: "123:abc"})
	if err := c.Send(context.Background(), "-100999", "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if gotBody.ChatID != "-100999" || gotBody.Text != "hello" {
		t.Errorf("unexpected request body %+v", gotBody)
	}
	if gotBody.ParseMode != "MarkdownV2" {
		t.Errorf("expected MarkdownV2 parse mode, got %q", gotBody.ParseMode)
	}
}

func TestTelegramSendNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a token")
	}))
	defer srv.Close()

	c := NewTelegramClient(TelegramConfig{BaseURL: srv.URL})
	if err := c.Send(context.Background(), "-100999", "hello"); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestTelegramSendRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	c := NewTelegramClient(TelegramConfig{BaseURL: srv.URL, Token: "123:abc"})
	err := c.Send(context.Background(), "-100999", "hello")

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s retry_after, got %s", rl.RetryAfter)
	}
}

func TestTelegramSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	c := NewTelegramClient(TelegramConfig{BaseURL: srv.URL, Token: "123:abc"})
	err := c.Send(context.Background(), "-100999", "hello")
	if err == nil {
		t.Fatal("expected an error for a 400 reply")
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		t.Error("a 400 reply must not map to RateLimitError")
	}
}
