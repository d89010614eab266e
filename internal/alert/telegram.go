// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrNoToken reports a send attempted without a configured bot token. The
// token is deliberately not validated at startup so the host keeps serving
// requests with delivery disabled.
var ErrNoToken = errors.New("notification bot token is not configured")

// RateLimitError is returned when the channel answers 429. RetryAfter is the
// server-specified backoff, zero when the server gave none.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by notification channel (retry after %s)", e.RetryAfter)
}

// Sender delivers one text payload to a channel.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// TelegramConfig configures the Telegram Bot API client.
type TelegramConfig struct {
	// BaseURL is the API root, e.g. https://api.telegram.org.
	BaseURL string
	Token   string
	Timeout time.Duration
}

// TelegramClient sends messages through the Telegram Bot API using the
// MarkdownV2 parse mode.
type TelegramClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewTelegramClient creates a Telegram sender. A missing token is allowed
// here; Send reports ErrNoToken instead.
func NewTelegramClient(cfg TelegramConfig) *TelegramClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &TelegramClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send posts one message. A 429 reply maps to RateLimitError carrying the
// server-provided retry_after; every other failure is terminal for the
// caller.
func (t *TelegramClient) Send(ctx context.Context, channelID, text string) error {
	if t.token == "" {
		return ErrNoToken
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    channelID,
		Text:      text,
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("failed to encode send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read send response: %w", err)
	}

	var reply sendMessageResponse
	// Telegram error bodies are JSON too; a decode failure only matters for
	// the retry_after extraction below.
	_ = json.Unmarshal(raw, &reply)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: time.Duration(reply.Parameters.RetryAfter) * time.Second}
	}
	if resp.StatusCode != http.StatusOK || !reply.OK {
		return fmt.Errorf("notification channel returned status %d: %s", resp.StatusCode, reply.Description)
	}
	return nil
}
