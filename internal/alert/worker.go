// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"context"
	"errors"
	"time"

	"github.com/daracheol/doorbell/internal/logging"
	"github.com/daracheol/doorbell/internal/metrics"
)

// WorkerConfig bounds the delivery worker's retry and pacing behavior.
type WorkerConfig struct {
	// QueueSize bounds payloads waiting for delivery.
	QueueSize int
	// MaxAttempts is the total number of sends allowed per payload,
	// including the first.
	MaxAttempts int
	// SuccessDelay is observed after every successful send to stay under
	// the channel's global throughput limit.
	SuccessDelay time.Duration
	// DefaultBackoff is slept after a rate-limit reply that carries no
	// retry_after value.
	DefaultBackoff time.Duration
}

// Worker is the single sequential consumer of flushed payloads. One payload
// is in flight at a time; a rate-limited payload goes to the back of the
// queue with its attempt count incremented, up to MaxAttempts sends.
type Worker struct {
	sender         Sender
	queue          chan Payload
	maxAttempts    int
	successDelay   time.Duration
	defaultBackoff time.Duration
}

// NewWorker creates a delivery worker reading from its own bounded queue.
func NewWorker(sender Sender, cfg WorkerConfig) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.SuccessDelay <= 0 {
		cfg.SuccessDelay = 3 * time.Second
	}
	if cfg.DefaultBackoff <= 0 {
		cfg.DefaultBackoff = 5 * time.Second
	}
	return &Worker{
		sender:         sender,
		queue:          make(chan Payload, cfg.QueueSize),
		maxAttempts:    cfg.MaxAttempts,
		successDelay:   cfg.SuccessDelay,
		defaultBackoff: cfg.DefaultBackoff,
	}
}

// Dispatch enqueues a payload without blocking. Reports false when the queue
// is full; the caller owns logging the drop.
func (w *Worker) Dispatch(p Payload) bool {
	select {
	case w.queue <- p:
		metrics.QueueDepth.Set(float64(len(w.queue)))
		return true
	default:
		return false
	}
}

// Run consumes the queue until ctx is cancelled. The loop is idle when the
// queue is empty and resumes on the next dispatch.
func (w *Worker) Run(ctx context.Context) error {
	logging.Info().Int("max_attempts", w.maxAttempts).Msg("delivery worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-w.queue:
			metrics.QueueDepth.Set(float64(len(w.queue)))
			w.process(ctx, p)
		}
	}
}

// process performs one send and resolves its outcome: delivered, re-enqueued
// behind pending work, or dropped.
func (w *Worker) process(ctx context.Context, p Payload) {
	p.Attempt++

	start := time.Now()
	err := w.sender.Send(ctx, p.ChannelID, p.Text)
	elapsed := time.Since(start)

	if err == nil {
		metrics.RecordDelivery("delivered", elapsed)
		logging.Info().
			Str("channel_id", p.ChannelID).
			Int("attempt", p.Attempt).
			Dur("duration", elapsed).
			Msg("payload delivered")
		w.sleep(ctx, w.successDelay)
		return
	}

	var rl *RateLimitError
	if errors.As(err, &rl) {
		if p.Attempt < w.maxAttempts {
			metrics.DeliveryRetries.Inc()
			if !w.Dispatch(p) {
				metrics.RecordDelivery("queue_full", elapsed)
				logging.Error().Str("channel_id", p.ChannelID).Msg("delivery queue full, dropping rate-limited payload")
			}
		} else {
			metrics.RecordDelivery("rate_limited_dropped", elapsed)
			logging.Error().
				Str("channel_id", p.ChannelID).
				Int("attempts", p.Attempt).
				Msg("payload dropped after repeated rate limiting")
		}
		backoff := rl.RetryAfter
		if backoff <= 0 {
			backoff = w.defaultBackoff
		}
		logging.Warn().Dur("backoff", backoff).Int("attempt", p.Attempt).Msg("rate limited by notification channel")
		w.sleep(ctx, backoff)
		return
	}

	metrics.RecordDelivery("failed", elapsed)
	logging.Error().Err(err).Str("channel_id", p.ChannelID).Msg("payload delivery failed")
}

// sleep blocks the delivery loop only, never producers.
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
