// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package alert

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/daracheol/doorbell/internal/logging"
	"github.com/daracheol/doorbell/internal/metrics"
)

// batchSeparator joins messages within one flushed payload. It contains no
// MarkdownV2 reserved characters so it needs no escaping.
const batchSeparator = "\n➖➖➖➖➖\n"

// Dispatcher accepts a flushed payload for delivery. Dispatch must not block;
// it reports false when the payload was not accepted.
type Dispatcher interface {
	Dispatch(p Payload) bool
}

// Batcher accumulates composed messages and flushes them on a fixed interval
// as one combined payload per channel. The buffer is bounded; when full the
// oldest pending message is dropped to admit the new one.
type Batcher struct {
	mu       sync.Mutex
	buf      []Message
	limit    int
	interval time.Duration
	out      Dispatcher
}

// NewBatcher creates a batcher flushing to out every interval, holding at
// most limit pending messages.
func NewBatcher(out Dispatcher, interval time.Duration, limit int) *Batcher {
	if limit <= 0 {
		limit = 256
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Batcher{
		buf:      make([]Message, 0, limit),
		limit:    limit,
		interval: interval,
		out:      out,
	}
}

// Enqueue appends a message to the pending buffer. When the buffer is at its
// limit the oldest message is evicted first.
func (b *Batcher) Enqueue(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) >= b.limit {
		b.buf = b.buf[1:]
		metrics.BatchDropped.Inc()
		logging.Warn().Int("limit", b.limit).Msg("batch buffer full, dropping oldest message")
	}
	b.buf = append(b.buf, msg)
}

// Flush combines all pending messages into one payload per channel, in
// arrival order, and hands them to the dispatcher. Messages enqueued during a
// flush land in the next cycle.
func (b *Batcher) Flush() {
	b.mu.Lock()
	pending := b.buf
	b.buf = make([]Message, 0, b.limit)
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	metrics.RecordBatchFlush(len(pending))

	// Group by channel preserving arrival order within each group.
	var channels []string
	texts := make(map[string][]string)
	for _, msg := range pending {
		if _, seen := texts[msg.ChannelID]; !seen {
			channels = append(channels, msg.ChannelID)
		}
		texts[msg.ChannelID] = append(texts[msg.ChannelID], msg.Text)
	}

	for _, ch := range channels {
		payload := Payload{
			Text:      strings.Join(texts[ch], batchSeparator),
			ChannelID: ch,
		}
		if !b.out.Dispatch(payload) {
			metrics.RecordDelivery("queue_full", 0)
			logging.Error().
				Str("channel_id", ch).
				Int("messages", len(texts[ch])).
				Msg("delivery queue full, dropping batch")
		}
	}
}

// Run flushes on the configured interval until ctx is cancelled, then drains
// any remaining messages. Implements suture.Service via the supervisor
// wrapper.
func (b *Batcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", b.interval).Msg("batcher started")
	for {
		select {
		case <-ctx.Done():
			b.Flush()
			return ctx.Err()
		case <-ticker.C:
			b.Flush()
		}
	}
}
