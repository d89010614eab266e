// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package visit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/daracheol/doorbell/internal/alert"
	"github.com/daracheol/doorbell/internal/geo"
	"github.com/daracheol/doorbell/internal/logging"
	"github.com/daracheol/doorbell/internal/metrics"
)

// Enricher resolves an IP to geolocation and proxy status. Implemented by
// geo.Service.
type Enricher interface {
	Enrich(ctx context.Context, ip string) geo.Result
}

// Queue accepts composed alert messages. Implemented by alert.Batcher.
type Queue interface {
	Enqueue(msg alert.Message)
}

// TrackerConfig wires the tracker's classification and cookie behavior.
type TrackerConfig struct {
	AllowedReferrers []string
	FaviconPath      string
	// CookieMaxAge is the visited-cookie lifetime in seconds.
	CookieMaxAge int
	ChannelID    string
	Production   bool
	// EnrichTimeout bounds the detached enrichment calls per event.
	EnrichTimeout time.Duration
}

// Tracker runs the full pipeline for each inbound request: classify, set the
// visited cookie, check the cooldown, then enrich and compose detached from
// the request so the response is never delayed.
type Tracker struct {
	classifier *Classifier
	guard      *Guard
	enricher   Enricher
	composer   *alert.Composer
	queue      Queue
	cfg        TrackerConfig

	// pending tracks detached pipeline goroutines for clean shutdown.
	pending sync.WaitGroup
}

// NewTracker creates a tracker.
func NewTracker(guard *Guard, enricher Enricher, queue Queue, cfg TrackerConfig) *Tracker {
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 30 * time.Second
	}
	return &Tracker{
		classifier: NewClassifier(cfg.AllowedReferrers, cfg.FaviconPath),
		guard:      guard,
		enricher:   enricher,
		composer:   alert.NewComposer(),
		queue:      queue,
		cfg:        cfg,
	}
}

// Middleware observes every request and passes it through unchanged. Nothing
// in the pipeline can fail the wrapped handler.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Observe(w, r)
		next.ServeHTTP(w, r)
	})
}

// Observe runs the synchronous half of the pipeline: classification, cookie,
// fingerprint, and cooldown check. Enrichment and composition continue in a
// detached goroutine for admitted visits.
func (t *Tracker) Observe(w http.ResponseWriter, r *http.Request) {
	decision := t.classifier.Classify(r)
	metrics.RecordClassification(decision)
	if decision != DecisionTrackable {
		return
	}

	// The cookie is refreshed on every trackable request, including ones
	// the cooldown suppresses below.
	SetVisitedCookie(w, t.cfg.CookieMaxAge, t.cfg.Production)

	addr := ClientAddress(r)
	fingerprint := Fingerprint(addr)
	if !t.guard.Admit(fingerprint) {
		metrics.VisitsSuppressed.Inc()
		logging.Debug().Str("fingerprint", fingerprint).Msg("visit suppressed by cooldown")
		return
	}
	metrics.VisitsTracked.Inc()

	event := newEvent(r, fingerprint)
	lookupIP := addr
	if fingerprint == localFingerprint {
		lookupIP = ""
	}

	t.pending.Add(1)
	go t.deliver(event, lookupIP)
}

// deliver enriches, composes, and enqueues one event. Every failure is
// contained here; nothing propagates back to the request path.
func (t *Tracker) deliver(event Event, ip string) {
	defer t.pending.Done()
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Interface("panic", rec).Str("path", event.Path).Msg("tracking pipeline panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.EnrichTimeout)
	defer cancel()

	result := t.enricher.Enrich(ctx, ip)

	text := t.composer.Compose(alert.VisitReport{
		Timestamp:   event.Timestamp,
		Path:        event.Path,
		Method:      event.Method,
		Protocol:    event.Protocol,
		Referrer:    event.Referrer,
		Query:       event.Query,
		Headers:     event.Headers,
		Fingerprint: event.Fingerprint,
		Geo:         result.Record,
		Proxy:       result.Proxy,
	})

	t.queue.Enqueue(alert.Message{
		Text:      text,
		ChannelID: t.cfg.ChannelID,
		CreatedAt: time.Now(),
	})
	logging.Info().
		Str("fingerprint", event.Fingerprint).
		Str("path", event.Path).
		Msg("visit alert enqueued")
}

// Drain waits for detached pipeline goroutines to finish.
func (t *Tracker) Drain() {
	t.pending.Wait()
}
