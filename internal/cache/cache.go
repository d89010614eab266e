// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

// Package cache provides a thread-safe in-memory TTL store.
//
// Doorbell runs two independent instances: geolocation results (10 minute
// TTL) and per-fingerprint alert cooldowns (5 minute TTL). A value is only
// served while younger than the TTL; expired entries are treated as absent
// and physically removed lazily on access plus by a background cleanup loop.
package cache

import (
	"sync"
	"time"
)

// entry is a stored value with its expiration time.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a thread-safe in-memory key-value store with TTL expiry.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// Stats is a snapshot of store performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// New creates a store whose entries expire after ttl.
// A background goroutine sweeps expired entries for the lifetime of the store.
func New[V any](ttl time.Duration) *Store[V] {
	s := &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}

	go s.cleanupLoop()

	return s
}

// newWithClock creates a store with an injectable clock for tests.
// No cleanup goroutine is started; expiry is checked on access.
func newWithClock[V any](ttl time.Duration, now func() time.Time) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get retrieves a value by key.
// A value is found only if it was stored less than the TTL ago; an expired
// entry is removed and reported as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		s.misses++
		var zero V
		return zero, false
	}

	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		s.misses++
		s.evictions++
		var zero V
		return zero, false
	}

	s.hits++
	return e.value, true
}

// Set stores a value under key with the store's TTL.
// An existing entry for the same key is overwritten and its TTL restarted.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
}

// SetIfAbsent stores a value under key only if no live entry exists.
// Returns true if the value was stored. The check and the write happen under
// one lock acquisition, so concurrent callers for the same key cannot both
// succeed within a TTL window. The cooldown guard depends on this.
func (s *Store[V]) SetIfAbsent(key string, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists {
		if now.Before(e.expiresAt) {
			s.hits++
			return false
		}
		s.evictions++
	}

	s.entries[key] = entry[V]{value: value, expiresAt: now.Add(s.ttl)}
	return true
}

// Delete removes a key. No-op if the key does not exist.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		delete(s.entries, key)
		s.evictions++
	}
}

// Len returns the current number of entries, expired or not.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// GetStats returns a snapshot of the store counters.
func (s *Store[V]) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		TotalKeys: int64(len(s.entries)),
	}
}

// cleanupLoop periodically removes expired entries.
func (s *Store[V]) cleanupLoop() {
	interval := s.ttl
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanup()
	}
}

// cleanup removes all expired entries.
func (s *Store[V]) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			s.evictions++
		}
	}
}
