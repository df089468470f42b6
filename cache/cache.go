// Package cache keeps short-lived scan results so repeated requests do not hit the venues.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores values under a key for a limited time.
type Cache[V any] interface {
	Load(ctx context.Context, key string) (V, bool)
	Store(ctx context.Context, key string, value V, ttl time.Duration)
	Clear(ctx context.Context)
}

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-process cache. An entry is fresh while less than its ttl has passed since it was stored.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	now     func() time.Time
}

func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{entries: make(map[string]entry[V]), now: time.Now}
}

// WithClock replaces the time source, tests use it to expire entries.
func (m *Memory[V]) WithClock(now func() time.Time) *Memory[V] {
	m.now = now
	return m
}

func (m *Memory[V]) Load(_ context.Context, key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if m.now().Sub(e.storedAt) >= e.ttl {
		delete(m.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *Memory[V]) Store(_ context.Context, key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[V]{value: value, storedAt: m.now(), ttl: ttl}
}

func (m *Memory[V]) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry[V])
}
