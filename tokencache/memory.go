package tokencache

import (
	"context"
	"sync"
	"time"
)

// Memory is the default, process-wide in-memory cache. It does not survive
// restarts and is not shared across instances; use the redis backend when the
// gateway runs horizontally scaled.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

type MemoryOption func(*Memory)

func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:     DefaultTTL,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", ErrNotFound
	}
	return entry.token, nil
}

func (m *Memory) Put(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		token:     token,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of live-or-stale entries, for tests and diagnostics.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
