package adapter

import (
	"context"
	"sync"
	"time"

	"studyhub/internal/domain"
)

type memoryEntry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCacheAdapter is an in-process domain.Cache for development and tests.
// State is lost on restart and is not shared between server instances.
type MemoryCacheAdapter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryCacheAdapter creates an empty in-memory cache.
func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	return &MemoryCacheAdapter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// lookup returns a live entry; expired entries are evicted. Caller holds mu.
func (m *MemoryCacheAdapter) lookup(key string) (*memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e, true
}

func (m *MemoryCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok || e.hash != nil {
		return "", domain.ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &memoryEntry{value: value}
	if expiration > 0 {
		e.expiresAt = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCacheAdapter) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryCacheAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryCacheAdapter) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	if e, ok := m.lookup(key); ok {
		for k, v := range e.hash {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryCacheAdapter) HSet(ctx context.Context, key string, field string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok || e.hash == nil {
		e = &memoryEntry{hash: make(map[string]string)}
		m.entries[key] = e
	}
	e.hash[field] = value
	return nil
}

func (m *MemoryCacheAdapter) HDel(ctx context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok || e.hash == nil {
		return nil
	}
	for _, f := range fields {
		delete(e.hash, f)
	}
	if len(e.hash) == 0 {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryCacheAdapter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok {
		return nil
	}
	if expiration <= 0 {
		delete(m.entries, key)
		return nil
	}
	e.expiresAt = m.now().Add(expiration)
	return nil
}

func (m *MemoryCacheAdapter) TryLock(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	e := &memoryEntry{value: token}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *MemoryCacheAdapter) Unlock(ctx context.Context, key string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lookup(key); ok && e.hash == nil && e.value == token {
		delete(m.entries, key)
	}
	return nil
}
