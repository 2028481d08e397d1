package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the port for per-session state: session records, in-progress quiz
// flows and pending notices. Adapters live in internal/adapter.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites any existing value. A zero expiration keeps the item until deleted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete does not fail when the key is absent.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	// HGetAll returns an empty map (not ErrCacheMiss) for a missing hash.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	HSet(ctx context.Context, key string, field string, value string) error

	HDel(ctx context.Context, key string, fields ...string) error

	Expire(ctx context.Context, key string, expiration time.Duration) error

	// TryLock stores token under key only if the key is absent and reports whether it did.
	// The lock lapses after ttl.
	TryLock(ctx context.Context, key string, token string, ttl time.Duration) (bool, error)

	// Unlock deletes key only while it still holds token.
	Unlock(ctx context.Context, key string, token string) error
}
