// Package cache implements the cache-aside gateway that fronts every
// upstream call, over a pluggable key-value store with per-entry TTL.
package cache

import (
	"context"
	"time"
)

// Store abstracts the caching backend. Implementations exist for Redis,
// DynamoDB and an in-process map; the gateway has no knowledge of which one
// it is talking to.
type Store interface {
	// Get returns the raw value for key. A missing key is (nil, false, nil),
	// not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// MGet returns one slot per input key, in input order. A missing key
	// yields a nil slot. A transport failure fails the whole call.
	MGet(ctx context.Context, keys []string) ([][]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies connectivity for health checks.
	Ping(ctx context.Context) error

	Close() error
}
