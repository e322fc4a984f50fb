package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "curius-feed/pkg/errors"
)

// defaultChunkSize bounds the number of keys per batched store read. Ten
// keys keeps individual MGET payloads small even when every slot holds a
// full content page.
const defaultChunkSize = 10

// Gateway is the JSON cache-aside layer over a Store. It has no knowledge
// of domain types; callers pick the value type per call through the generic
// package functions.
//
// An undecodable stored blob is treated as corruption: the entry is deleted
// best-effort and the read degrades to a miss. Only genuine store
// communication faults surface as errors.
type Gateway struct {
	store     Store
	chunkSize int
	logger    *zap.Logger
	metrics   *Metrics
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithChunkSize overrides the batch-read chunk size.
func WithChunkSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.chunkSize = n
		}
	}
}

// WithMetrics wires prometheus counters into the gateway.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway builds a gateway over store.
func NewGateway(store Store, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		store:     store,
		chunkSize: defaultChunkSize,
		logger:    logger.Named("cache"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store exposes the underlying store for health checks.
func (g *Gateway) Store() Store { return g.store }

// Lookup reads and decodes the value under key. A miss is (nil, nil).
func Lookup[T any](ctx context.Context, g *Gateway, key string) (*T, error) {
	raw, found, err := g.store.Get(ctx, key)
	if err != nil {
		g.metrics.storeError()
		return nil, apperrors.Transport("cache.Lookup", "store get failed", err)
	}
	if !found {
		g.metrics.miss()
		return nil, nil
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		g.dropCorrupted(ctx, key, err)
		return nil, nil
	}
	g.metrics.hit()
	return &value, nil
}

// Put serializes value and stores it under key with the given TTL.
func Put[T any](ctx context.Context, g *Gateway, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.Decode("cache.Put", "serializing value for caching", err)
	}
	if err := g.store.Set(ctx, key, raw, ttl); err != nil {
		g.metrics.storeError()
		return apperrors.Transport("cache.Put", "store set failed", err)
	}
	return nil
}

// LookupMany reads keys in fixed-size chunks, one concurrent batched store
// read per chunk, and reassembles the results into input order. Per-slot
// corruption degrades that slot to a miss; a chunk-level transport failure
// fails the entire call — partial success is never returned.
func LookupMany[T any](ctx context.Context, g *Gateway, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return []*T{}, nil
	}

	raw := make([][]byte, len(keys))
	group, groupCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(keys); start += g.chunkSize {
		start := start
		end := min(start+g.chunkSize, len(keys))
		group.Go(func() error {
			// Chunks write disjoint index ranges of raw, so no locking.
			values, err := g.store.MGet(groupCtx, keys[start:end])
			if err != nil {
				return apperrors.Transport("cache.LookupMany", "store mget failed", err)
			}
			copy(raw[start:end], values)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		g.metrics.storeError()
		return nil, err
	}

	results := make([]*T, len(keys))
	for i, blob := range raw {
		if blob == nil {
			g.metrics.miss()
			continue
		}
		var value T
		if err := json.Unmarshal(blob, &value); err != nil {
			g.dropCorrupted(ctx, keys[i], err)
			continue
		}
		g.metrics.hit()
		results[i] = &value
	}
	return results, nil
}

// Fetch implements cache-aside: return the cached value, or compute, store
// and return it. Concurrent callers missing on the same key may both invoke
// compute; upstream calls are idempotent and the TTL bounds the waste, so
// no single-flight coalescing is done.
func Fetch[T any](ctx context.Context, g *Gateway, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	cached, err := Lookup[T](ctx, g, key)
	if err != nil {
		return zero, err
	}
	if cached != nil {
		return *cached, nil
	}

	g.logger.Debug("cache miss, computing value", zap.String("key", key))
	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if err := Put(ctx, g, key, value, ttl); err != nil {
		return zero, err
	}
	return value, nil
}

// dropCorrupted deletes an undecodable entry so the next read recomputes it.
// Deletion is best-effort; a failure here must not break the degraded miss.
func (g *Gateway) dropCorrupted(ctx context.Context, key string, cause error) {
	g.metrics.corruption()
	g.logger.Warn("cache entry failed to decode, deleting",
		zap.String("key", key),
		zap.Error(cause))
	if err := g.store.Delete(ctx, key); err != nil {
		g.logger.Warn("failed to delete corrupted cache entry",
			zap.String("key", key),
			zap.Error(err))
	}
}
