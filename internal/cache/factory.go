package cache

import (
	"context"
	"fmt"

	"curius-feed/internal/config"
)

// NewStore builds the Store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisStore(cfg)
	case "dynamodb":
		return NewDynamoStore(ctx, cfg)
	case "memory":
		return NewMemoryStore(cfg.MemoryMaxItems), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
