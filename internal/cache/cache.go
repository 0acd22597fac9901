// Package cache holds the byte-oriented caches behind the snapshot cache.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store for serialized values.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
