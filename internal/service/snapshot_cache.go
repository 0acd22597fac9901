package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/cache"
	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/observability"
)

// SnapshotCache memoizes reconstructed snapshots. Keys carry the ledger
// watermark, so any append makes older entries unreachable. Cache failures
// count as misses.
type SnapshotCache struct {
	backend cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSnapshotCache wraps backend. A nil backend disables caching.
func NewSnapshotCache(backend cache.Cache, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *SnapshotCache {
	return &SnapshotCache{backend: backend, ttl: ttl, logger: logger, metrics: metrics}
}

func snapshotKey(kind domain.EntityKind, id, commitID, watermark int64) string {
	return fmt.Sprintf("snapshot:%s:%d:%d:%d", kind, id, commitID, watermark)
}

// load decodes a cached value into dst and reports whether it was found.
func (c *SnapshotCache) load(ctx context.Context, key string, dst any) bool {
	if c == nil || c.backend == nil {
		return false
	}
	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		c.metrics.RecordSnapshotLookup("error")
		return false
	}
	if !found {
		c.metrics.RecordSnapshotLookup("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("snapshot cache entry undecodable", zap.String("key", key), zap.Error(err))
		c.metrics.RecordSnapshotLookup("error")
		return false
	}
	c.metrics.RecordSnapshotLookup("hit")
	return true
}

func (c *SnapshotCache) store(ctx context.Context, key string, value any) {
	if c == nil || c.backend == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("snapshot encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
	}
}
