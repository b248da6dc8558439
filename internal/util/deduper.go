package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper remembers processed decision keys in redis so an approved
// suggestion is not re-raised by the next analyzer run.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// MarkProcessed records a dedupe key as handled.
func (d *Deduper) MarkProcessed(ctx context.Context, tenantID, key string) error {
	return d.rdb.Set(ctx, d.redisKey(tenantID, key), 1, d.ttl).Err()
}

// WasProcessed reports whether a dedupe key was handled before. When redis
// is unavailable it returns false so processing is never blocked.
func (d *Deduper) WasProcessed(ctx context.Context, tenantID, key string) bool {
	n, err := d.rdb.Exists(ctx, d.redisKey(tenantID, key)).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("tenant_id", tenantID),
				zap.String("dedup_key", key),
				zap.Error(err),
			)
		}
		return false
	}
	return n > 0
}

// AcquireOnce marks a key processed if it was not already.
// Returns true if this is the FIRST time processing.
func (d *Deduper) AcquireOnce(ctx context.Context, tenantID, key string) bool {
	ok, err := d.rdb.SetNX(ctx, d.redisKey(tenantID, key), 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup acquire failed, allowing processing",
				zap.String("tenant_id", tenantID),
				zap.String("dedup_key", key),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated decision",
			zap.String("tenant_id", tenantID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

func (d *Deduper) redisKey(tenantID, key string) string {
	return fmt.Sprintf("dedup:%s:%s", tenantID, key)
}
