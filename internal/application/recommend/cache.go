package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

// CachedStrategy serves a strategy through the recommendation cache.
// Cache failures fall through to live computation. Results flagged with
// ErrDegraded are passed on but never stored.
type CachedStrategy struct {
	next  Strategy
	cache Cache
	ttl   time.Duration
}

func NewCachedStrategy(next Strategy, cache Cache, ttl time.Duration) *CachedStrategy {
	return &CachedStrategy{next: next, cache: cache, ttl: ttl}
}

func (c *CachedStrategy) Name() string { return c.next.Name() }

func (c *CachedStrategy) Recommend(ctx context.Context, req Request) ([]int64, error) {
	if c.cache == nil {
		return c.next.Recommend(ctx, req)
	}

	key := cacheKey(c.Name(), req)
	var cached []int64

	found, err := c.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.RecordCache(c.Name(), "error")
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache get failed")
	case found:
		metrics.RecordCache(c.Name(), "hit")
		logger.Ctx(ctx).Debug().Str("key", key).Msg("cache hit")
		return cached, nil
	default:
		metrics.RecordCache(c.Name(), "miss")
		logger.Ctx(ctx).Debug().Str("key", key).Msg("cache miss")
	}

	ids, err := c.next.Recommend(ctx, req)
	if errors.Is(err, ErrDegraded) {
		return ids, err
	}
	if err != nil {
		return nil, err
	}
	// empty results stay uncached so new interactions show up immediately
	if len(ids) > 0 {
		c.store(ctx, key, ids)
	}
	return ids, nil
}

// Refresh recomputes the entry for req and overwrites the cached value.
// A degraded recomputation leaves the existing entry in place.
func (c *CachedStrategy) Refresh(ctx context.Context, req Request) ([]int64, error) {
	ids, err := c.next.Recommend(ctx, req)
	key := cacheKey(c.Name(), req)
	if errors.Is(err, ErrDegraded) {
		logger.Ctx(ctx).Debug().Str("key", key).Msg("degraded result; keeping cached entry")
		return ids, nil
	}
	if err != nil {
		return nil, err
	}
	if c.cache == nil {
		return ids, nil
	}

	if len(ids) == 0 {
		if err := c.cache.Delete(ctx, key); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache delete failed")
		}
		return ids, nil
	}
	c.store(ctx, key, ids)
	return ids, nil
}

func (c *CachedStrategy) store(ctx context.Context, key string, ids []int64) {
	if err := c.cache.Set(ctx, key, ids, c.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
