// Package rankcache caches ranked posting-id lists per canonical criteria
// key. The corpus changes slowly relative to read traffic, so a short TTL
// absorbs most of the ranking cost.
package rankcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/db"
)

const keyPrefix = "vacmatch:rank:"

// store is the consumer interface for the rank cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores ranked id lists in a key-value store with a TTL.
// Store failures degrade to recomputation and are never surfaced to callers.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a rank cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached ranked ids for a criteria key, if present and intact.
func (c *Cache) Get(ctx context.Context, criteriaKey string) ([]int64, bool) {
	data, err := c.store.Get(ctx, keyPrefix+criteriaKey)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read rank cache", zap.String("key", criteriaKey), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Warn("Failed to decode rank cache entry", zap.String("key", criteriaKey), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return ids, true
}

// Put stores a ranked id list. An empty result is cached too: "nothing
// matches" is as expensive to recompute as a full ranking.
func (c *Cache) Put(ctx context.Context, criteriaKey string, ids []int64) {
	data, err := json.Marshal(ids)
	if err != nil {
		c.logger.Warn("Failed to encode rank cache entry", zap.String("key", criteriaKey), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, keyPrefix+criteriaKey, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write rank cache", zap.String("key", criteriaKey), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
