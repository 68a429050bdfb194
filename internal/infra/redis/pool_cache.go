package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"doubt-battle-service/internal/domain"
	"doubt-battle-service/internal/questionbank"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PoolCache caches curated question pools in Redis (one JSON value per
// subject) and falls back to a loader on cache miss, so multiple service
// instances share one copy of each pool.
type PoolCache struct {
	client *redis.Client
	loader questionbank.PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPoolCache(client *redis.Client, loader questionbank.PoolLoader, ttl time.Duration) *PoolCache {
	return &PoolCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PoolCache) LoadPool(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	key := c.key(subject)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var pool []domain.Question
		if err := json.Unmarshal(raw, &pool); err == nil {
			return pool, nil
		}
		// corrupt entry: fall through and refill
	}

	result, err, _ := c.sf.Do(string(subject), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var pool []domain.Question
			if err := json.Unmarshal(raw, &pool); err == nil {
				return pool, nil
			}
		}

		pool, err := c.loader.LoadPool(ctx, subject)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(pool); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *PoolCache) key(subject domain.Subject) string {
	return "questionbank:pool:" + string(subject)
}

func (c *PoolCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
