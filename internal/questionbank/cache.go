package questionbank

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"doubt-battle-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachingPoolLoader wraps a PoolLoader with a TTL cache so repeated battle
// creations for the same subject do not hammer the backing store.
type CachingPoolLoader struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Subject]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachingPoolLoader(loader PoolLoader, ttl time.Duration) *CachingPoolLoader {
	return &CachingPoolLoader{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Subject]cachedPool),
	}
}

func (l *CachingPoolLoader) LoadPool(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	now := l.clock()

	l.mu.RLock()
	if entry, ok := l.cache[subject]; ok && entry.expiresAt.After(now) {
		l.mu.RUnlock()
		return entry.questions, nil
	}
	l.mu.RUnlock()

	result, err, _ := l.sf.Do(string(subject), func() (interface{}, error) {
		now := l.clock()
		l.mu.RLock()
		if entry, ok := l.cache[subject]; ok && entry.expiresAt.After(now) {
			l.mu.RUnlock()
			return entry.questions, nil
		}
		l.mu.RUnlock()

		pool, err := l.loader.LoadPool(ctx, subject)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.cache[subject] = cachedPool{
			questions: pool,
			expiresAt: now.Add(l.ttlWithJitter()),
		}
		l.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (l *CachingPoolLoader) ttlWithJitter() time.Duration {
	if l.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(l.ttl) / 10
	return l.ttl + time.Duration(l.rnd.Int63n(jitterMax+1))
}
