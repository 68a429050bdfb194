package redis

import (
	"context"
	"testing"
	"time"

	"doubt-battle-service/internal/domain"
	"doubt-battle-service/internal/questionbank"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPoolCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		PoolLoader: questionbank.NewStaticPoolLoader(questionbank.DefaultPools()),
	}
	cache := NewPoolCache(newClient(mr), loader, time.Minute)

	pool, err := cache.LoadPool(context.Background(), domain.SubjectClass10Science)
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	if len(pool) == 0 {
		t.Fatalf("expected a non-empty pool")
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit the Redis entry, loader not incremented.
	again, err := cache.LoadPool(context.Background(), domain.SubjectClass10Science)
	if err != nil {
		t.Fatalf("load pool 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(again) != len(pool) {
		t.Fatalf("cache returned %d questions, expected %d", len(again), len(pool))
	}
}

type countingLoader struct {
	questionbank.PoolLoader
	calls int
}

func (l *countingLoader) LoadPool(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	l.calls++
	return l.PoolLoader.LoadPool(ctx, subject)
}
