package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	maxCodeTries = 32
)

// BattleStore is a Redis-aware implementation of app.BattleRepository.
// Notes:
//   - It keeps a local in-memory map of sessions to reuse the in-process
//     per-battle serialization and broadcast logic.
//   - Redis marks battle-code liveness with a TTL, which also guards code
//     allocation against collisions across instances.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans out snapshots.
type BattleStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	rnd     *rand.Rand
	battles map[string]*app.BattleSession
}

func NewBattleStore(client *redis.Client, ttl time.Duration) *BattleStore {
	return &BattleStore{
		client:  client,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		battles: make(map[string]*app.BattleSession),
	}
}

func (s *BattleStore) Create(build func(code string) *app.BattleSession) (*app.BattleSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxCodeTries; i++ {
		code := s.newCodeLocked()
		if _, taken := s.battles[code]; taken {
			continue
		}
		// SETNX claims the code across instances; a clash means retry.
		claimed, err := s.client.SetNX(context.Background(), s.key(code), "1", s.ttl).Result()
		if err == nil && !claimed {
			continue
		}
		session := build(code)
		s.battles[code] = session
		return session, nil
	}
	return nil, fmt.Errorf("%w: could not allocate a unique battle code", domain.ErrConflict)
}

func (s *BattleStore) Get(code string) (*app.BattleSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.battles[code]
	return session, ok
}

// Delete drops the local session and its liveness key.
func (s *BattleStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *BattleStore) key(code string) string {
	return "battle:session:" + code
}

func (s *BattleStore) newCodeLocked() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[s.rnd.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
