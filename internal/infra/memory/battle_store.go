package memory

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
)

// codeAlphabet is the 36-symbol alphabet for shareable battle codes. Six
// symbols give ~2x10^9 combinations, enough to make collisions negligible.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	maxCodeTries = 32
)

// BattleStore is an in-memory implementation of app.BattleRepository.
type BattleStore struct {
	mu      sync.RWMutex
	rnd     *rand.Rand
	battles map[string]*app.BattleSession
}

func NewBattleStore() *BattleStore {
	return &BattleStore{
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		battles: make(map[string]*app.BattleSession),
	}
}

// Create allocates a fresh battle code, retrying internally on collision, and
// registers the session built with it.
func (s *BattleStore) Create(build func(code string) *app.BattleSession) (*app.BattleSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxCodeTries; i++ {
		code := s.newCodeLocked()
		if _, taken := s.battles[code]; taken {
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

// Delete removes a battle, e.g. when expiring completed sessions.
func (s *BattleStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, code)
}

func (s *BattleStore) newCodeLocked() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[s.rnd.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
