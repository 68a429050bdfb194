package memory

import (
	"context"
	"sort"
	"sync"

	"doubt-battle-service/internal/domain"
)

// Leaderboard is an in-memory implementation of app.LeaderboardRepository.
// Results are applied exactly once per battle code.
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]*domain.LeaderboardEntry
	applied map[string]struct{}
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		entries: make(map[string]*domain.LeaderboardEntry),
		applied: make(map[string]struct{}),
	}
}

func (l *Leaderboard) ApplyResult(_ context.Context, result domain.BattleResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, done := l.applied[result.BattleCode]; done {
		return nil
	}
	l.applied[result.BattleCode] = struct{}{}

	l.applyParticipantLocked(result.ChallengerID, result.ChallengerXP, result.WinnerID)
	l.applyParticipantLocked(result.OpponentID, result.OpponentXP, result.WinnerID)
	return nil
}

func (l *Leaderboard) applyParticipantLocked(userID string, xp int, winnerID string) {
	entry, ok := l.entries[userID]
	if !ok {
		entry = &domain.LeaderboardEntry{UserID: userID}
		l.entries[userID] = entry
	}
	entry.XP += xp
	switch winnerID {
	case userID:
		entry.Wins++
		entry.Streak++
	case "":
		// tie: wins and streak untouched for both sides
	default:
		entry.Streak = 0
	}
}

func (l *Leaderboard) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		entries = append(entries, *entry)
	}
	l.mu.RUnlock()

	// xp desc, wins desc, then userID asc for a deterministic order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
