package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"doubt-battle-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Leaderboard keeps cumulative standings in Redis:
//
//	ZADD  leaderboard:xp            {xp} {userID}   (via ZINCRBY)
//	HSET  leaderboard:user:{userID} wins {n} streak {n}
//	SET   leaderboard:applied:{battleCode} 1        (exactly-once marker)
//
// A battle result is applied with a single EVAL so the applied marker and the
// stat writes land together: the marker is checked first and set only after
// every write, so a failed apply leaves the battle unclaimed and the engine's
// next settle retry can deliver it again.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

var applyResultScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
for i = 0, 1 do
  local user = ARGV[i*3+1]
  local xp = ARGV[i*3+2]
  local outcome = ARGV[i*3+3]
  local statsKey = KEYS[3+i]
  redis.call("ZINCRBY", KEYS[2], xp, user)
  if outcome == "win" then
    redis.call("HINCRBY", statsKey, "wins", 1)
    redis.call("HINCRBY", statsKey, "streak", 1)
  elseif outcome == "loss" then
    redis.call("HSET", statsKey, "streak", 0)
  end
end
redis.call("SET", KEYS[1], "1")
return 1
`)

func (l *Leaderboard) ApplyResult(ctx context.Context, result domain.BattleResult) error {
	keys := []string{
		l.appliedKey(result.BattleCode),
		l.xpKey(),
		l.userKey(result.ChallengerID),
		l.userKey(result.OpponentID),
	}
	argv := []interface{}{
		result.ChallengerID, result.ChallengerXP, outcomeFor(result.ChallengerID, result.WinnerID),
		result.OpponentID, result.OpponentXP, outcomeFor(result.OpponentID, result.WinnerID),
	}
	if err := applyResultScript.Run(ctx, l.client, keys, argv...).Err(); err != nil {
		return fmt.Errorf("apply battle result: %w", err)
	}
	return nil
}

// outcomeFor classifies a participant's result; on a tie ("" winner) wins and
// streak stay untouched for both sides.
func outcomeFor(userID, winnerID string) string {
	switch winnerID {
	case userID:
		return "win"
	case "":
		return "tie"
	default:
		return "loss"
	}
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	ranked, err := l.client.ZRevRangeWithScores(ctx, l.xpKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read xp ranking: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for _, member := range ranked {
		userID, _ := member.Member.(string)
		stats, err := l.client.HGetAll(ctx, l.userKey(userID)).Result()
		if err != nil {
			return nil, fmt.Errorf("read stats for %s: %w", userID, err)
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID: userID,
			XP:     int(member.Score),
			Wins:   atoiField(stats, "wins"),
			Streak: atoiField(stats, "streak"),
		})
	}

	// The ZSET orders ties by member descending, so re-sort with the full
	// tiebreak chain: xp desc, wins desc, userID asc.
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

func (l *Leaderboard) xpKey() string {
	return "leaderboard:xp"
}

func (l *Leaderboard) userKey(userID string) string {
	return "leaderboard:user:" + userID
}

func (l *Leaderboard) appliedKey(battleCode string) string {
	return "leaderboard:applied:" + battleCode
}

func atoiField(fields map[string]string, name string) int {
	if raw, ok := fields[name]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}
