package postgres

import (
	"context"
	"fmt"

	"doubt-battle-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Leaderboard persists cumulative standings in Postgres. The applied_battles
// table makes each battle's update exactly-once: marking the battle and
// upserting both participants happen in one transaction, so a replayed result
// (at-least-once delivery from the engine) is a no-op.
type Leaderboard struct {
	pool *pgxpool.Pool
}

func NewLeaderboard(pool *pgxpool.Pool) *Leaderboard {
	return &Leaderboard{pool: pool}
}

func (l *Leaderboard) ApplyResult(ctx context.Context, result domain.BattleResult) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO applied_battles (battle_code) VALUES ($1) ON CONFLICT (battle_code) DO NOTHING`,
		result.BattleCode)
	if err != nil {
		return fmt.Errorf("mark battle applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil // already applied; replay tolerated
	}

	if err := applyParticipant(ctx, tx, result.ChallengerID, result.ChallengerXP, result.WinnerID); err != nil {
		return err
	}
	if err := applyParticipant(ctx, tx, result.OpponentID, result.OpponentXP, result.WinnerID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func applyParticipant(ctx context.Context, tx pgx.Tx, userID string, xp int, winnerID string) error {
	var query string
	switch winnerID {
	case userID:
		query = `INSERT INTO leaderboard (user_id, xp, wins, streak) VALUES ($1, $2, 1, 1)
			ON CONFLICT (user_id) DO UPDATE
			SET xp = leaderboard.xp + EXCLUDED.xp,
			    wins = leaderboard.wins + 1,
			    streak = leaderboard.streak + 1`
	case "":
		// tie: xp only, wins and streak untouched
		query = `INSERT INTO leaderboard (user_id, xp, wins, streak) VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id) DO UPDATE
			SET xp = leaderboard.xp + EXCLUDED.xp`
	default:
		query = `INSERT INTO leaderboard (user_id, xp, wins, streak) VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id) DO UPDATE
			SET xp = leaderboard.xp + EXCLUDED.xp,
			    streak = 0`
	}
	if _, err := tx.Exec(ctx, query, userID, xp); err != nil {
		return fmt.Errorf("upsert standings for %s: %w", userID, err)
	}
	return nil
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT user_id, xp, wins, streak FROM leaderboard
		 ORDER BY xp DESC, wins DESC, user_id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.XP, &entry.Wins, &entry.Streak); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
