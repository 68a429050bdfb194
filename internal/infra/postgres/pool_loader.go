package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"doubt-battle-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PoolLoader loads curated question pools stored as JSONB, one row per subject.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPool(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_pools WHERE subject=$1`, string(subject)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPoolNotFound, subject)
	}
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question pool: %w", err)
	}
	return questions, nil
}
