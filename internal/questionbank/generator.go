package questionbank

import (
	"context"
	"fmt"
	"math/rand"

	"doubt-battle-service/internal/domain"
)

const (
	// MinQuestions and MaxQuestions bound the per-battle question count.
	MinQuestions = 5
	MaxQuestions = 10
)

// PoolLoader fetches the curated question pool for a fixed subject
// (from a backing store, a cache, or embedded content).
type PoolLoader interface {
	LoadPool(ctx context.Context, subject domain.Subject) ([]domain.Question, error)
}

// Author produces questions for free-form topics (custom subject).
type Author interface {
	ComposeQuestions(ctx context.Context, topic string, count int) ([]domain.Question, error)
}

// Generator assembles the fixed, ordered question list for a new battle.
// It is pure with respect to battle state: the same (subject, count, seed)
// always yields the same list.
type Generator struct {
	pools  PoolLoader
	author Author
}

func NewGenerator(pools PoolLoader, author Author) *Generator {
	return &Generator{pools: pools, author: author}
}

// Generate returns exactly count questions for the subject, with no duplicate
// prompts. For fixed subjects the selection is a seeded sample of the curated
// pool, so the same (subject, count, seed) yields the same list. For the
// custom subject the questions come from the authoring service and topic is
// required.
func (g *Generator) Generate(ctx context.Context, subject domain.Subject, count int, topic string, seed int64) ([]domain.Question, error) {
	if !subject.Valid() {
		return nil, fmt.Errorf("%w: unknown subject %q", domain.ErrInvalidRequest, subject)
	}
	if count < MinQuestions || count > MaxQuestions {
		return nil, fmt.Errorf("%w: question count must be between %d and %d", domain.ErrInvalidRequest, MinQuestions, MaxQuestions)
	}

	if subject == domain.SubjectCustom {
		return g.compose(ctx, topic, count)
	}

	pool, err := g.pools.LoadPool(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	questions, err := samplePool(pool, count, seed)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (g *Generator) compose(ctx context.Context, topic string, count int) ([]domain.Question, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required for custom battles", domain.ErrInvalidRequest)
	}
	if g.author == nil {
		return nil, fmt.Errorf("%w: no authoring service configured", domain.ErrGenerationFailed)
	}
	questions, err := g.author.ComposeQuestions(ctx, topic, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if err := validateList(questions, count); err != nil {
		return nil, fmt.Errorf("%w: authoring service returned %v", domain.ErrGenerationFailed, err)
	}
	return copyQuestions(questions), nil
}

// samplePool picks count questions from the pool in seeded shuffle order,
// skipping repeated prompts so one battle never asks the same thing twice.
func samplePool(pool []domain.Question, count int, seed int64) ([]domain.Question, error) {
	order := rand.New(rand.NewSource(seed)).Perm(len(pool))

	seen := make(map[string]struct{}, count)
	picked := make([]domain.Question, 0, count)
	for _, i := range order {
		q := pool[i]
		if err := validateQuestion(q); err != nil {
			continue // malformed pool entries are skipped, not fatal
		}
		if _, dup := seen[q.Prompt]; dup {
			continue
		}
		seen[q.Prompt] = struct{}{}
		picked = append(picked, q)
		if len(picked) == count {
			break
		}
	}
	if len(picked) < count {
		return nil, fmt.Errorf("%w: pool has only %d usable questions, need %d", domain.ErrGenerationFailed, len(picked), count)
	}
	return copyQuestions(picked), nil
}

func validateList(questions []domain.Question, count int) error {
	if len(questions) != count {
		return fmt.Errorf("%d questions, expected %d", len(questions), count)
	}
	seen := make(map[string]struct{}, count)
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %v", i, err)
		}
		if _, dup := seen[q.Prompt]; dup {
			return fmt.Errorf("duplicate prompt %q", q.Prompt)
		}
		seen[q.Prompt] = struct{}{}
	}
	return nil
}

func validateQuestion(q domain.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("needs at least 2 options, has %d", len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	unique := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := unique[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		unique[opt] = struct{}{}
	}
	return nil
}

// copyQuestions deep-copies the list so a battle owns its questions outright.
func copyQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
