package domain

import "errors"

var (
	// ErrInvalidRequest is returned for malformed input: a question count out of
	// range, an option index out of bounds, or a caller who is not a participant.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBattleNotFound is returned when no battle has the given code.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrConflict is returned for a duplicate join or a battle-code collision.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState is returned when an operation is not valid for the battle's
	// current status, e.g. answering a pending or completed battle.
	ErrInvalidState = errors.New("battle not in a valid state for this operation")
	// ErrStaleSubmission is returned when the submitted question index has already
	// advanced; the client must resync.
	ErrStaleSubmission = errors.New("question already advanced")
	// ErrDuplicateSubmission is returned when the participant already answered
	// this question index. The first submission stands.
	ErrDuplicateSubmission = errors.New("answer already submitted for this question")
	// ErrGenerationFailed indicates the upstream question source failed.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrPoolNotFound indicates no curated pool exists for a subject.
	ErrPoolNotFound = errors.New("question pool not found")
)
