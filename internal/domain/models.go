package domain

import "time"

// Subject identifies the question pool a battle draws from.
type Subject string

const (
	SubjectClass10Science Subject = "class10-science"
	SubjectClass10Math    Subject = "class10-math"
	SubjectCompetitive    Subject = "competitive"
	SubjectCustom         Subject = "custom"
)

// Valid reports whether the subject is one of the known pools.
func (s Subject) Valid() bool {
	switch s {
	case SubjectClass10Science, SubjectClass10Math, SubjectCompetitive, SubjectCustom:
		return true
	}
	return false
}

// BattleStatus is the lifecycle state of a battle: pending until both
// participants are known, active while questions are open, completed forever after.
type BattleStatus string

const (
	StatusPending   BattleStatus = "pending"
	StatusActive    BattleStatus = "active"
	StatusCompleted BattleStatus = "completed"
)

// Question models an MCQ question with exactly one correct option.
// A battle's question list is immutable once created and shared by both participants.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Answer records one participant's submission for a single question index.
// SelectedIndex is nil when the per-question deadline elapsed without a submission.
type Answer struct {
	SelectedIndex    *int `json:"selectedIndex"`
	TimeTakenSeconds int  `json:"timeTakenSeconds"`
	Correct          bool `json:"correct"`
	PointsAwarded    int  `json:"pointsAwarded"`
}

// QuestionView is the client-facing shape of a question. The correct index and
// explanation are withheld until the participant has answered.
type QuestionView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// BattleView is a snapshot of a battle safe to send to clients.
type BattleView struct {
	Code                 string        `json:"battleCode"`
	Subject              Subject       `json:"subject"`
	Status               BattleStatus  `json:"status"`
	ChallengerID         string        `json:"challengerId"`
	OpponentID           string        `json:"opponentId,omitempty"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	QuestionCount        int           `json:"questionCount"`
	ChallengerScore      int           `json:"challengerScore"`
	OpponentScore        int           `json:"opponentScore"`
	WinnerID             string        `json:"winnerId,omitempty"`
	TimeLimitSeconds     int           `json:"timeLimitSeconds"`
	CreatedAt            time.Time     `json:"createdAt"`
	Question             *QuestionView `json:"question,omitempty"`
}

// AnswerOutcome summarizes the result of one submission for the answering participant.
type AnswerOutcome struct {
	QuestionIndex     int    `json:"questionIndex"`
	Correct           bool   `json:"correct"`
	CorrectIndex      int    `json:"correctIndex"`
	Explanation       string `json:"explanation,omitempty"`
	PointsAwarded     int    `json:"pointsAwarded"`
	TotalScore        int    `json:"totalScore"`
	BattleComplete    bool   `json:"battleComplete"`
	WinnerID          string `json:"winnerId,omitempty"`
	NextQuestionIndex int    `json:"nextQuestionIndex"`
}

// BattleResult is the completion signal handed to the leaderboard aggregator.
// BattleCode doubles as the idempotency key: replaying the same result is a no-op.
type BattleResult struct {
	BattleCode   string
	ChallengerID string
	OpponentID   string
	ChallengerXP int
	OpponentXP   int
	WinnerID     string // empty on a tie
}

// LeaderboardEntry is a user's cumulative standing across battles.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	XP     int    `json:"xp"`
	Wins   int    `json:"wins"`
	Streak int    `json:"streak"`
}
