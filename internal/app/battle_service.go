package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"doubt-battle-service/internal/domain"
)

// BattleRepository abstracts how battle sessions are stored and how battle
// codes are allocated (in-memory, Redis-backed, etc).
type BattleRepository interface {
	// Create allocates a fresh unique battle code, builds the session with it
	// and registers it. Code collisions are retried internally; callers never
	// observe them.
	Create(build func(code string) *BattleSession) (*BattleSession, error)
	Get(code string) (*BattleSession, bool)
}

// LeaderboardRepository owns cross-battle standings. ApplyResult must be
// idempotent per battle code so the service can deliver results at least once.
type LeaderboardRepository interface {
	ApplyResult(ctx context.Context, result domain.BattleResult) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// QuestionBank produces the fixed question list for a new battle.
type QuestionBank interface {
	Generate(ctx context.Context, subject domain.Subject, count int, topic string, seed int64) ([]domain.Question, error)
}

// Config holds the tunable scoring and pacing constants.
type Config struct {
	TimeLimitSeconds     int // per-question deadline, default 30
	BasePoints           int // awarded for any correct answer, default 10
	TimeBonusMax         int // extra points for an instant correct answer, default 10
	DefaultQuestionCount int // used when the creator does not ask for a count, default 5
}

func (c Config) withDefaults() Config {
	if c.TimeLimitSeconds <= 0 {
		c.TimeLimitSeconds = 30
	}
	if c.BasePoints <= 0 {
		c.BasePoints = 10
	}
	if c.TimeBonusMax <= 0 {
		c.TimeBonusMax = 10
	}
	if c.DefaultQuestionCount <= 0 {
		c.DefaultQuestionCount = 5
	}
	return c
}

// BattleService contains the duel use cases: create, join, answer, observe.
// The engine is server-authoritative; clients only submit answers and render
// the snapshots it hands back.
type BattleService struct {
	battles     BattleRepository
	leaderboard LeaderboardRepository
	bank        QuestionBank
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time
}

func NewBattleService(battles BattleRepository, leaderboard LeaderboardRepository, bank QuestionBank, cfg Config, logger *slog.Logger) *BattleService {
	return NewBattleServiceWithClock(battles, leaderboard, bank, cfg, logger, time.Now)
}

// NewBattleServiceWithClock is test-only for deterministic deadlines.
func NewBattleServiceWithClock(battles BattleRepository, leaderboard LeaderboardRepository, bank QuestionBank, cfg Config, logger *slog.Logger, now func() time.Time) *BattleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BattleService{
		battles:     battles,
		leaderboard: leaderboard,
		bank:        bank,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		now:         now,
	}
}

// CreateParams carries the creation request. OpponentID may be empty, in
// which case the battle stays pending until someone joins by code.
type CreateParams struct {
	Subject       domain.Subject
	QuestionCount int
	Topic         string
	ChallengerID  string
	OpponentID    string
}

// Create generates the question list and registers a new battle session.
func (s *BattleService) Create(ctx context.Context, params CreateParams) (domain.BattleView, error) {
	if params.ChallengerID == "" {
		return domain.BattleView{}, fmt.Errorf("%w: challenger id is required", domain.ErrInvalidRequest)
	}
	if params.OpponentID == params.ChallengerID && params.OpponentID != "" {
		return domain.BattleView{}, fmt.Errorf("%w: challenger cannot battle themselves", domain.ErrInvalidRequest)
	}
	count := params.QuestionCount
	if count == 0 {
		count = s.cfg.DefaultQuestionCount
	}

	questions, err := s.bank.Generate(ctx, params.Subject, count, params.Topic, s.now().UnixNano())
	if err != nil {
		return domain.BattleView{}, err
	}

	session, err := s.battles.Create(func(code string) *BattleSession {
		return newBattleSession(BattleSessionParams{
			Code:             code,
			Subject:          params.Subject,
			Questions:        questions,
			ChallengerID:     params.ChallengerID,
			OpponentID:       params.OpponentID,
			TimeLimitSeconds: s.cfg.TimeLimitSeconds,
			BasePoints:       s.cfg.BasePoints,
			TimeBonusMax:     s.cfg.TimeBonusMax,
		}, s.now)
	})
	if err != nil {
		return domain.BattleView{}, err
	}
	s.logger.Info("battle created",
		"battleCode", session.Code(),
		"subject", params.Subject,
		"questions", len(questions),
		"challenger", params.ChallengerID,
	)
	return session.view(), nil
}

// Join attaches the second participant and moves the battle to active.
func (s *BattleService) Join(ctx context.Context, code, joinerID string) (domain.BattleView, error) {
	session, ok := s.battles.Get(code)
	if !ok {
		return domain.BattleView{}, domain.ErrBattleNotFound
	}
	view, err := session.join(joinerID)
	if err != nil {
		return domain.BattleView{}, err
	}
	s.logger.Info("battle joined", "battleCode", code, "opponent", joinerID)
	return view, nil
}

// Get returns the current snapshot. Reading is enough to fire the lazy
// timeout sweep, so an abandoned battle drains to completed here too.
func (s *BattleService) Get(ctx context.Context, code string) (domain.BattleView, error) {
	session, ok := s.battles.Get(code)
	if !ok {
		return domain.BattleView{}, domain.ErrBattleNotFound
	}
	view := session.view()
	s.settle(ctx, session)
	return view, nil
}

// SubmitAnswer records one participant's answer for the battle's current
// question, scores it and advances the battle once both sides are in.
func (s *BattleService) SubmitAnswer(ctx context.Context, code, participantID string, questionIndex, selectedIndex, timeTakenSeconds int) (domain.AnswerOutcome, error) {
	session, ok := s.battles.Get(code)
	if !ok {
		return domain.AnswerOutcome{}, domain.ErrBattleNotFound
	}
	outcome, err := session.submitAnswer(participantID, questionIndex, selectedIndex, timeTakenSeconds)
	// The sweep inside submitAnswer may have completed the battle even when
	// this particular submission was rejected, so settle unconditionally.
	s.settle(ctx, session)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	return outcome, nil
}

// Subscribe returns a channel that receives battle snapshots on every state
// change. The caller must invoke the returned cancel function to avoid leaks.
func (s *BattleService) Subscribe(_ context.Context, code string) (<-chan domain.BattleView, func(), error) {
	session, ok := s.battles.Get(code)
	if !ok {
		return nil, nil, domain.ErrBattleNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leaderboard answers ranked queries over cumulative standings.
func (s *BattleService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.leaderboard.Top(ctx, limit)
}

// settle pushes a completed battle's result into the leaderboard exactly once.
// A failed push is retried the next time anything touches the battle, which
// together with the aggregator's idempotency gives exactly-once effects.
func (s *BattleService) settle(ctx context.Context, session *BattleSession) {
	result, ok := session.claimResult()
	if !ok {
		return
	}
	if err := s.leaderboard.ApplyResult(ctx, result); err != nil {
		s.logger.Error("leaderboard update failed, will retry on next touch",
			"battleCode", result.BattleCode, "error", err)
		session.finishSettle(false)
		return
	}
	s.logger.Info("battle settled", "battleCode", result.BattleCode, "winner", result.WinnerID)
	session.finishSettle(true)
}

// BattleSessionParams seeds a new session. Exported for infrastructure layers.
type BattleSessionParams struct {
	Code             string
	Subject          domain.Subject
	Questions        []domain.Question
	ChallengerID     string
	OpponentID       string
	TimeLimitSeconds int
	BasePoints       int
	TimeBonusMax     int
}

// BattleSession is the authoritative in-memory state of one battle. All
// mutations go through its mutex, which is the per-battle-code serialization
// point: concurrent submissions for the same battle queue here, and exactly
// one of them performs the advancement side effects.
type BattleSession struct {
	mu            sync.Mutex
	code          string
	subject       domain.Subject
	questions     []domain.Question
	challengerID  string
	opponentID    string
	status        domain.BattleStatus
	current       int
	answers       map[string]map[int]domain.Answer
	scores        map[string]int
	winnerID      string
	createdAt     time.Time
	timeLimit     time.Duration
	basePoints    int
	bonusMax      int
	questionStart time.Time // zero while pending; reset on every advancement
	settling      bool
	settled       bool
	subscribers   map[chan domain.BattleView]struct{}
	now           func() time.Time
}

// NewBattleSession is exported for infrastructure layers that need to seed sessions.
func NewBattleSession(params BattleSessionParams) *BattleSession {
	return newBattleSession(params, time.Now)
}

// NewBattleSessionWithClock is test-only for deterministic timestamps.
func NewBattleSessionWithClock(params BattleSessionParams, now func() time.Time) *BattleSession {
	return newBattleSession(params, now)
}

func newBattleSession(params BattleSessionParams, now func() time.Time) *BattleSession {
	s := &BattleSession{
		code:         params.Code,
		subject:      params.Subject,
		questions:    params.Questions,
		challengerID: params.ChallengerID,
		status:       domain.StatusPending,
		answers:      make(map[string]map[int]domain.Answer, 2),
		scores:       make(map[string]int, 2),
		createdAt:    now(),
		timeLimit:    time.Duration(params.TimeLimitSeconds) * time.Second,
		basePoints:   params.BasePoints,
		bonusMax:     params.TimeBonusMax,
		subscribers:  make(map[chan domain.BattleView]struct{}),
		now:          now,
	}
	s.answers[params.ChallengerID] = make(map[int]domain.Answer)
	if params.OpponentID != "" {
		s.opponentID = params.OpponentID
		s.answers[params.OpponentID] = make(map[int]domain.Answer)
		s.status = domain.StatusActive
		s.questionStart = s.createdAt
	}
	return s
}

// Code returns the battle's shareable join code.
func (s *BattleSession) Code() string {
	return s.code
}

func (s *BattleSession) join(joinerID string) (domain.BattleView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if joinerID == "" {
		return domain.BattleView{}, fmt.Errorf("%w: joiner id is required", domain.ErrInvalidRequest)
	}
	if joinerID == s.challengerID {
		return domain.BattleView{}, fmt.Errorf("%w: cannot join your own battle", domain.ErrConflict)
	}
	if s.opponentID != "" {
		return domain.BattleView{}, fmt.Errorf("%w: battle already has two participants", domain.ErrConflict)
	}

	s.opponentID = joinerID
	s.answers[joinerID] = make(map[int]domain.Answer)
	s.status = domain.StatusActive
	s.questionStart = s.now()
	return s.broadcastLocked(), nil
}

func (s *BattleSession) submitAnswer(participantID string, questionIndex, selectedIndex, timeTakenSeconds int) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A sweep-driven advancement must reach subscribers even when the
	// submission below is rejected.
	if s.sweepTimeoutsLocked(s.now()) {
		s.broadcastLocked()
	}

	// Precondition order matters: state, then staleness, then duplicates,
	// then input shape. The first failure wins.
	if s.status != domain.StatusActive {
		return domain.AnswerOutcome{}, domain.ErrInvalidState
	}
	if questionIndex != s.current {
		return domain.AnswerOutcome{}, domain.ErrStaleSubmission
	}
	if participantID != s.challengerID && participantID != s.opponentID {
		return domain.AnswerOutcome{}, fmt.Errorf("%w: not a participant in this battle", domain.ErrInvalidRequest)
	}
	if _, dup := s.answers[participantID][s.current]; dup {
		return domain.AnswerOutcome{}, domain.ErrDuplicateSubmission
	}
	question := s.questions[s.current]
	if selectedIndex < 0 || selectedIndex >= len(question.Options) {
		return domain.AnswerOutcome{}, fmt.Errorf("%w: option index %d out of range", domain.ErrInvalidRequest, selectedIndex)
	}

	correct, points := s.scoreLocked(question, selectedIndex, timeTakenSeconds)
	selected := selectedIndex
	s.answers[participantID][s.current] = domain.Answer{
		SelectedIndex:    &selected,
		TimeTakenSeconds: timeTakenSeconds,
		Correct:          correct,
		PointsAwarded:    points,
	}
	s.scores[participantID] += points

	answeredIndex := s.current
	if s.bothAnsweredLocked() {
		s.advanceLocked(s.now())
	}

	outcome := domain.AnswerOutcome{
		QuestionIndex:     answeredIndex,
		Correct:           correct,
		CorrectIndex:      question.CorrectIndex,
		Explanation:       question.Explanation,
		PointsAwarded:     points,
		TotalScore:        s.scores[participantID],
		BattleComplete:    s.status == domain.StatusCompleted,
		WinnerID:          s.winnerID,
		NextQuestionIndex: s.current,
	}
	s.broadcastLocked()
	return outcome, nil
}

// scoreLocked applies the scoring rule: base points for a correct answer plus
// a linearly decaying time bonus, zero for anything else.
func (s *BattleSession) scoreLocked(question domain.Question, selectedIndex, timeTakenSeconds int) (bool, int) {
	if selectedIndex != question.CorrectIndex {
		return false, 0
	}
	points := s.basePoints
	limit := int(s.timeLimit / time.Second)
	if limit > 0 {
		if timeTakenSeconds < 0 {
			timeTakenSeconds = 0
		}
		bonus := (limit - timeTakenSeconds) * s.bonusMax / limit
		if bonus > 0 {
			points += bonus
		}
	}
	return true, points
}

// sweepTimeoutsLocked synthesizes zero-point answers for participants whose
// per-question deadline has elapsed and advances past every expired question.
// Deadlines chain (the next question's clock starts at the previous deadline),
// so an abandoned battle drains to completed on a single late request.
func (s *BattleSession) sweepTimeoutsLocked(now time.Time) bool {
	changed := false
	for s.status == domain.StatusActive {
		deadline := s.questionStart.Add(s.timeLimit)
		if now.Before(deadline) {
			break
		}
		for _, id := range []string{s.challengerID, s.opponentID} {
			if _, ok := s.answers[id][s.current]; !ok {
				s.answers[id][s.current] = domain.Answer{
					SelectedIndex:    nil,
					TimeTakenSeconds: int(s.timeLimit / time.Second),
				}
			}
		}
		s.advanceLocked(deadline)
		changed = true
	}
	return changed
}

func (s *BattleSession) bothAnsweredLocked() bool {
	_, challengerIn := s.answers[s.challengerID][s.current]
	_, opponentIn := s.answers[s.opponentID][s.current]
	return challengerIn && opponentIn
}

// advanceLocked moves the shared question pointer forward and detects
// completion. nextStart anchors the next question's deadline.
func (s *BattleSession) advanceLocked(nextStart time.Time) {
	s.current++
	if s.current == len(s.questions) {
		s.status = domain.StatusCompleted
		challengerScore := s.scores[s.challengerID]
		opponentScore := s.scores[s.opponentID]
		switch {
		case challengerScore > opponentScore:
			s.winnerID = s.challengerID
		case opponentScore > challengerScore:
			s.winnerID = s.opponentID
		}
		return
	}
	s.questionStart = nextStart
}

func (s *BattleSession) view() domain.BattleView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweepTimeoutsLocked(s.now()) {
		return s.broadcastLocked()
	}
	return s.snapshotLocked()
}

// claimResult hands out the completion result once. finishSettle(false)
// releases the claim so a failed leaderboard write can be retried.
func (s *BattleSession) claimResult() (domain.BattleResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusCompleted || s.settled || s.settling {
		return domain.BattleResult{}, false
	}
	s.settling = true
	return domain.BattleResult{
		BattleCode:   s.code,
		ChallengerID: s.challengerID,
		OpponentID:   s.opponentID,
		ChallengerXP: s.scores[s.challengerID],
		OpponentXP:   s.scores[s.opponentID],
		WinnerID:     s.winnerID,
	}, true
}

func (s *BattleSession) finishSettle(applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settling = false
	if applied {
		s.settled = true
	}
}

func (s *BattleSession) subscribe() (<-chan domain.BattleView, func()) {
	ch := make(chan domain.BattleView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *BattleSession) broadcastLocked() domain.BattleView {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so a slow client never blocks the broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *BattleSession) snapshotLocked() domain.BattleView {
	view := domain.BattleView{
		Code:                 s.code,
		Subject:              s.subject,
		Status:               s.status,
		ChallengerID:         s.challengerID,
		OpponentID:           s.opponentID,
		CurrentQuestionIndex: s.current,
		QuestionCount:        len(s.questions),
		ChallengerScore:      s.scores[s.challengerID],
		OpponentScore:        s.scores[s.opponentID],
		WinnerID:             s.winnerID,
		TimeLimitSeconds:     int(s.timeLimit / time.Second),
		CreatedAt:            s.createdAt,
	}
	if s.status == domain.StatusActive {
		question := s.questions[s.current]
		view.Question = &domain.QuestionView{
			Index:   s.current,
			Prompt:  question.Prompt,
			Options: append([]string(nil), question.Options...),
		}
	}
	return view
}
