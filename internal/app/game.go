package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"cogniquiz-service/internal/domain"
	"go.uber.org/zap"
)

// QuestionSource loads a question set for a quiz.
type QuestionSource interface {
	Fetch(ctx context.Context, params domain.QuizParameters, token string) ([]domain.Question, error)
}

// EventType tags what changed in a session.
type EventType string

const (
	EventLoading  EventType = "loading"
	EventQuestion EventType = "question"
	EventSelected EventType = "selected"
	EventTick     EventType = "tick"
	EventReveal   EventType = "reveal"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
	EventPhase    EventType = "phase"
	EventToken    EventType = "token"
)

// Event is pushed to listeners whenever session state changes.
type Event struct {
	Type    EventType
	Phase   domain.Phase
	Game    *GameSnapshot
	Summary *domain.Summary
	Err     error
}

// Listener receives events. It is called with session locks held, so it must
// not block and must not call back into the session.
type Listener func(Event)

// QuestionView is a question as shown to the player. Correct answers are only
// filled in once the question is revealed.
type QuestionView struct {
	ID             string          `json:"id"`
	Prompt         string          `json:"prompt"`
	Options        []domain.Option `json:"options"`
	CorrectAnswers []string        `json:"correctAnswers,omitempty"`
}

// GameSnapshot is a copy of the state machine state.
type GameSnapshot struct {
	State     domain.GameState `json:"state"`
	Index     int              `json:"index"`
	Count     int              `json:"count"`
	Question  *QuestionView    `json:"question,omitempty"`
	Selected  string           `json:"selected,omitempty"`
	TimeLeft  int              `json:"timeLeft"`
	Feedback  domain.Feedback  `json:"feedback,omitempty"`
	Score     domain.Score     `json:"score"`
	Error     string           `json:"error,omitempty"`
	Recovery  domain.Recovery  `json:"recovery,omitempty"`
	Revealed  bool             `json:"revealed"`
	Completed bool             `json:"completed"`
}

// GameConfig wires a Game to its collaborators.
type GameConfig struct {
	Params  domain.QuizParameters
	Token   string
	Source  QuestionSource
	Clock   Clock
	Log     *zap.Logger
	OnEvent Listener
	// OnTokenExhausted is called once, outside the game lock, when the service
	// reports the token has no unique questions left. It must not block.
	OnTokenExhausted func()
}

// Game is the state machine for one quiz session. All transitions go through
// its mutex, so timer ticks and player actions are serialized.
type Game struct {
	params           domain.QuizParameters
	token            string
	source           QuestionSource
	clock            Clock
	log              *zap.Logger
	onEvent          Listener
	onTokenExhausted func()

	mu        sync.Mutex
	state     domain.GameState
	closed    bool
	questions []domain.Question
	index     int
	selected  string
	feedback  domain.Feedback
	timeLeft  int
	score     domain.Score
	err       error
	summary   *domain.Summary
	timerGen  int
	stopTimer func()
}

func NewGame(cfg GameConfig) *Game {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.OnEvent == nil {
		cfg.OnEvent = func(Event) {}
	}
	return &Game{
		params:           cfg.Params,
		token:            cfg.Token,
		source:           cfg.Source,
		clock:            cfg.Clock,
		log:              cfg.Log,
		onEvent:          cfg.OnEvent,
		onTokenExhausted: cfg.OnTokenExhausted,
		state:            domain.StateIdle,
		timeLeft:         cfg.Params.TimePerChallenge,
	}
}

// Start fetches the question set and activates the first question.
// Only the first call fetches; later calls return ErrAlreadyStarted.
func (g *Game) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.state != domain.StateIdle || g.closed {
		g.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	g.state = domain.StateLoading
	g.emitLocked(EventLoading)
	g.mu.Unlock()

	questions, err := g.source.Fetch(ctx, g.params, g.token)
	if err == nil && len(questions) == 0 {
		err = &domain.ServiceError{Kind: domain.ErrNoQuestions, Code: 0}
	}

	g.mu.Lock()
	if g.closed {
		g.state = domain.StateClosed
		g.mu.Unlock()
		if err != nil {
			return err
		}
		return context.Canceled
	}
	if err != nil {
		g.failLocked(err)
		g.mu.Unlock()
		if errors.Is(err, domain.ErrTokenExhausted) && g.onTokenExhausted != nil {
			g.onTokenExhausted()
		}
		return err
	}
	defer g.mu.Unlock()

	g.questions = questions
	g.index = 0
	g.score = domain.Score{}
	g.log.Info("quiz started",
		zap.String("difficulty", string(g.params.Difficulty)),
		zap.String("category", g.params.Category),
		zap.Int("questions", len(questions)))
	g.activateLocked()
	return nil
}

// Select records a tentative choice for the active question.
func (g *Game) Select(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateQuestionActive {
		return domain.ErrNoActiveQuestion
	}
	if _, ok := g.questions[g.index].OptionText(key); !ok {
		return domain.ErrOptionNotFound
	}
	g.selected = key
	g.emitLocked(EventSelected)
	return nil
}

// Submit scores the current selection. It is a no-op once the question is revealed.
func (g *Game) Submit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case domain.StateRevealed:
		return nil
	case domain.StateQuestionActive:
	default:
		return domain.ErrNoActiveQuestion
	}
	if g.selected == "" {
		return domain.ErrNoSelection
	}
	g.submitLocked(false)
	return nil
}

// Next advances past a revealed question. On the last question it completes
// the session and returns its summary with done set.
func (g *Game) Next() (domain.Summary, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateRevealed {
		return domain.Summary{}, false, domain.ErrNotRevealed
	}
	if g.index < len(g.questions)-1 {
		g.index++
		g.activateLocked()
		return domain.Summary{}, false, nil
	}

	g.state = domain.StateComplete
	summary := domain.Summary{
		FinalScore:     g.score.TotalPoints,
		TotalCorrect:   g.score.Correct,
		TotalQuestions: len(g.questions),
		WasError:       false,
		Parameters:     g.params,
	}
	g.summary = &summary
	g.log.Info("quiz complete",
		zap.Int("score", summary.FinalScore),
		zap.Int("correct", summary.TotalCorrect),
		zap.Int("questions", summary.TotalQuestions))
	g.emitLocked(EventComplete)
	return summary, true, nil
}

// Close stops the countdown. Late ticks and a still-running fetch are discarded.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.stopTimerLocked()
	if g.state != domain.StateComplete && g.state != domain.StateLoadError && g.state != domain.StateLoading {
		g.state = domain.StateClosed
	}
}

// Summary returns the terminal summary once the session completed or failed.
func (g *Game) Summary() (domain.Summary, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.summary == nil {
		return domain.Summary{}, false
	}
	return *g.summary, true
}

func (g *Game) Parameters() domain.QuizParameters {
	return g.params
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) activateLocked() {
	g.stopTimerLocked()
	g.state = domain.StateQuestionActive
	g.selected = ""
	g.feedback = domain.FeedbackNone
	g.timeLeft = g.params.TimePerChallenge

	g.timerGen++
	gen := g.timerGen
	g.stopTimer = g.clock.Every(time.Second, func() { g.tick(gen) })
	g.emitLocked(EventQuestion)
}

// tick is the timer callback. Ticks from a stopped timer or an earlier question
// carry a stale generation and are dropped.
func (g *Game) tick(gen int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != domain.StateQuestionActive || gen != g.timerGen {
		return
	}
	g.timeLeft--
	if g.timeLeft <= 0 {
		g.timeLeft = 0
		g.submitLocked(true)
		return
	}
	g.emitLocked(EventTick)
}

func (g *Game) submitLocked(timedOut bool) {
	g.stopTimerLocked()

	g.score.Total++

	// Expiry is a submission without a selection; a tentative choice earns nothing.
	if timedOut {
		g.selected = ""
		g.feedback = domain.FeedbackTimedOut
		g.state = domain.StateRevealed
		g.emitLocked(EventReveal)
		return
	}

	q := g.questions[g.index]
	correct := false
	if text, ok := q.OptionText(g.selected); ok {
		correct = q.IsCorrect(text)
	}
	if correct {
		g.score.Correct++
		g.score.TotalPoints += g.params.Difficulty.Points()
		g.feedback = domain.FeedbackCorrect
	} else {
		g.feedback = domain.FeedbackIncorrect
	}
	g.state = domain.StateRevealed
	g.emitLocked(EventReveal)
}

func (g *Game) failLocked(err error) {
	g.stopTimerLocked()
	g.state = domain.StateLoadError
	g.err = err
	g.summary = &domain.Summary{
		FinalScore:     g.score.TotalPoints,
		TotalCorrect:   g.score.Correct,
		TotalQuestions: g.score.Total,
		WasError:       true,
		Err:            err,
		Parameters:     g.params,
	}
	g.log.Warn("quiz failed to load", zap.Error(err))
	g.emitLocked(EventError)
}

func (g *Game) stopTimerLocked() {
	if g.stopTimer != nil {
		g.stopTimer()
		g.stopTimer = nil
	}
}

func (g *Game) emitLocked(t EventType) {
	snap := g.snapshotLocked()
	ev := Event{Type: t, Phase: domain.PhaseGame, Game: &snap, Err: g.err}
	if g.summary != nil {
		s := *g.summary
		ev.Summary = &s
	}
	g.onEvent(ev)
}

func (g *Game) snapshotLocked() GameSnapshot {
	snap := GameSnapshot{
		State:     g.state,
		Index:     g.index,
		Count:     len(g.questions),
		Selected:  g.selected,
		TimeLeft:  g.timeLeft,
		Feedback:  g.feedback,
		Score:     g.score,
		Revealed:  g.state == domain.StateRevealed,
		Completed: g.state == domain.StateComplete,
	}
	if g.err != nil {
		snap.Error = domain.UserMessage(g.err)
		snap.Recovery = domain.RecoveryFor(g.err)
	}
	if g.index < len(g.questions) && (g.state == domain.StateQuestionActive || g.state == domain.StateRevealed) {
		q := g.questions[g.index]
		view := &QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]domain.Option(nil), q.Options...),
		}
		if g.state == domain.StateRevealed {
			view.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
		}
		snap.Question = view
	}
	return snap
}
