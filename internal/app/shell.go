package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cogniquiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenProvider issues and refreshes question service session tokens.
type TokenProvider interface {
	Acquire(ctx context.Context) (string, error)
	Reset(ctx context.Context, token string) (string, error)
}

// ScoreStore persists completed quiz summaries.
type ScoreStore interface {
	Append(ctx context.Context, record domain.ScoreRecord) error
	ListAll(ctx context.Context) ([]domain.ScoreRecord, error)
	Clear(ctx context.Context) error
}

// ShellSnapshot is what a client needs to render its current screen.
type ShellSnapshot struct {
	ID          string                 `json:"sessionId"`
	Phase       domain.Phase           `json:"phase"`
	TokenReady  bool                   `json:"tokenReady"`
	TokenError  string                 `json:"tokenError,omitempty"`
	Parameters  *domain.QuizParameters `json:"quizParameters,omitempty"`
	Daily       bool                   `json:"daily"`
	Game        *GameSnapshot          `json:"game,omitempty"`
	Summary     *domain.Summary        `json:"summary,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Recovery    domain.Recovery        `json:"recovery,omitempty"`
	Preferences domain.Preferences     `json:"preferences"`
	LastActive  time.Time              `json:"lastActive"`
}

// ShellDeps are the collaborators shared by every shell.
type ShellDeps struct {
	Tokens TokenProvider
	Source QuestionSource
	Scores ScoreStore
	Daily  *DailyChallenge
	Clock  Clock
	Log    *zap.Logger
}

// Shell is one player's application: it owns the session token, the current
// phase and at most one running Game.
type Shell struct {
	id     string
	deps   ShellDeps
	notify Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	phase        domain.Phase
	token        string
	tokenErr     error
	tokenPending bool
	params       *domain.QuizParameters
	daily        bool
	game         *Game
	summary      *domain.Summary
	lastErr      error
	prefs        domain.Preferences
	lastActive   time.Time
}

func NewShell(id string, deps ShellDeps, notify Listener) *Shell {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if notify == nil {
		notify = func(Event) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Shell{
		id:         id,
		deps:       deps,
		notify:     notify,
		ctx:        ctx,
		cancel:     cancel,
		phase:      domain.PhaseBriefing,
		prefs:      domain.DefaultPreferences(),
		lastActive: deps.Clock.Now(),
	}
}

func (s *Shell) ID() string { return s.id }

// EnsureToken acquires a token unless one is held or a request is already pending.
func (s *Shell) EnsureToken(ctx context.Context) error {
	s.mu.Lock()
	if s.token != "" || s.tokenPending {
		s.mu.Unlock()
		return nil
	}
	s.tokenPending = true
	s.tokenErr = nil
	s.mu.Unlock()

	token, err := s.deps.Tokens.Acquire(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenPending = false
	if err != nil {
		s.tokenErr = err
		s.deps.Log.Warn("token acquisition failed", zap.String("session", s.id), zap.Error(err))
		s.emitLocked(EventToken)
		return err
	}
	s.token = token
	s.emitLocked(EventToken)
	return nil
}

// ResetToken exchanges the held token for a fresh one.
func (s *Shell) ResetToken(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	if token == "" || s.tokenPending {
		s.mu.Unlock()
		return nil
	}
	s.tokenPending = true
	s.tokenErr = nil
	s.mu.Unlock()

	fresh, err := s.deps.Tokens.Reset(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenPending = false
	if err != nil {
		s.tokenErr = err
		s.deps.Log.Warn("token reset failed", zap.String("session", s.id), zap.Error(err))
		s.emitLocked(EventToken)
		return err
	}
	s.token = fresh
	s.emitLocked(EventToken)
	return nil
}

func (s *Shell) background(fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = fn(s.ctx)
	}()
}

// Begin validates params, enters the game phase and loads the quiz.
// A load failure returns the shell to the briefing phase.
func (s *Shell) Begin(ctx context.Context, params domain.QuizParameters) error {
	return s.begin(ctx, params, false)
}

// BeginDaily starts today's daily challenge if it has not been played yet.
func (s *Shell) BeginDaily(ctx context.Context) error {
	if s.deps.Daily == nil {
		return fmt.Errorf("daily challenge not configured")
	}
	status, err := s.deps.Daily.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Available {
		return domain.ErrDailyAlreadyPlayed
	}
	return s.begin(ctx, status.Parameters, true)
}

func (s *Shell) begin(ctx context.Context, params domain.QuizParameters, daily bool) error {
	params = params.Normalized()
	if err := params.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next, err := Transition(s.phase, NavBegin)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.token == "" || s.tokenPending {
		s.mu.Unlock()
		return domain.ErrTokenNotReady
	}
	if s.game != nil {
		s.game.Close()
	}
	game := NewGame(GameConfig{
		Params:  params,
		Token:   s.token,
		Source:  s.deps.Source,
		Clock:   s.deps.Clock,
		Log:     s.deps.Log.With(zap.String("session", s.id)),
		OnEvent: s.notify,
		OnTokenExhausted: func() {
			s.background(s.ResetToken)
		},
	})
	s.game = game
	s.params = &params
	s.daily = daily
	s.summary = nil
	s.lastErr = nil
	s.phase = next
	s.touchLocked()
	s.emitLocked(EventPhase)
	s.mu.Unlock()

	if err := game.Start(ctx); err != nil {
		if errors.Is(err, domain.ErrAlreadyStarted) {
			return err
		}
		summary, ok := game.Summary()
		if !ok {
			summary = domain.Summary{WasError: true, Err: err, Parameters: params}
		}
		s.conclude(summary)
		return err
	}
	return nil
}

// Select records a tentative answer.
func (s *Shell) Select(key string) error {
	game, err := s.activeGame()
	if err != nil {
		return err
	}
	return game.Select(key)
}

// Submit locks in the selected answer.
func (s *Shell) Submit() error {
	game, err := s.activeGame()
	if err != nil {
		return err
	}
	return game.Submit()
}

// Next advances to the next question, or concludes the quiz after the last one.
func (s *Shell) Next(ctx context.Context) (*domain.Summary, error) {
	game, err := s.activeGame()
	if err != nil {
		return nil, err
	}
	summary, done, err := game.Next()
	if err != nil || !done {
		return nil, err
	}
	if err := s.record(ctx, summary); err != nil {
		s.deps.Log.Error("failed to record score", zap.String("session", s.id), zap.Error(err))
	}
	s.conclude(summary)
	return &summary, nil
}

// Abandon leaves a running or failed game and returns to setup.
func (s *Shell) Abandon() error {
	s.mu.Lock()
	if s.phase != domain.PhaseGame {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, NavFail, s.phase)
	}
	game := s.game
	s.mu.Unlock()

	game.Close()
	summary, ok := game.Summary()
	if !ok {
		snap := game.Snapshot()
		summary = domain.Summary{
			FinalScore:     snap.Score.TotalPoints,
			TotalCorrect:   snap.Score.Correct,
			TotalQuestions: snap.Score.Total,
			WasError:       true,
			Parameters:     game.Parameters(),
		}
	}
	summary.WasError = true
	s.conclude(summary)
	return nil
}

func (s *Shell) activeGame() (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseGame || s.game == nil {
		return nil, domain.ErrNoActiveQuestion
	}
	s.touchLocked()
	return s.game, nil
}

func (s *Shell) record(ctx context.Context, summary domain.Summary) error {
	s.mu.Lock()
	daily := s.daily
	s.mu.Unlock()

	var errs []error
	if s.deps.Scores != nil {
		rec := domain.NewScoreRecord(uuid.NewString(), summary, s.deps.Clock.Now())
		if err := s.deps.Scores.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	if daily && s.deps.Daily != nil {
		if err := s.deps.Daily.MarkPlayed(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// conclude routes a finished session: success goes to results, errors back to
// briefing. A token-related error drops the token and requests a new one.
func (s *Shell) conclude(summary domain.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := NavComplete
	if summary.WasError {
		ev = NavFail
	}
	next, err := Transition(s.phase, ev)
	if err != nil {
		s.deps.Log.Warn("conclude ignored", zap.String("session", s.id), zap.Error(err))
		return
	}
	s.phase = next
	s.params = &summary.Parameters
	s.summary = &summary
	s.lastErr = summary.Err

	if summary.WasError && domain.IsTokenError(summary.Err) && s.ctx.Err() == nil {
		s.token = ""
		s.background(s.EnsureToken)
	}
	s.emitLocked(EventPhase)
}

// StartNew clears the results and refreshes the token for the next quiz.
func (s *Shell) StartNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.phase, NavStartNew)
	if err != nil {
		return err
	}
	s.phase = next
	s.params = nil
	s.summary = nil
	s.lastErr = nil
	s.daily = false
	s.touchLocked()
	s.background(s.ResetToken)
	s.emitLocked(EventPhase)
	return nil
}

// ShowLeaderboard switches to the leaderboard and returns the sorted records.
// A storage read failure still switches phase and returns an empty board.
func (s *Shell) ShowLeaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	if err := s.navigate(NavShowLeaderboard); err != nil {
		return nil, err
	}
	if s.deps.Scores == nil {
		return nil, nil
	}
	records, err := s.deps.Scores.ListAll(ctx)
	if err != nil {
		s.deps.Log.Warn("leaderboard unavailable", zap.String("session", s.id), zap.Error(err))
		return []domain.ScoreRecord{}, err
	}
	return records, nil
}

// ShowSettings switches to the settings screen.
func (s *Shell) ShowSettings() error {
	return s.navigate(NavShowSettings)
}

// Back returns from leaderboard or settings to the briefing.
func (s *Shell) Back() error {
	return s.navigate(NavBack)
}

func (s *Shell) navigate(ev NavEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Transition(s.phase, ev)
	if err != nil {
		return err
	}
	s.phase = next
	s.touchLocked()
	s.emitLocked(EventPhase)
	return nil
}

// SetPreferences replaces the UI preferences.
func (s *Shell) SetPreferences(p domain.Preferences) error {
	if !p.Theme.Valid() {
		return fmt.Errorf("unknown theme %q", p.Theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	s.touchLocked()
	return nil
}

func (s *Shell) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Shell) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastActive is the time of the last player action.
func (s *Shell) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot returns the shell state for rendering.
func (s *Shell) Snapshot() ShellSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops the running game and cancels background token calls.
func (s *Shell) Close() {
	s.mu.Lock()
	game := s.game
	s.mu.Unlock()
	if game != nil {
		game.Close()
	}
	s.cancel()
}

// Done is closed once the shell has been closed, by its owner or by the idle sweep.
func (s *Shell) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Wait blocks until background token calls have finished.
func (s *Shell) Wait() {
	s.wg.Wait()
}

func (s *Shell) touchLocked() {
	s.lastActive = s.deps.Clock.Now()
}

func (s *Shell) emitLocked(t EventType) {
	snap := s.snapshotLocked()
	ev := Event{Type: t, Phase: s.phase, Game: snap.Game, Summary: snap.Summary, Err: s.lastErr}
	if t == EventToken {
		ev.Err = s.tokenErr
	}
	s.notify(ev)
}

func (s *Shell) snapshotLocked() ShellSnapshot {
	snap := ShellSnapshot{
		ID:          s.id,
		Phase:       s.phase,
		TokenReady:  s.token != "" && !s.tokenPending,
		Daily:       s.daily,
		Preferences: s.prefs,
		LastActive:  s.lastActive,
	}
	if s.tokenErr != nil {
		snap.TokenError = domain.UserMessage(s.tokenErr)
	}
	if s.params != nil {
		p := *s.params
		snap.Parameters = &p
	}
	if s.game != nil && s.phase == domain.PhaseGame {
		g := s.game.Snapshot()
		snap.Game = &g
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	if s.lastErr != nil {
		snap.Message = domain.UserMessage(s.lastErr)
		snap.Recovery = domain.RecoveryFor(s.lastErr)
	}
	return snap
}
