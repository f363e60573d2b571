package app

import (
	"context"
	"time"

	"cogniquiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts where live shells are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Save(shell *Shell)
	Get(id string) (*Shell, bool)
	Delete(id string)
	All() []*Shell
}

// CategoryRepository loads the category catalog (from cache/backing service).
type CategoryRepository interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// QuizService contains the use cases shared by every transport.
type QuizService struct {
	sessions   SessionRepository
	categories CategoryRepository
	deps       ShellDeps
	log        *zap.Logger
}

func NewQuizService(sessions SessionRepository, categories CategoryRepository, deps ShellDeps) *QuizService {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	return &QuizService{sessions: sessions, categories: categories, deps: deps, log: deps.Log}
}

// Open registers a new shell and starts acquiring its token in the background.
func (s *QuizService) Open(notify Listener) *Shell {
	shell := NewShell(uuid.NewString(), s.deps, notify)
	s.sessions.Save(shell)
	shell.background(shell.EnsureToken)
	s.log.Info("session opened", zap.String("session", shell.ID()))
	return shell
}

// Session looks up a registered shell.
func (s *QuizService) Session(id string) (*Shell, error) {
	shell, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return shell, nil
}

// Close stops a shell and drops it from the registry.
func (s *QuizService) Close(id string) {
	shell, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	shell.Close()
	s.sessions.Delete(id)
	s.log.Info("session closed", zap.String("session", id))
}

// Leaderboard returns every stored score, best first.
func (s *QuizService) Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	if s.deps.Scores == nil {
		return nil, nil
	}
	return s.deps.Scores.ListAll(ctx)
}

func (s *QuizService) ClearLeaderboard(ctx context.Context) error {
	if s.deps.Scores == nil {
		return nil
	}
	return s.deps.Scores.Clear(ctx)
}

// Categories returns the live catalog, or the built-in table when it cannot be loaded.
func (s *QuizService) Categories(ctx context.Context) []domain.Category {
	if s.categories != nil {
		cats, err := s.categories.Categories(ctx)
		if err == nil && len(cats) > 0 {
			return cats
		}
		if err != nil {
			s.log.Warn("category catalog unavailable, using defaults", zap.Error(err))
		}
	}
	return domain.DefaultCategories()
}

// DailyStatus reports whether today's challenge can still be played.
func (s *QuizService) DailyStatus(ctx context.Context) (DailyStatus, error) {
	if s.deps.Daily == nil {
		return DailyStatus{Parameters: DailyParameters()}, nil
	}
	return s.deps.Daily.Status(ctx)
}

// SweepIdle closes shells with no player action for longer than idle. Transports
// watch Shell.Done and drop the connection of a swept shell.
func (s *QuizService) SweepIdle(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.deps.Clock.Now().Add(-idle)
	swept := 0
	for _, shell := range s.sessions.All() {
		if shell.LastActive().Before(cutoff) {
			s.Close(shell.ID())
			swept++
		}
	}
	if swept > 0 {
		s.log.Info("idle sessions swept", zap.Int("count", swept))
	}
	return swept
}
