package app_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/domain"
)

func newTestGame(t *testing.T, params domain.QuizParameters, src *fakeSource) (*app.Game, *fakeClock, *eventLog) {
	t.Helper()
	clock := newFakeClock()
	events := &eventLog{}
	game := app.NewGame(app.GameConfig{
		Params:  params,
		Token:   "tok",
		Source:  src,
		Clock:   clock,
		OnEvent: events.listen,
	})
	return game, clock, events
}

func answer(t *testing.T, game *app.Game, key string) {
	t.Helper()
	if err := game.Select(key); err != nil {
		t.Fatalf("select %s: %v", key, err)
	}
	if err := game.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestGameScenarioMediumThreeQuestions(t *testing.T) {
	src := &fakeSource{questions: sampleQuestions(3)}
	game, _, events := newTestGame(t, mediumParams(3), src)

	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	keys := []string{"option0", "option0", "option1"}
	var summary domain.Summary
	for i, key := range keys {
		answer(t, game, key)
		s, done, err := game.Next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if done != (i == len(keys)-1) {
			t.Fatalf("question %d: done=%v", i, done)
		}
		summary = s
	}

	if summary.WasError {
		t.Fatalf("expected clean summary, got %+v", summary)
	}
	if summary.TotalCorrect != 2 || summary.TotalQuestions != 3 || summary.FinalScore != 40 {
		t.Fatalf("expected 2/3 for 40 points, got %+v", summary)
	}
	if events.count(app.EventComplete) != 1 {
		t.Fatalf("expected one complete event, got %d", events.count(app.EventComplete))
	}
	if snap := game.Snapshot(); !snap.Completed {
		t.Fatalf("expected completed snapshot, got %+v", snap)
	}
}

func TestGameDoubleSubmitScoresOnce(t *testing.T) {
	game, _, _ := newTestGame(t, mediumParams(1), &fakeSource{questions: sampleQuestions(1)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	answer(t, game, "option0")
	if err := game.Submit(); err != nil {
		t.Fatalf("second submit should be a no-op, got %v", err)
	}

	snap := game.Snapshot()
	if snap.Score.Total != 1 || snap.Score.Correct != 1 || snap.Score.TotalPoints != 20 {
		t.Fatalf("expected a single scored answer, got %+v", snap.Score)
	}
	if snap.Feedback != domain.FeedbackCorrect {
		t.Fatalf("expected correct feedback, got %q", snap.Feedback)
	}
	if len(snap.Question.CorrectAnswers) != 1 {
		t.Fatalf("expected correct answers on reveal, got %+v", snap.Question)
	}
}

func TestGameSubmitWithoutSelection(t *testing.T) {
	game, _, _ := newTestGame(t, mediumParams(1), &fakeSource{questions: sampleQuestions(1)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := game.Submit(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := game.Select("option9"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if _, _, err := game.Next(); !errors.Is(err, domain.ErrNotRevealed) {
		t.Fatalf("expected ErrNotRevealed, got %v", err)
	}
}

func TestGamePointsByDifficulty(t *testing.T) {
	cases := map[domain.Difficulty]int{
		domain.DifficultyEasy:   10,
		domain.DifficultyMedium: 20,
		domain.DifficultyHard:   30,
		domain.DifficultyAny:    10,
	}
	for difficulty, want := range cases {
		params := mediumParams(1)
		params.Difficulty = difficulty
		game, _, _ := newTestGame(t, params, &fakeSource{questions: sampleQuestions(1)})
		if err := game.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		answer(t, game, "option0")
		if got := game.Snapshot().Score.TotalPoints; got != want {
			t.Fatalf("%s: expected %d points, got %d", difficulty, want, got)
		}
	}
}

func TestGameWrongAnswerScoresZero(t *testing.T) {
	game, _, _ := newTestGame(t, mediumParams(1), &fakeSource{questions: sampleQuestions(1)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	answer(t, game, "option3")
	snap := game.Snapshot()
	if snap.Score.TotalPoints != 0 || snap.Score.Total != 1 || snap.Feedback != domain.FeedbackIncorrect {
		t.Fatalf("unexpected state after wrong answer: %+v", snap)
	}
}

func TestGameTimeoutWithoutSelection(t *testing.T) {
	game, clock, events := newTestGame(t, mediumParams(2), &fakeSource{questions: sampleQuestions(2)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 4; i++ {
		clock.Tick()
	}
	if snap := game.Snapshot(); snap.TimeLeft != 1 || snap.Revealed {
		t.Fatalf("expected 1s left and still active, got %+v", snap)
	}
	clock.Tick()

	snap := game.Snapshot()
	if !snap.Revealed || snap.Feedback != domain.FeedbackTimedOut {
		t.Fatalf("expected timed out reveal, got %+v", snap)
	}
	if snap.Score.Total != 1 || snap.Score.Correct != 0 {
		t.Fatalf("expected timeout to count as answered, got %+v", snap.Score)
	}
	if events.count(app.EventTick) != 4 {
		t.Fatalf("expected 4 tick events, got %d", events.count(app.EventTick))
	}
	if clock.Running() != 0 {
		t.Fatalf("expected timer stopped after reveal")
	}
}

func TestGameTimeoutIgnoresTentativeSelection(t *testing.T) {
	game, clock, _ := newTestGame(t, mediumParams(1), &fakeSource{questions: sampleQuestions(1)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := game.Select("option0"); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	snap := game.Snapshot()
	if !snap.Revealed || snap.Feedback != domain.FeedbackTimedOut {
		t.Fatalf("expected timed out reveal, got %+v", snap)
	}
	if snap.Score != (domain.Score{Correct: 0, Total: 1, TotalPoints: 0}) {
		t.Fatalf("expected no credit for an expired question, got %+v", snap.Score)
	}
	if snap.Selected != "" {
		t.Fatalf("expected selection discarded at timeout, got %q", snap.Selected)
	}
	if err := game.Submit(); err != nil {
		t.Fatalf("submit after timeout should be a no-op, got %v", err)
	}
	if got := game.Snapshot().Score; got.Total != 1 || got.TotalPoints != 0 {
		t.Fatalf("late submit changed the score: %+v", got)
	}
}

func TestGameStaleTicksIgnored(t *testing.T) {
	game, clock, _ := newTestGame(t, mediumParams(2), &fakeSource{questions: sampleQuestions(2)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	answer(t, game, "option0")
	clock.FireStopped()
	if snap := game.Snapshot(); snap.Score.Total != 1 || snap.TimeLeft != 5 {
		t.Fatalf("late tick changed a revealed question: %+v", snap)
	}

	if _, _, err := game.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.FireStopped()
	clock.FireStopped()
	if snap := game.Snapshot(); snap.TimeLeft != 5 || snap.Index != 1 {
		t.Fatalf("tick from previous question leaked into the next: %+v", snap)
	}

	clock.Tick()
	if snap := game.Snapshot(); snap.TimeLeft != 4 {
		t.Fatalf("expected live timer to count down, got %+v", snap)
	}
}

func TestGameCloseStopsTimer(t *testing.T) {
	game, clock, _ := newTestGame(t, mediumParams(1), &fakeSource{questions: sampleQuestions(1)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	game.Close()
	clock.FireStopped()
	if snap := game.Snapshot(); snap.State != domain.StateClosed || snap.Score.Total != 0 {
		t.Fatalf("expected closed game untouched, got %+v", snap)
	}
	if err := game.Select("option0"); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion after close, got %v", err)
	}
}

func TestGameStartOnlyOnce(t *testing.T) {
	src := &fakeSource{questions: sampleQuestions(1)}
	game, _, _ := newTestGame(t, mediumParams(1), src)
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := game.Start(context.Background()); !errors.Is(err, domain.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if src.Calls() != 1 {
		t.Fatalf("expected one fetch, got %d", src.Calls())
	}
}

func TestGameTokenExhaustedResetsOnce(t *testing.T) {
	src := &fakeSource{errs: []error{&domain.ServiceError{Kind: domain.ErrTokenExhausted, Code: 4}}}
	clock := newFakeClock()
	resets := 0
	game := app.NewGame(app.GameConfig{
		Params:           mediumParams(3),
		Token:            "tok",
		Source:           src,
		Clock:            clock,
		OnTokenExhausted: func() { resets++ },
	})

	err := game.Start(context.Background())
	if !errors.Is(err, domain.ErrTokenExhausted) {
		t.Fatalf("expected token exhausted, got %v", err)
	}
	if resets != 1 {
		t.Fatalf("expected exactly one reset, got %d", resets)
	}
	summary, ok := game.Summary()
	if !ok || !summary.WasError {
		t.Fatalf("expected error summary, got %+v", summary)
	}
	if snap := game.Snapshot(); snap.State != domain.StateLoadError || snap.Recovery != domain.RecoverySetup {
		t.Fatalf("unexpected state %+v", snap)
	}
}

// gatedSource blocks Fetch until release is closed, then fails with err.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func (s *gatedSource) Fetch(ctx context.Context, _ domain.QuizParameters, _ string) ([]domain.Question, error) {
	close(s.entered)
	<-s.release
	return nil, s.err
}

func TestGameClosedDuringLoadDropsFailure(t *testing.T) {
	src := &gatedSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		err:     &domain.ServiceError{Kind: domain.ErrTokenExhausted, Code: 4},
	}
	events := &eventLog{}
	resets := 0
	game := app.NewGame(app.GameConfig{
		Params:           mediumParams(3),
		Token:            "tok",
		Source:           src,
		Clock:            newFakeClock(),
		OnEvent:          events.listen,
		OnTokenExhausted: func() { resets++ },
	})

	done := make(chan error, 1)
	go func() { done <- game.Start(context.Background()) }()
	<-src.entered
	game.Close()
	close(src.release)

	if err := <-done; !errors.Is(err, domain.ErrTokenExhausted) {
		t.Fatalf("expected the fetch error back, got %v", err)
	}
	if resets != 0 {
		t.Fatalf("expected no reset after close, got %d", resets)
	}
	if n := events.count(app.EventError); n != 0 {
		t.Fatalf("expected no error event after close, got %d", n)
	}
	if snap := game.Snapshot(); snap.State != domain.StateClosed {
		t.Fatalf("expected closed state, got %s", snap.State)
	}
	if _, ok := game.Summary(); ok {
		t.Fatalf("expected no summary from a closed game")
	}
}

func TestGameRateLimited(t *testing.T) {
	src := &fakeSource{errs: []error{&domain.ServiceError{Kind: domain.ErrRateLimited, Code: -1}}}
	game, _, _ := newTestGame(t, mediumParams(3), src)

	if err := game.Start(context.Background()); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	summary, ok := game.Summary()
	if !ok || !summary.WasError || summary.FinalScore != 0 || summary.TotalCorrect != 0 {
		t.Fatalf("expected error summary with no score, got %+v", summary)
	}
	snap := game.Snapshot()
	if !strings.HasPrefix(snap.Error, "Rate limit exceeded") {
		t.Fatalf("unexpected message %q", snap.Error)
	}
	if snap.Recovery != domain.RecoveryRetry {
		t.Fatalf("expected retry recovery, got %q", snap.Recovery)
	}
}

func TestGameEmptyQuestionSet(t *testing.T) {
	game, _, _ := newTestGame(t, mediumParams(3), &fakeSource{})
	if err := game.Start(context.Background()); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestGameTotalNeverExceedsQuestions(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	const n = 4
	game, clock, _ := newTestGame(t, mediumParams(n), &fakeSource{questions: sampleQuestions(n)})
	if err := game.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	keys := []string{"option0", "option1", "option2", "option3", "bogus"}
	last := 0
	for i := 0; i < 500; i++ {
		switch rnd.Intn(4) {
		case 0:
			_ = game.Select(keys[rnd.Intn(len(keys))])
		case 1:
			_ = game.Submit()
		case 2:
			clock.Tick()
		case 3:
			_, _, _ = game.Next()
		}
		snap := game.Snapshot()
		if snap.Score.Total > n || snap.Score.Total < last {
			t.Fatalf("step %d: total %d (previous %d) out of bounds", i, snap.Score.Total, last)
		}
		if snap.Score.Correct > snap.Score.Total {
			t.Fatalf("step %d: correct %d > total %d", i, snap.Score.Correct, snap.Score.Total)
		}
		last = snap.Score.Total
	}
}
