package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/domain"
)

// fakeClock fires timers only when Tick is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Every(_ time.Duration, fn func()) func() {
	t := &fakeTimer{fn: fn}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		t.stopped = true
		c.mu.Unlock()
	}
}

// Tick advances one second and fires every running timer.
func (c *fakeClock) Tick() {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	var running []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			running = append(running, t)
		}
	}
	c.mu.Unlock()
	for _, t := range running {
		t.fn()
	}
}

// FireStopped delivers a late tick from every stopped timer.
func (c *fakeClock) FireStopped() {
	c.mu.Lock()
	var stopped []*fakeTimer
	for _, t := range c.timers {
		if t.stopped {
			stopped = append(stopped, t)
		}
	}
	c.mu.Unlock()
	for _, t := range stopped {
		t.fn()
	}
}

func (c *fakeClock) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeSource struct {
	mu        sync.Mutex
	questions []domain.Question
	errs      []error
	calls     int
	tokens    []string
}

func (s *fakeSource) Fetch(_ context.Context, _ domain.QuizParameters, token string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.tokens = append(s.tokens, token)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return append([]domain.Question(nil), s.questions...), nil
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeTokens struct {
	acquires   atomic.Int32
	resets     atomic.Int32
	acquireErr error
	resetErr   error
}

func (f *fakeTokens) Acquire(context.Context) (string, error) {
	n := f.acquires.Add(1)
	if f.acquireErr != nil {
		return "", f.acquireErr
	}
	return fmt.Sprintf("token-%d", n), nil
}

func (f *fakeTokens) Reset(_ context.Context, token string) (string, error) {
	f.resets.Add(1)
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return token + "-reset", nil
}

type eventLog struct {
	mu     sync.Mutex
	events []app.Event
}

func (l *eventLog) listen(ev app.Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) count(t app.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// sampleQuestions builds n questions whose correct answer is always option0.
func sampleQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Prompt: fmt.Sprintf("Question %d?", i+1),
			Options: []domain.Option{
				{Key: "option2", Text: "wrong b"},
				{Key: "option0", Text: "right"},
				{Key: "option3", Text: "wrong c"},
				{Key: "option1", Text: "wrong a"},
			},
			CorrectAnswers: []string{"right"},
		}
	}
	return qs
}

func mediumParams(n int) domain.QuizParameters {
	return domain.QuizParameters{
		Difficulty:       domain.DifficultyMedium,
		Category:         "9",
		NumQuestions:     n,
		TimePerChallenge: 5,
	}
}
