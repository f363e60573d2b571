package domain

import (
	"fmt"
	"time"
)

// Difficulty is the quiz-wide difficulty selected at setup.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAny    Difficulty = "any"
)

// CategoryAny asks the question service for questions from every category.
const CategoryAny = "any"

const (
	MinQuestions        = 1
	MaxQuestions        = 50
	MinTimePerChallenge = 5
	MaxTimePerChallenge = 60
)

// Points returns the award for one correct answer at this difficulty.
// Unknown and "any" difficulties score like easy.
func (d Difficulty) Points() int {
	switch d {
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAny:
		return true
	}
	return false
}

// QuizParameters are fixed for the lifetime of one quiz session.
type QuizParameters struct {
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	Category         string     `json:"category" yaml:"category"`
	NumQuestions     int        `json:"numQuestions" yaml:"numQuestions"`
	TimePerChallenge int        `json:"timePerChallenge" yaml:"timePerChallenge"`
}

// DefaultParameters mirrors the setup screen defaults.
func DefaultParameters() QuizParameters {
	return QuizParameters{
		Difficulty:       DifficultyMedium,
		Category:         "9",
		NumQuestions:     10,
		TimePerChallenge: 20,
	}
}

// Validate checks ranges; an empty category or difficulty means "any".
func (p QuizParameters) Validate() error {
	if p.Difficulty != "" && !p.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidParameters, p.Difficulty)
	}
	if p.NumQuestions < MinQuestions || p.NumQuestions > MaxQuestions {
		return fmt.Errorf("%w: numQuestions must be within [%d,%d]", ErrInvalidParameters, MinQuestions, MaxQuestions)
	}
	if p.TimePerChallenge < MinTimePerChallenge || p.TimePerChallenge > MaxTimePerChallenge {
		return fmt.Errorf("%w: timePerChallenge must be within [%d,%d]", ErrInvalidParameters, MinTimePerChallenge, MaxTimePerChallenge)
	}
	return nil
}

// Normalized fills empty difficulty and category with "any".
func (p QuizParameters) Normalized() QuizParameters {
	if p.Difficulty == "" {
		p.Difficulty = DifficultyAny
	}
	if p.Category == "" {
		p.Category = CategoryAny
	}
	return p
}

// Option represents one displayed answer choice.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is a decoded multiple-choice question. It is never mutated after decoding.
type Question struct {
	ID             string   `json:"id"`
	Prompt         string   `json:"prompt"`
	Options        []Option `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
}

// OptionText returns the text of the option with the given key.
func (q Question) OptionText(key string) (string, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// IsCorrect reports whether text is one of the accepted answers.
func (q Question) IsCorrect(text string) bool {
	for _, answer := range q.CorrectAnswers {
		if answer == text {
			return true
		}
	}
	return false
}

// Score is the running tally of a session.
type Score struct {
	Correct     int `json:"correct"`
	Total       int `json:"total"`
	TotalPoints int `json:"totalPoints"`
}

// Feedback describes how a revealed question was resolved.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
	FeedbackTimedOut  Feedback = "timed_out"
)

// Summary is reported to the shell when a session ends.
type Summary struct {
	FinalScore     int            `json:"finalScore"`
	TotalCorrect   int            `json:"totalCorrect"`
	TotalQuestions int            `json:"totalQuestions"`
	WasError       bool           `json:"wasError"`
	Err            error          `json:"-"`
	Parameters     QuizParameters `json:"quizParameters"`
}

// ScoreRecord is one persisted leaderboard entry.
type ScoreRecord struct {
	ID               string     `json:"id" yaml:"id"`
	Score            int        `json:"score" yaml:"score"`
	TotalCorrect     int        `json:"totalCorrect" yaml:"totalCorrect"`
	TotalQuestions   int        `json:"totalQuestions" yaml:"totalQuestions"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	Category         string     `json:"category" yaml:"category"`
	NumQuestions     int        `json:"numQuestions" yaml:"numQuestions"`
	TimePerChallenge int        `json:"timePerChallenge" yaml:"timePerChallenge"`
	Timestamp        time.Time  `json:"timestamp" yaml:"timestamp"`
}

// NewScoreRecord builds the record persisted for a completed session.
func NewScoreRecord(id string, summary Summary, at time.Time) ScoreRecord {
	return ScoreRecord{
		ID:               id,
		Score:            summary.FinalScore,
		TotalCorrect:     summary.TotalCorrect,
		TotalQuestions:   summary.TotalQuestions,
		Difficulty:       summary.Parameters.Difficulty,
		Category:         summary.Parameters.Category,
		NumQuestions:     summary.Parameters.NumQuestions,
		TimePerChallenge: summary.Parameters.TimePerChallenge,
		Timestamp:        at.UTC(),
	}
}

// Category is one entry of the trivia category catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
