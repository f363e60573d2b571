package app

import (
	"context"
	"fmt"
	"time"

	"cogniquiz-service/internal/domain"
)

// DailyChallengeKey is the blob holding the last played date.
const DailyChallengeKey = "dailyChallengeLastPlayed"

const dateLayout = "2006-01-02"

// BlobStore is a named-blob key-value store.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DailyStatus reports whether today's challenge is still available.
type DailyStatus struct {
	Date       string                `json:"date"`
	LastPlayed string                `json:"lastPlayed,omitempty"`
	Available  bool                  `json:"available"`
	Parameters domain.QuizParameters `json:"parameters"`
}

// DailyChallenge allows one fixed-parameter quiz per calendar day.
type DailyChallenge struct {
	blobs BlobStore
	clock Clock
	loc   *time.Location
}

func NewDailyChallenge(blobs BlobStore, clock Clock, loc *time.Location) *DailyChallenge {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &DailyChallenge{blobs: blobs, clock: clock, loc: loc}
}

// DailyParameters are the same for every player and every day.
func DailyParameters() domain.QuizParameters {
	return domain.QuizParameters{
		Difficulty:       domain.DifficultyMedium,
		Category:         domain.CategoryAny,
		NumQuestions:     10,
		TimePerChallenge: 20,
	}
}

func (d *DailyChallenge) today() string {
	return d.clock.Now().In(d.loc).Format(dateLayout)
}

func (d *DailyChallenge) Status(ctx context.Context) (DailyStatus, error) {
	status := DailyStatus{Date: d.today(), Parameters: DailyParameters()}
	last, ok, err := d.blobs.Get(ctx, DailyChallengeKey)
	if err != nil {
		return status, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	if ok {
		status.LastPlayed = last
	}
	status.Available = status.LastPlayed != status.Date
	return status, nil
}

// MarkPlayed records today as played.
func (d *DailyChallenge) MarkPlayed(ctx context.Context) error {
	if err := d.blobs.Set(ctx, DailyChallengeKey, d.today()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	return nil
}
