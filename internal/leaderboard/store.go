// Package leaderboard keeps completed quiz results in a single named blob.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"cogniquiz-service/internal/domain"
	"go.uber.org/zap"
)

// Key is the blob holding the JSON array of score records.
const Key = "quizLeaderboard"

// Blobs is the key-value storage the leaderboard is kept in.
type Blobs interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store implements app.ScoreStore on top of a blob store. Appends are a
// read-modify-write of the whole blob and are serialized per Store.
type Store struct {
	blobs Blobs
	log   *zap.Logger
	mu    sync.Mutex
}

func NewStore(blobs Blobs, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{blobs: blobs, log: log}
}

// Append adds one record. A blob that cannot be decoded is replaced rather than
// blocking new scores; a failed read aborts without writing.
func (s *Store) Append(ctx context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	records, err := decode(raw)
	if err != nil {
		s.log.Warn("leaderboard corrupt, starting over", zap.Error(err))
		records = nil
	}
	records = append(records, record)

	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode leaderboard: %v", domain.ErrStorageWrite, err)
	}
	if err := s.blobs.Set(ctx, Key, string(encoded)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	return nil
}

// ListAll returns all records sorted for display.
func (s *Store) ListAll(ctx context.Context) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return []domain.ScoreRecord{}, err
	}
	Sort(records)
	return records, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.blobs.Delete(ctx, Key); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]domain.ScoreRecord, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (s *Store) read(ctx context.Context) (string, error) {
	raw, _, err := s.blobs.Get(ctx, Key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	return raw, nil
}

func decode(raw string) ([]domain.ScoreRecord, error) {
	if raw == "" {
		return []domain.ScoreRecord{}, nil
	}
	var records []domain.ScoreRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: decode leaderboard: %v", domain.ErrStorageRead, err)
	}
	if records == nil {
		records = []domain.ScoreRecord{}
	}
	return records, nil
}

// Sort orders records by score, highest first; equal scores put the newest first.
func Sort(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
