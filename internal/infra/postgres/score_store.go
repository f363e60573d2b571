package postgres

import (
	"context"
	"fmt"

	"cogniquiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore keeps leaderboard records in the score_records table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) Append(ctx context.Context, r domain.ScoreRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO score_records
			(id, score, total_correct, total_questions, difficulty, category, num_questions, time_per_challenge, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Score, r.TotalCorrect, r.TotalQuestions, string(r.Difficulty), r.Category,
		r.NumQuestions, r.TimePerChallenge, r.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: insert score: %v", domain.ErrStorageWrite, err)
	}
	return nil
}

// ListAll returns records best first, newest first among equal scores.
func (s *ScoreStore) ListAll(ctx context.Context) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, score, total_correct, total_questions, difficulty, category, num_questions, time_per_challenge, played_at
		FROM score_records
		ORDER BY score DESC, played_at DESC`)
	if err != nil {
		return []domain.ScoreRecord{}, fmt.Errorf("%w: query scores: %v", domain.ErrStorageRead, err)
	}
	defer rows.Close()

	records := []domain.ScoreRecord{}
	for rows.Next() {
		var (
			r          domain.ScoreRecord
			difficulty string
		)
		if err := rows.Scan(&r.ID, &r.Score, &r.TotalCorrect, &r.TotalQuestions, &difficulty, &r.Category,
			&r.NumQuestions, &r.TimePerChallenge, &r.Timestamp); err != nil {
			return []domain.ScoreRecord{}, fmt.Errorf("%w: scan score: %v", domain.ErrStorageRead, err)
		}
		r.Difficulty = domain.Difficulty(difficulty)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return []domain.ScoreRecord{}, fmt.Errorf("%w: read scores: %v", domain.ErrStorageRead, err)
	}
	return records, nil
}

func (s *ScoreStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM score_records`); err != nil {
		return fmt.Errorf("%w: clear scores: %v", domain.ErrStorageWrite, err)
	}
	return nil
}
