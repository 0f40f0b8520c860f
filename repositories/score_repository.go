package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/bracket-pool/models"
)

var ErrScoreNotFound = errors.New("score not found")

type ScoreRepository interface {
	// InitForParticipant creates the participant's three zero-point period
	// rows. Вызывается один раз при регистрации, внутри её транзакции.
	InitForParticipant(ctx context.Context, exec SQLExecutor, participantID int) error
	// BatchUpsert overwrites every passed score row atomically. Пересчёт
	// всегда пишется целиком: читатели не видят наполовину обновлённую
	// таблицу.
	BatchUpsert(ctx context.Context, scores []models.Score) error
	ListByParticipant(ctx context.Context, participantID int) ([]models.Score, error)
	ListAll(ctx context.Context) ([]models.Score, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreRepository) InitForParticipant(ctx context.Context, exec SQLExecutor, participantID int) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO scores (participant_id, period, points, cumulative, updated_at)
		VALUES ($1, $2, 0, 0, NOW())`
	for period := 1; period <= 3; period++ {
		if _, err := executor.ExecContext(ctx, query, participantID, period); err != nil {
			return fmt.Errorf("failed to init score row (participant %d, period %d): %w", participantID, period, err)
		}
	}
	return nil
}

func (r *postgresScoreRepository) BatchUpsert(ctx context.Context, scores []models.Score) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("BatchUpsert failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scores (participant_id, period, points, cumulative, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_id, period)
		DO UPDATE SET points = EXCLUDED.points, cumulative = EXCLUDED.cumulative, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("BatchUpsert failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, score := range scores {
		updatedAt := score.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, score.ParticipantID, score.Period, score.Points, score.Cumulative, updatedAt); err != nil {
			return fmt.Errorf("BatchUpsert failed for participant %d period %d: %w", score.ParticipantID, score.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("BatchUpsert failed to commit: %w", err)
	}
	return nil
}

func (r *postgresScoreRepository) scanScore(rowScanner interface {
	Scan(dest ...interface{}) error
}, score *models.Score) error {
	return rowScanner.Scan(
		&score.ID,
		&score.ParticipantID,
		&score.Period,
		&score.Points,
		&score.Cumulative,
		&score.UpdatedAt,
	)
}

func (r *postgresScoreRepository) ListByParticipant(ctx context.Context, participantID int) ([]models.Score, error) {
	query := `
		SELECT id, participant_id, period, points, cumulative, updated_at
		FROM scores WHERE participant_id = $1 ORDER BY period`
	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresScoreRepository) ListAll(ctx context.Context) ([]models.Score, error) {
	query := `
		SELECT id, participant_id, period, points, cumulative, updated_at
		FROM scores ORDER BY participant_id, period`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresScoreRepository) collect(rows *sql.Rows) ([]models.Score, error) {
	scores := make([]models.Score, 0)
	for rows.Next() {
		var score models.Score
		if err := r.scanScore(rows, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score rows: %w", err)
	}
	return scores, nil
}
