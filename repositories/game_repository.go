package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameTeamInvalid = errors.New("game team conflict or invalid")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	List(ctx context.Context, round *models.Round) ([]*models.Game, error)
	ListCompleted(ctx context.Context) ([]*models.Game, error)
	// SaveResult overwrites the recorded result. Повторный ввод по той же
	// игре просто перезаписывает предыдущий, идемпотентность на уровне БД.
	SaveResult(ctx context.Context, exec SQLExecutor, id int, winnerID *int, scoreA, scoreB *int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (round, team_a_id, team_b_id, completed)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, updated_at`

	err := r.db.QueryRowContext(ctx, query, game.Round, game.TeamAID, game.TeamBID).
		Scan(&game.ID, &game.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return ErrGameTeamInvalid
		}
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) scanGame(rowScanner interface {
	Scan(dest ...interface{}) error
}, game *models.Game) error {
	return rowScanner.Scan(
		&game.ID,
		&game.Round,
		&game.TeamAID,
		&game.TeamBID,
		&game.WinnerID,
		&game.ScoreA,
		&game.ScoreB,
		&game.Completed,
		&game.UpdatedAt,
	)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `
		SELECT id, round, team_a_id, team_b_id, winner_id, score_a, score_b, completed, updated_at
		FROM games WHERE id = $1`
	game := &models.Game{}
	err := r.scanGame(r.db.QueryRowContext(ctx, query, id), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to find game: %w", err)
	}
	return game, nil
}

func (r *postgresGameRepository) List(ctx context.Context, round *models.Round) ([]*models.Game, error) {
	query := `
		SELECT id, round, team_a_id, team_b_id, winner_id, score_a, score_b, completed, updated_at
		FROM games`
	args := []interface{}{}
	if round != nil {
		query += ` WHERE round = $1`
		args = append(args, *round)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresGameRepository) ListCompleted(ctx context.Context) ([]*models.Game, error) {
	query := `
		SELECT id, round, team_a_id, team_b_id, winner_id, score_a, score_b, completed, updated_at
		FROM games WHERE completed ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresGameRepository) SaveResult(ctx context.Context, exec SQLExecutor, id int, winnerID *int, scoreA, scoreB *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE games
		SET winner_id = $1, score_a = $2, score_b = $3, completed = TRUE, updated_at = NOW()
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, winnerID, scoreA, scoreB, id)
	if err != nil {
		return fmt.Errorf("failed to save game result: %w", err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) collect(rows *sql.Rows) ([]*models.Game, error) {
	games := make([]*models.Game, 0)
	for rows.Next() {
		game := &models.Game{}
		if err := r.scanGame(rows, game); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}
	return games, nil
}
