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
	ErrAssignmentParticipantInvalid = errors.New("assignment participant conflict or invalid")
	ErrAssignmentTeamInvalid        = errors.New("assignment team conflict or invalid")
)

type AssignmentRepository interface {
	// SaveBundle inserts one assignment per team ID for the participant.
	// Вставка атомарна: либо все строки связки, либо ни одной, поэтому
	// метод всегда работает через переданный executor (транзакцию).
	SaveBundle(ctx context.Context, exec SQLExecutor, participantID int, teamIDs []int, primary bool) error
	List(ctx context.Context, primaryOnly bool) ([]*models.Assignment, error)
	ListByParticipant(ctx context.Context, participantID int) ([]*models.Assignment, error)
}

type postgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &postgresAssignmentRepository{db: db}
}

func (r *postgresAssignmentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAssignmentRepository) SaveBundle(ctx context.Context, exec SQLExecutor, participantID int, teamIDs []int, primary bool) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO assignments (participant_id, team_id, is_primary)
		VALUES ($1, $2, $3)`

	for _, teamID := range teamIDs {
		if _, err := executor.ExecContext(ctx, query, participantID, teamID, primary); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
				switch pqErr.Constraint {
				case "assignments_participant_id_fkey":
					return ErrAssignmentParticipantInvalid
				case "assignments_team_id_fkey":
					return ErrAssignmentTeamInvalid
				}
			}
			return fmt.Errorf("failed to save assignment (participant %d, team %d): %w", participantID, teamID, err)
		}
	}
	return nil
}

func (r *postgresAssignmentRepository) scanAssignment(rowScanner interface {
	Scan(dest ...interface{}) error
}, a *models.Assignment) error {
	return rowScanner.Scan(&a.ID, &a.ParticipantID, &a.TeamID, &a.Primary, &a.CreatedAt)
}

func (r *postgresAssignmentRepository) List(ctx context.Context, primaryOnly bool) ([]*models.Assignment, error) {
	query := `SELECT id, participant_id, team_id, is_primary, created_at FROM assignments`
	if primaryOnly {
		query += ` WHERE is_primary`
	}
	query += ` ORDER BY participant_id, team_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresAssignmentRepository) ListByParticipant(ctx context.Context, participantID int) ([]*models.Assignment, error) {
	query := `
		SELECT id, participant_id, team_id, is_primary, created_at
		FROM assignments
		WHERE participant_id = $1
		ORDER BY team_id`
	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *postgresAssignmentRepository) collect(rows *sql.Rows) ([]*models.Assignment, error) {
	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		a := &models.Assignment{}
		if err := r.scanAssignment(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}
	return assignments, nil
}
