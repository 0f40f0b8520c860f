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
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamSeedConflict = errors.New("team seed already taken in this region")
	ErrTeamNameConflict = errors.New("team name already exists")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	BatchCreate(ctx context.Context, exec SQLExecutor, teams []*models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	SetEliminated(ctx context.Context, exec SQLExecutor, id int, eliminated bool) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func mapTeamError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		switch pqErr.Constraint {
		case "teams_region_seed_key":
			return ErrTeamSeedConflict
		case "teams_name_key":
			return ErrTeamNameConflict
		}
	}
	return err
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, seed, region, eliminated)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Name, team.Seed, team.Region, team.Eliminated,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if mapped := mapTeamError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// BatchCreate inserts the whole imported roster. Запускается внутри одной
// транзакции: либо весь импорт, либо ничего.
func (r *postgresTeamRepository) BatchCreate(ctx context.Context, exec SQLExecutor, teams []*models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO teams (name, seed, region, eliminated)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	for _, team := range teams {
		err := executor.QueryRowContext(ctx, query,
			team.Name, team.Seed, team.Region, team.Eliminated,
		).Scan(&team.ID, &team.CreatedAt)
		if err != nil {
			if mapped := mapTeamError(err); mapped != err {
				return fmt.Errorf("%w: %s (seed %d, %s)", mapped, team.Name, team.Seed, team.Region)
			}
			return fmt.Errorf("failed to insert team %q: %w", team.Name, err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) scanTeam(rowScanner interface {
	Scan(dest ...interface{}) error
}, team *models.Team) error {
	return rowScanner.Scan(
		&team.ID,
		&team.Name,
		&team.Seed,
		&team.Region,
		&team.Eliminated,
		&team.LogoKey,
		&team.CreatedAt,
	)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, seed, region, eliminated, logo_key, created_at FROM teams WHERE id = $1`
	team := &models.Team{}
	err := r.scanTeam(r.db.QueryRowContext(ctx, query, id), team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `SELECT id, name, seed, region, eliminated, logo_key, created_at FROM teams ORDER BY region, seed`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if err := r.scanTeam(rows, team); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) SetEliminated(ctx context.Context, exec SQLExecutor, id int, eliminated bool) error {
	executor := r.getExecutor(exec)
	query := `UPDATE teams SET eliminated = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, eliminated, id)
	if err != nil {
		return fmt.Errorf("failed to update team elimination flag: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update team logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
