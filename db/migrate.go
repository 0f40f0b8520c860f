package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema: все операторы идемпотентны, Migrate можно запускать при каждом старте.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		seed INT NOT NULL CHECK (seed BETWEEN 1 AND 16),
		region TEXT NOT NULL,
		eliminated BOOLEAN NOT NULL DEFAULT FALSE,
		logo_key TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT teams_region_seed_key UNIQUE (region, seed),
		CONSTRAINT teams_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT participants_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id SERIAL PRIMARY KEY,
		participant_id INT NOT NULL,
		team_id INT NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT assignments_participant_id_fkey FOREIGN KEY (participant_id) REFERENCES participants (id) ON DELETE CASCADE,
		CONSTRAINT assignments_team_id_fkey FOREIGN KEY (team_id) REFERENCES teams (id)
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id SERIAL PRIMARY KEY,
		round TEXT NOT NULL,
		team_a_id INT NOT NULL REFERENCES teams (id),
		team_b_id INT NOT NULL REFERENCES teams (id),
		winner_id INT,
		score_a INT,
		score_b INT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		id SERIAL PRIMARY KEY,
		participant_id INT NOT NULL REFERENCES participants (id) ON DELETE CASCADE,
		period INT NOT NULL CHECK (period BETWEEN 1 AND 3),
		points INT NOT NULL DEFAULT 0,
		cumulative INT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT scores_participant_period_key UNIQUE (participant_id, period)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
