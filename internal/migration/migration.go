package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"trialdash/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createScenariosTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create planning_scenarios table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createScenariosTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS planning_scenarios (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			power DOUBLE PRECISION NOT NULL,
			mean_diff DOUBLE PRECISION NOT NULL,
			pooled_sd DOUBLE PRECISION NOT NULL,
			allocation_ratio DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			test_type VARCHAR(20) NOT NULL DEFAULT 'two-sided',
			dropout_rate DOUBLE PRECISION NOT NULL DEFAULT 0.0,
			n_per_arm_active INTEGER NOT NULL,
			n_per_arm_control INTEGER NOT NULL,
			total_before_dropout INTEGER NOT NULL,
			total_after_dropout INTEGER NOT NULL,
			effect_size DOUBLE PRECISION NOT NULL,
			effect_label VARCHAR(20) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_scenarios_name ON planning_scenarios(name)",
		"CREATE INDEX IF NOT EXISTS idx_scenarios_created_at ON planning_scenarios(created_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return err
		}
	}
	return nil
}
