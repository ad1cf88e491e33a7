package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/ports"
)

// ScenarioRepositoryImpl implements ScenarioRepositoryPort for PostgreSQL
type ScenarioRepositoryImpl struct {
	db *sqlx.DB
}

// NewScenarioRepository creates a new PostgreSQL scenario repository
func NewScenarioRepository(db *sqlx.DB) ports.ScenarioRepositoryPort {
	return &ScenarioRepositoryImpl{db: db}
}

// scenarioRow flattens PlanningScenario onto the planning_scenarios table.
type scenarioRow struct {
	ID                 string       `db:"id"`
	Name               string       `db:"name"`
	Alpha              float64      `db:"alpha"`
	Power              float64      `db:"power"`
	MeanDiff           float64      `db:"mean_diff"`
	PooledSD           float64      `db:"pooled_sd"`
	AllocationRatio    float64      `db:"allocation_ratio"`
	TestType           string       `db:"test_type"`
	DropoutRate        float64      `db:"dropout_rate"`
	NPerArmActive      int          `db:"n_per_arm_active"`
	NPerArmControl     int          `db:"n_per_arm_control"`
	TotalBeforeDropout int          `db:"total_before_dropout"`
	TotalAfterDropout  int          `db:"total_after_dropout"`
	EffectSize         float64      `db:"effect_size"`
	EffectLabel        string       `db:"effect_label"`
	CreatedAt          sql.NullTime `db:"created_at"`
}

func toRow(s trial.PlanningScenario) scenarioRow {
	return scenarioRow{
		ID:                 string(s.ID),
		Name:               s.Name,
		Alpha:              s.Inputs.Alpha,
		Power:              s.Inputs.Power,
		MeanDiff:           s.Inputs.MeanDiff,
		PooledSD:           s.Inputs.PooledSD,
		AllocationRatio:    s.Inputs.AllocationRatio,
		TestType:           string(s.Inputs.TestType),
		DropoutRate:        s.Inputs.DropoutRate,
		NPerArmActive:      s.Result.NPerArmActive,
		NPerArmControl:     s.Result.NPerArmControl,
		TotalBeforeDropout: s.Result.TotalBeforeDropout,
		TotalAfterDropout:  s.Result.TotalAfterDropout,
		EffectSize:         s.Result.EffectSize,
		EffectLabel:        s.Result.EffectLabel,
	}
}

func (row scenarioRow) toDomain() trial.PlanningScenario {
	scenario := trial.PlanningScenario{
		ID:   core.ScenarioID(row.ID),
		Name: row.Name,
		Inputs: trial.SampleSizeInputs{
			Alpha:           row.Alpha,
			Power:           row.Power,
			MeanDiff:        row.MeanDiff,
			PooledSD:        row.PooledSD,
			AllocationRatio: row.AllocationRatio,
			TestType:        trial.TestSidedness(row.TestType),
			DropoutRate:     row.DropoutRate,
		},
		Result: trial.SampleSizeResult{
			NPerArmActive:      row.NPerArmActive,
			NPerArmControl:     row.NPerArmControl,
			TotalBeforeDropout: row.TotalBeforeDropout,
			TotalAfterDropout:  row.TotalAfterDropout,
			EffectSize:         row.EffectSize,
			EffectLabel:        row.EffectLabel,
		},
	}
	if row.CreatedAt.Valid {
		scenario.CreatedAt = core.NewTimestamp(row.CreatedAt.Time)
	}
	return scenario
}

const scenarioColumns = `id, name, alpha, power, mean_diff, pooled_sd,
	allocation_ratio, test_type, dropout_rate,
	n_per_arm_active, n_per_arm_control,
	total_before_dropout, total_after_dropout,
	effect_size, effect_label, created_at`

// SaveScenario inserts a scenario, or updates it in place when the same id
// is saved again.
func (r *ScenarioRepositoryImpl) SaveScenario(ctx context.Context, scenario trial.PlanningScenario) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO planning_scenarios (
			id, name, alpha, power, mean_diff, pooled_sd,
			allocation_ratio, test_type, dropout_rate,
			n_per_arm_active, n_per_arm_control,
			total_before_dropout, total_after_dropout,
			effect_size, effect_label, created_at
		) VALUES (
			:id, :name, :alpha, :power, :mean_diff, :pooled_sd,
			:allocation_ratio, :test_type, :dropout_rate,
			:n_per_arm_active, :n_per_arm_control,
			:total_before_dropout, :total_after_dropout,
			:effect_size, :effect_label, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			alpha = EXCLUDED.alpha,
			power = EXCLUDED.power,
			mean_diff = EXCLUDED.mean_diff,
			pooled_sd = EXCLUDED.pooled_sd,
			allocation_ratio = EXCLUDED.allocation_ratio,
			test_type = EXCLUDED.test_type,
			dropout_rate = EXCLUDED.dropout_rate,
			n_per_arm_active = EXCLUDED.n_per_arm_active,
			n_per_arm_control = EXCLUDED.n_per_arm_control,
			total_before_dropout = EXCLUDED.total_before_dropout,
			total_after_dropout = EXCLUDED.total_after_dropout,
			effect_size = EXCLUDED.effect_size,
			effect_label = EXCLUDED.effect_label
	`, toRow(scenario))

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%w: scenario name %q already taken", core.ErrInvalidScenario, scenario.Name)
	}
	return err
}

// GetScenario retrieves a scenario by its id
func (r *ScenarioRepositoryImpl) GetScenario(ctx context.Context, id core.ScenarioID) (*trial.PlanningScenario, error) {
	var row scenarioRow
	err := r.db.GetContext(ctx, &row, `
		SELECT `+scenarioColumns+`
		FROM planning_scenarios
		WHERE id = $1
	`, string(id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}

	scenario := row.toDomain()
	return &scenario, nil
}

// ListScenarios returns saved scenarios, most recent first
func (r *ScenarioRepositoryImpl) ListScenarios(ctx context.Context, filters ports.ScenarioFilters) ([]trial.PlanningScenario, error) {
	query := `
		SELECT ` + scenarioColumns + `
		FROM planning_scenarios`
	args := []interface{}{}

	if filters.Name != nil {
		query += ` WHERE name = $1`
		args = append(args, *filters.Name)
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filters.Offset)
	}

	var rows []scenarioRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	scenarios := make([]trial.PlanningScenario, len(rows))
	for i, row := range rows {
		scenarios[i] = row.toDomain()
	}
	return scenarios, nil
}

// DeleteScenario removes a saved scenario
func (r *ScenarioRepositoryImpl) DeleteScenario(ctx context.Context, id core.ScenarioID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM planning_scenarios WHERE id = $1
	`, string(id))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrScenarioNotFound
	}
	return nil
}
