package trial

import (
	"fmt"

	"trialdash/domain/core"
)

// TestSidedness selects between one- and two-sided hypothesis tests for
// sample-size planning.
type TestSidedness string

const (
	TwoSided TestSidedness = "two-sided"
	OneSided TestSidedness = "one-sided"
)

// SampleSizeInputs are the user-editable fields of the trial-planning panel.
// Pure value object; computed on demand, never persisted by the core
// (saved scenarios live in their own repository).
type SampleSizeInputs struct {
	Alpha           float64       `json:"alpha"`
	Power           float64       `json:"power"`
	MeanDiff        float64       `json:"mean_diff"`
	PooledSD        float64       `json:"pooled_sd"`
	AllocationRatio float64       `json:"allocation_ratio"` // active : control
	TestType        TestSidedness `json:"test_type"`
	DropoutRate     float64       `json:"dropout_rate"`
}

// Validate checks the planning inputs for arithmetic viability.
func (in SampleSizeInputs) Validate() error {
	if in.MeanDiff == 0 {
		return fmt.Errorf("%w: expected mean difference cannot be zero", core.ErrInvalidScenario)
	}
	if in.PooledSD <= 0 {
		return fmt.Errorf("%w: pooled SD must be positive", core.ErrInvalidScenario)
	}
	if in.Alpha <= 0 || in.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1)", core.ErrInvalidScenario)
	}
	if in.Power <= 0 || in.Power >= 1 {
		return fmt.Errorf("%w: power must be in (0, 1)", core.ErrInvalidScenario)
	}
	if in.AllocationRatio <= 0 {
		return fmt.Errorf("%w: allocation ratio must be positive", core.ErrInvalidScenario)
	}
	if in.DropoutRate < 0 || in.DropoutRate >= 1 {
		return fmt.Errorf("%w: dropout rate must be in [0, 1)", core.ErrInvalidScenario)
	}
	return nil
}

// SampleSizeResult is the computed output of the planning calculator.
type SampleSizeResult struct {
	NPerArmActive      int     `json:"n_per_arm_active"`
	NPerArmControl     int     `json:"n_per_arm_control"`
	TotalBeforeDropout int     `json:"total_before_dropout"`
	TotalAfterDropout  int     `json:"total_after_dropout"`
	EffectSize         float64 `json:"effect_size"`
	EffectLabel        string  `json:"effect_label"`
}

// PlanningScenario is a saved sample-size configuration, so analysts can
// revisit and compare trial designs across sessions.
type PlanningScenario struct {
	ID        core.ScenarioID  `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Inputs    SampleSizeInputs `json:"inputs"`
	Result    SampleSizeResult `json:"result"`
	CreatedAt core.Timestamp   `json:"created_at" db:"created_at"`
}

// NewPlanningScenario validates inputs and stamps identity/creation time.
func NewPlanningScenario(name string, inputs SampleSizeInputs, result SampleSizeResult) (*PlanningScenario, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: scenario name required", core.ErrInvalidScenario)
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	return &PlanningScenario{
		ID:        core.ScenarioID(core.NewID()),
		Name:      name,
		Inputs:    inputs,
		Result:    result,
		CreatedAt: core.Now(),
	}, nil
}
