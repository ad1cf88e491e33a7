package ports

import (
	"context"

	"trialdash/domain/core"
	"trialdash/domain/trial"
)

// ScenarioRepositoryPort persists saved sample-size planning scenarios.
// The derived-view pipeline itself keeps no state; scenarios are the only
// thing the service writes.
type ScenarioRepositoryPort interface {
	SaveScenario(ctx context.Context, scenario trial.PlanningScenario) error
	GetScenario(ctx context.Context, id core.ScenarioID) (*trial.PlanningScenario, error)
	ListScenarios(ctx context.Context, filters ScenarioFilters) ([]trial.PlanningScenario, error)
	DeleteScenario(ctx context.Context, id core.ScenarioID) error
}

// ScenarioFilters for listing saved scenarios
type ScenarioFilters struct {
	Name   *string
	Limit  int
	Offset int
}
