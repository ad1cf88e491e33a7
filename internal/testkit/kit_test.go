package testkit

import (
	"context"
	"reflect"
	"testing"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/ports"
)

func TestDemoSource_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, _ := NewDemoSource(40, 7).FetchRecords(ctx, "study-1")
	b, _ := NewDemoSource(40, 7).FetchRecords(ctx, "study-1")

	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different records")
	}

	c, _ := NewDemoSource(40, 8).FetchRecords(ctx, "study-1")
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds produced identical records")
	}
}

func TestDemoSource_BothArmsAllVisits(t *testing.T) {
	records, err := NewDemoSource(60, 1).FetchRecords(context.Background(), "study-1")
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("no records generated")
	}

	known := map[string]bool{}
	for _, v := range DemoVisits {
		known[v] = true
	}
	arms := map[trial.Arm]bool{}
	visits := map[string]bool{}
	for _, r := range records {
		if !known[r.VisitName] {
			t.Fatalf("unexpected visit %q", r.VisitName)
		}
		arms[r.TreatmentArm] = true
		visits[r.VisitName] = true
	}
	if !arms[trial.ArmActive] || !arms[trial.ArmPlacebo] {
		t.Fatalf("expected both comparison arms, got %v", arms)
	}
	if len(visits) != len(DemoVisits) {
		t.Fatalf("expected all %d visits represented, got %d", len(DemoVisits), len(visits))
	}
}

func TestDemoSource_BaselinesCoverAllFields(t *testing.T) {
	baselines, err := NewDemoSource(10, 1).FetchBaselines(context.Background(), "study-1")
	if err != nil {
		t.Fatalf("FetchBaselines: %v", err)
	}
	for _, field := range trial.Fields() {
		base, ok := baselines[field]
		if !ok {
			t.Fatalf("missing baseline for %s", field)
		}
		if base.Std <= 0 {
			t.Fatalf("baseline std for %s not positive: %v", field, base.Std)
		}
	}
}

func TestInMemoryScenarioRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryScenarioRepository()

	inputs := trial.SampleSizeInputs{
		Alpha: 0.05, Power: 0.80, MeanDiff: 10, PooledSD: 15,
		AllocationRatio: 1, TestType: trial.TwoSided,
	}
	scenario, err := trial.NewPlanningScenario("phase 2 draft", inputs, trial.SampleSizeResult{})
	if err != nil {
		t.Fatalf("NewPlanningScenario: %v", err)
	}

	if err := repo.SaveScenario(ctx, *scenario); err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}

	got, err := repo.GetScenario(ctx, scenario.ID)
	if err != nil {
		t.Fatalf("GetScenario: %v", err)
	}
	if got.Name != "phase 2 draft" {
		t.Fatalf("round-trip name = %q", got.Name)
	}

	list, err := repo.ListScenarios(ctx, ports.ScenarioFilters{})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListScenarios = %d items, err %v", len(list), err)
	}

	if err := repo.DeleteScenario(ctx, scenario.ID); err != nil {
		t.Fatalf("DeleteScenario: %v", err)
	}
	if _, err := repo.GetScenario(ctx, scenario.ID); !core.IsScenarioNotFound(err) {
		t.Fatalf("expected scenario-not-found after delete, got %v", err)
	}
}
