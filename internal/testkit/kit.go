package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/ports"
)

// DemoSource implements ports.VitalsSourcePort with a deterministic
// generated dataset. The same seed always yields the same records, so
// tests and the server's demo mode see identical data across restarts.
type DemoSource struct {
	subjects int
	seed     int64

	once      sync.Once
	records   []trial.VitalsRecord
	baselines map[trial.VitalsField]trial.BaselineStats
}

// DemoVisits is the fixed schedule the generator emits.
var DemoVisits = []string{"Screening", "Week 2", "Week 4", "Week 8", "Week 12"}

// NewDemoSource creates a demo source with the given subject count.
func NewDemoSource(subjects int, seed int64) *DemoSource {
	if subjects <= 0 {
		subjects = 60
	}
	return &DemoSource{subjects: subjects, seed: seed}
}

// FetchRecords returns the generated record collection. studyID is ignored;
// the demo backend serves one study.
func (d *DemoSource) FetchRecords(ctx context.Context, studyID core.StudyID) ([]trial.VitalsRecord, error) {
	d.generate()
	out := make([]trial.VitalsRecord, len(d.records))
	copy(out, d.records)
	return out, nil
}

// FetchBaselines returns per-field baseline stats matching the generator's
// screening-visit parameters.
func (d *DemoSource) FetchBaselines(ctx context.Context, studyID core.StudyID) (map[trial.VitalsField]trial.BaselineStats, error) {
	d.generate()
	out := make(map[trial.VitalsField]trial.BaselineStats, len(d.baselines))
	for k, v := range d.baselines {
		out[k] = v
	}
	return out, nil
}

// fieldParams holds the generating distribution per field.
type fieldParams struct {
	mean float64
	std  float64
	// per-visit drift applied to active-arm subjects, indexed by DemoVisits
	activeDrift []float64
}

var demoParams = map[trial.VitalsField]fieldParams{
	trial.FieldSystolicBP:  {mean: 128, std: 12, activeDrift: []float64{0, -2, -4, -6, -8}},
	trial.FieldDiastolicBP: {mean: 82, std: 8, activeDrift: []float64{0, -1, -2, -3, -4}},
	trial.FieldHeartRate:   {mean: 72, std: 9, activeDrift: []float64{0, 0, -1, -1, -2}},
	trial.FieldTemperature: {mean: 36.8, std: 0.3, activeDrift: []float64{0, 0, 0, 0, 0}},
}

const missingRate = 0.08

func (d *DemoSource) generate() {
	d.once.Do(func() {
		rng := rand.New(rand.NewSource(d.seed))

		d.baselines = make(map[trial.VitalsField]trial.BaselineStats, len(demoParams))
		for _, field := range trial.Fields() {
			p := demoParams[field]
			d.baselines[field] = trial.BaselineStats{Field: field, Mean: p.mean, Std: p.std}
		}

		for i := 0; i < d.subjects; i++ {
			subjectID := fmt.Sprintf("S%03d", i+1)
			arm := trial.ArmActive
			if i%2 == 1 {
				arm = trial.ArmPlacebo
			}
			// Subject-level offsets keep a subject's trajectory coherent
			// across visits instead of resampling fresh noise each time.
			offsets := map[trial.VitalsField]float64{}
			for _, field := range trial.Fields() {
				offsets[field] = rng.NormFloat64() * demoParams[field].std
			}

			for v, visit := range DemoVisits {
				// A few subjects drop out after Week 4.
				if v >= 3 && i%11 == 0 {
					continue
				}
				rec := trial.VitalsRecord{
					SubjectID:    subjectID,
					TreatmentArm: arm,
					VisitName:    visit,
				}
				for _, field := range trial.Fields() {
					if rng.Float64() < missingRate {
						continue // sporadic missing measurement
					}
					p := demoParams[field]
					value := p.mean + offsets[field]*0.7 + rng.NormFloat64()*p.std*0.3
					if arm == trial.ArmActive {
						value += p.activeDrift[v]
					}
					setField(&rec, field, value)
				}
				d.records = append(d.records, rec)
			}
		}
	})
}

func setField(rec *trial.VitalsRecord, field trial.VitalsField, value float64) {
	v := value
	switch field {
	case trial.FieldSystolicBP:
		rec.SystolicBP = &v
	case trial.FieldDiastolicBP:
		rec.DiastolicBP = &v
	case trial.FieldHeartRate:
		rec.HeartRate = &v
	case trial.FieldTemperature:
		rec.Temperature = &v
	}
}

// InMemoryScenarioRepository implements ports.ScenarioRepositoryPort with
// map storage. Used in tests and when no database is configured.
type InMemoryScenarioRepository struct {
	mu        sync.RWMutex
	scenarios map[core.ScenarioID]trial.PlanningScenario
}

func NewInMemoryScenarioRepository() *InMemoryScenarioRepository {
	return &InMemoryScenarioRepository{
		scenarios: make(map[core.ScenarioID]trial.PlanningScenario),
	}
}

func (r *InMemoryScenarioRepository) SaveScenario(ctx context.Context, scenario trial.PlanningScenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[scenario.ID] = scenario
	return nil
}

func (r *InMemoryScenarioRepository) GetScenario(ctx context.Context, id core.ScenarioID) (*trial.PlanningScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scenario, ok := r.scenarios[id]
	if !ok {
		return nil, core.ErrScenarioNotFound
	}
	return &scenario, nil
}

func (r *InMemoryScenarioRepository) ListScenarios(ctx context.Context, filters ports.ScenarioFilters) ([]trial.PlanningScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]trial.PlanningScenario, 0, len(r.scenarios))
	for _, scenario := range r.scenarios {
		if filters.Name != nil && scenario.Name != *filters.Name {
			continue
		}
		results = append(results, scenario)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(results) {
			return []trial.PlanningScenario{}, nil
		}
		results = results[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(results) {
		results = results[:filters.Limit]
	}
	return results, nil
}

func (r *InMemoryScenarioRepository) DeleteScenario(ctx context.Context, id core.ScenarioID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenarios[id]; !ok {
		return core.ErrScenarioNotFound
	}
	delete(r.scenarios, id)
	return nil
}
