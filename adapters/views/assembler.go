// Package views assembles the per-panel data structures the dashboard
// renders, composing the chronology resolver, aggregator, binner and
// simulator. Assembly is purely structural: no new statistics happen here,
// and every builder is idempotent so the host can memoize by input identity.
package views

import (
	"sort"

	"trialdash/adapters/stats/aggregate"
	"trialdash/adapters/stats/chrono"
	"trialdash/adapters/stats/histogram"
	"trialdash/adapters/stats/synth"
	"trialdash/domain/trial"
	"trialdash/domain/views"
)

// DefaultTrajectorySubjects caps the trajectory table's row count.
const DefaultTrajectorySubjects = 10

// BuildTrend produces the visit-by-visit arm-mean series for one field.
func BuildTrend(records []trial.VitalsRecord, field trial.VitalsField) views.TrendView {
	res := chrono.ResolveVisits(records)

	view := views.TrendView{
		Field:      field,
		Visits:     res.OrderedVisits,
		FinalVisit: res.FinalVisit,
		Warning:    armWarning(records, res.Warning),
	}
	if res.IsEmpty() {
		view.Series = []views.TrendSeries{}
		return view
	}

	for _, arm := range []trial.Arm{trial.ArmActive, trial.ArmPlacebo} {
		series := views.TrendSeries{Arm: arm, Field: field, Points: make([]views.TrendPoint, 0, len(res.OrderedVisits))}
		for _, visit := range res.OrderedVisits {
			summary := aggregate.Summarize(aggregate.FieldValues(records, visit, arm, field))
			series.Points = append(series.Points, views.TrendPoint{
				Visit:   visit,
				Mean:    summary.Mean,
				SE:      summary.SE,
				N:       summary.N,
				HasData: summary.HasData(),
			})
		}
		view.Series = append(view.Series, series)
	}
	return view
}

// BuildBoxPlot produces per-arm five-number summaries at the final visit.
func BuildBoxPlot(records []trial.VitalsRecord, field trial.VitalsField) views.BoxPlotView {
	res := chrono.ResolveVisits(records)

	view := views.BoxPlotView{
		Field:      field,
		FinalVisit: res.FinalVisit,
		Warning:    armWarning(records, res.Warning),
		Boxes:      []views.BoxPlotSummary{},
	}
	if res.IsEmpty() {
		return view
	}

	for _, arm := range []trial.Arm{trial.ArmActive, trial.ArmPlacebo} {
		values := aggregate.FieldValues(records, res.FinalVisit, arm, field)
		if len(values) == 0 {
			view.Boxes = append(view.Boxes, views.BoxPlotSummary{Arm: arm})
			if view.Warning == "" {
				view.Warning = trial.WarningNoData
			}
			continue
		}
		view.Boxes = append(view.Boxes, fiveNumberSummary(arm, values))
	}
	return view
}

// fiveNumberSummary computes min/Q1/median/Q3/max by sorted-index lookup,
// floor(n*p) without interpolation.
func fiveNumberSummary(arm trial.Arm, values []float64) views.BoxPlotSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return views.BoxPlotSummary{
		Arm:    arm,
		N:      len(sorted),
		Min:    sorted[0],
		Q1:     sorted[quartileIndex(len(sorted), 0.25)],
		Median: sorted[quartileIndex(len(sorted), 0.50)],
		Q3:     sorted[quartileIndex(len(sorted), 0.75)],
		Max:    sorted[len(sorted)-1],
	}
}

// armWarning keeps an existing resolver warning, otherwise flags the
// presence of records outside the two comparison arms. Such records stay in
// the dataset but are excluded from every per-arm computation.
func armWarning(records []trial.VitalsRecord, existing trial.WarningCode) trial.WarningCode {
	if existing != "" {
		return existing
	}
	for _, rec := range records {
		if !rec.TreatmentArm.IsComparison() {
			return trial.WarningNonStudyArm
		}
	}
	return ""
}

// quartileIndex clamps floor(n*p) into valid index range.
func quartileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// BuildScatter pairs systolic and diastolic pressure per subject at the
// final visit. Records missing either pressure are omitted.
func BuildScatter(records []trial.VitalsRecord) views.ScatterView {
	res := chrono.ResolveVisits(records)

	view := views.ScatterView{
		FinalVisit: res.FinalVisit,
		Warning:    armWarning(records, res.Warning),
		Points: map[trial.Arm][]views.ScatterPoint{
			trial.ArmActive:  {},
			trial.ArmPlacebo: {},
		},
	}
	if res.IsEmpty() {
		return view
	}

	for _, rec := range records {
		if rec.VisitName != res.FinalVisit || !rec.TreatmentArm.IsComparison() {
			continue
		}
		sbp, okS := rec.Value(trial.FieldSystolicBP)
		dbp, okD := rec.Value(trial.FieldDiastolicBP)
		if !okS || !okD {
			continue
		}
		view.Points[rec.TreatmentArm] = append(view.Points[rec.TreatmentArm], views.ScatterPoint{
			SubjectID: rec.SubjectID,
			SBP:       sbp,
			DBP:       dbp,
		})
	}
	return view
}

// BuildTrajectories tabulates the first maxSubjects distinct subjects
// (input encounter order) against every resolved visit. Missing
// visit/subject combinations are simply absent from the row.
func BuildTrajectories(records []trial.VitalsRecord, field trial.VitalsField, maxSubjects int) views.TrajectoryTable {
	if maxSubjects <= 0 {
		maxSubjects = DefaultTrajectorySubjects
	}

	res := chrono.ResolveVisits(records)
	table := views.TrajectoryTable{
		Field:  field,
		Visits: res.OrderedVisits,
		Rows:   []views.TrajectoryRow{},
	}
	if res.IsEmpty() {
		return table
	}

	rowIndex := make(map[string]int)
	for _, rec := range records {
		idx, seen := rowIndex[rec.SubjectID]
		if !seen {
			if len(table.Rows) >= maxSubjects {
				continue
			}
			idx = len(table.Rows)
			rowIndex[rec.SubjectID] = idx
			table.Rows = append(table.Rows, views.TrajectoryRow{
				SubjectID: rec.SubjectID,
				Arm:       rec.TreatmentArm,
				Values:    map[string]float64{},
			})
		}
		if v, ok := rec.Value(field); ok {
			table.Rows[idx].Values[rec.VisitName] = v
		}
	}
	return table
}

// BuildDistributionComparison overlays the real distribution of a field
// against a synthetic one. Observed values come from actual measurements across
// all visits; the synthetic side is seed-derived placeholder data generated
// from the upstream baseline for each record lacking a real measurement.
// The comparison flags itself as simulated whenever synthetic values were
// fabricated, and every panel rendering it must badge that state.
func BuildDistributionComparison(records []trial.VitalsRecord, field trial.VitalsField, base *trial.BaselineStats, effectShift float64) views.DistributionComparison {
	comparison := views.DistributionComparison{Field: field}

	observed := make([]float64, 0, len(records))
	syntheticSeeds := make([]trial.VitalsRecord, 0)
	for _, rec := range records {
		if v, ok := rec.Value(field); ok {
			observed = append(observed, v)
		} else {
			syntheticSeeds = append(syntheticSeeds, rec)
		}
	}

	synthetic := make([]float64, 0, len(syntheticSeeds))
	if base != nil {
		for _, rec := range syntheticSeeds {
			synthetic = append(synthetic, synth.SimulateArmValue(rec.SubjectID, field, *base, rec.TreatmentArm, effectShift))
		}
	}

	comparison.RealN = len(observed)
	comparison.SynthN = len(synthetic)
	comparison.Simulated = len(synthetic) > 0
	if comparison.Simulated {
		comparison.Warning = trial.WarningSimulatedFill
	}
	if len(observed) == 0 && len(synthetic) == 0 {
		comparison.Bins = []trial.AlignedBin{}
		comparison.Warning = trial.WarningNoData
		return comparison
	}

	comparison.Bins = histogram.Align(
		histogram.Bin(observed, histogram.DefaultBinCount),
		histogram.Bin(synthetic, histogram.DefaultBinCount),
	)
	return comparison
}
