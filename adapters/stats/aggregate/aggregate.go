// Package aggregate computes per-arm, per-visit descriptive statistics over
// numeric vitals. One convention applies everywhere: population standard
// deviation (/n). Zero-n groups report all-zero summaries, never NaN, and
// callers treat those as "no data" rather than a computed zero.
package aggregate

import (
	"math"

	"github.com/montanaflynn/stats"

	"trialdash/domain/trial"
)

// FieldValues collects the usable numeric values of one field for one arm
// at one visit. Null and non-numeric values are dropped.
func FieldValues(records []trial.VitalsRecord, visit string, arm trial.Arm, field trial.VitalsField) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.VisitName != visit || rec.TreatmentArm != arm {
			continue
		}
		if v, ok := rec.Value(field); ok {
			values = append(values, v)
		}
	}
	return values
}

// Summarize computes the GroupSummary for a value slice.
func Summarize(values []float64) trial.GroupSummary {
	n := len(values)
	if n == 0 {
		return trial.GroupSummary{}
	}

	mean, _ := stats.Mean(values)
	std, _ := stats.StandardDeviationPopulation(values)

	return trial.GroupSummary{
		N:    n,
		Mean: mean,
		Std:  std,
		SE:   std / math.Sqrt(float64(n)),
	}
}

// Aggregate partitions records at the given visit by comparison arm and
// summarizes the chosen field for each. Non-study arms are excluded.
func Aggregate(records []trial.VitalsRecord, visit string, field trial.VitalsField) trial.ArmSummaries {
	return trial.ArmSummaries{
		Active:  Summarize(FieldValues(records, visit, trial.ArmActive, field)),
		Placebo: Summarize(FieldValues(records, visit, trial.ArmPlacebo, field)),
	}
}
