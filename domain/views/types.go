// Package views defines the chart-ready data structures each dashboard
// panel consumes. These are plain numbers and strings: the rendering layer
// owns everything visual, this package owns only the structural contract.
package views

import (
	"trialdash/domain/trial"
)

// TrendPoint is one visit on the arm-mean time series.
type TrendPoint struct {
	Visit   string  `json:"visit"`
	Mean    float64 `json:"mean"`
	SE      float64 `json:"se"`
	N       int     `json:"n"`
	HasData bool    `json:"has_data"`
}

// TrendSeries is one arm's trajectory of per-visit means for one field.
type TrendSeries struct {
	Arm    trial.Arm         `json:"arm"`
	Field  trial.VitalsField `json:"field"`
	Points []TrendPoint      `json:"points"`
}

// TrendView backs the visit-by-visit trend panel.
type TrendView struct {
	Field      trial.VitalsField `json:"field"`
	Visits     []string          `json:"visits"`
	Series     []TrendSeries     `json:"series"`
	FinalVisit string            `json:"final_visit"`
	Warning    trial.WarningCode `json:"warning,omitempty"`
}

// BoxPlotSummary is the five-number summary for one arm at the final visit.
// Quartiles come from sorted-index lookup, deliberately without
// interpolation, so identical inputs always produce identical boxes.
type BoxPlotSummary struct {
	Arm    trial.Arm `json:"arm"`
	N      int       `json:"n"`
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
}

// BoxPlotView backs the final-visit distribution panel.
type BoxPlotView struct {
	Field      trial.VitalsField `json:"field"`
	FinalVisit string            `json:"final_visit"`
	Boxes      []BoxPlotSummary  `json:"boxes"`
	Warning    trial.WarningCode `json:"warning,omitempty"`
}

// ScatterPoint pairs systolic and diastolic pressure for one subject.
type ScatterPoint struct {
	SubjectID string  `json:"subject_id"`
	SBP       float64 `json:"sbp"`
	DBP       float64 `json:"dbp"`
}

// ScatterView backs the SBP/DBP correlation panel at the final visit.
type ScatterView struct {
	FinalVisit string                       `json:"final_visit"`
	Points     map[trial.Arm][]ScatterPoint `json:"points"`
	Warning    trial.WarningCode            `json:"warning,omitempty"`
}

// TrajectoryRow is one subject's sparse visit-to-value mapping.
// Visits without a measurement are simply absent from Values.
type TrajectoryRow struct {
	SubjectID string             `json:"subject_id"`
	Arm       trial.Arm          `json:"arm"`
	Values    map[string]float64 `json:"values"`
}

// TrajectoryTable backs the per-subject trajectory panel: the first N
// distinct subjects (input encounter order) against all resolved visits.
type TrajectoryTable struct {
	Field  trial.VitalsField `json:"field"`
	Visits []string          `json:"visits"`
	Rows   []TrajectoryRow   `json:"rows"`
}

// DistributionComparison backs every "real vs synthetic" histogram panel.
// Bins holds the two distributions re-keyed onto the shared bin axis;
// Simulated flags that the synthetic side is placeholder display data.
type DistributionComparison struct {
	Field     trial.VitalsField  `json:"field"`
	Bins      []trial.AlignedBin `json:"bins"`
	RealN     int                `json:"real_n"`
	SynthN    int                `json:"synth_n"`
	Simulated bool               `json:"simulated"`
	Warning   trial.WarningCode  `json:"warning,omitempty"`
}
