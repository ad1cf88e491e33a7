package trial

import (
	"fmt"
	"math"

	"trialdash/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// Arm identifies the treatment group a subject was randomized into.
// Values other than Active/Placebo are tolerated and counted separately,
// but excluded from two-arm comparisons.
type Arm string

const (
	ArmActive  Arm = "Active"
	ArmPlacebo Arm = "Placebo"
)

// IsComparison reports whether the arm participates in two-arm comparisons.
func (a Arm) IsComparison() bool {
	return a == ArmActive || a == ArmPlacebo
}

// VitalsField names a numeric measurement carried by a VitalsRecord.
type VitalsField string

const (
	FieldSystolicBP  VitalsField = "systolic_bp"
	FieldDiastolicBP VitalsField = "diastolic_bp"
	FieldHeartRate   VitalsField = "heart_rate"
	FieldTemperature VitalsField = "temperature"
)

// Fields lists every numeric vitals field in display order.
func Fields() []VitalsField {
	return []VitalsField{FieldSystolicBP, FieldDiastolicBP, FieldHeartRate, FieldTemperature}
}

// ParseVitalsField maps a string onto a known field.
func ParseVitalsField(s string) (VitalsField, error) {
	switch VitalsField(s) {
	case FieldSystolicBP, FieldDiastolicBP, FieldHeartRate, FieldTemperature:
		return VitalsField(s), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidField, s)
}

// VitalsRecord is one measurement event for one subject at one visit.
// Records are immutable once received; every derived structure is recomputed
// from scratch when the input collection changes, never mutated in place.
type VitalsRecord struct {
	SubjectID    string   `json:"subject_id"`
	TreatmentArm Arm      `json:"treatment_arm"`
	VisitName    string   `json:"visit_name"`
	SystolicBP   *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP  *float64 `json:"diastolic_bp,omitempty"`
	HeartRate    *float64 `json:"heart_rate,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// Value extracts the named field, reporting whether a usable numeric value
// is present. NaN and Inf are treated as missing.
func (r VitalsRecord) Value(field VitalsField) (float64, bool) {
	var p *float64
	switch field {
	case FieldSystolicBP:
		p = r.SystolicBP
	case FieldDiastolicBP:
		p = r.DiastolicBP
	case FieldHeartRate:
		p = r.HeartRate
	case FieldTemperature:
		p = r.Temperature
	}
	if p == nil {
		return 0, false
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// BaselineStats carries upstream-computed baseline mean/std for one field.
// The synthetic simulator uses these when no real measurement exists.
type BaselineStats struct {
	Field VitalsField `json:"field"`
	Mean  float64     `json:"mean"`
	Std   float64     `json:"std"`
}

// ============================================================================
// WARNING CODES
// ============================================================================

// WarningCode represents structured warning types surfaced alongside results.
// Warnings are recoverable conditions, never hard failures: the dashboard
// must stay renderable on partial data.
type WarningCode string

const (
	WarningNoRecords     WarningCode = "NO_RECORDS"      // Empty input collection
	WarningNoCommonVisit WarningCode = "NO_COMMON_VISIT" // No visit has both arms; fallback applied
	WarningNoData        WarningCode = "NO_DATA"         // A group summary has n=0
	WarningSimulatedFill WarningCode = "SIMULATED_FILL"  // Values are placeholder synthetics, not measurements
	WarningNonStudyArm   WarningCode = "NON_STUDY_ARM"   // Records outside Active/Placebo present
)

// ============================================================================
// VISIT CHRONOLOGY
// ============================================================================

// VisitResolution is the output of visit chronology resolution.
type VisitResolution struct {
	OrderedVisits []string    `json:"ordered_visits"`
	FinalVisit    string      `json:"final_visit"`
	Warning       WarningCode `json:"warning,omitempty"`
}

// IsEmpty reports the zero-record case; callers must surface this as a
// user-visible "cannot proceed" condition rather than a thrown fault.
func (v VisitResolution) IsEmpty() bool {
	return len(v.OrderedVisits) == 0 && v.FinalVisit == ""
}

// ============================================================================
// AGGREGATES
// ============================================================================

// GroupSummary holds per-(arm, visit) descriptive statistics for one field.
// Computed fresh on each aggregation call; never persisted.
//
// INVARIANTS:
// - N == 0 implies Mean == Std == SE == 0 (never NaN)
// - Std is population standard deviation (/n) everywhere in this codebase
type GroupSummary struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	SE   float64 `json:"se"`
}

// HasData reports whether the summary describes any observations.
// A zero-n summary means "no data", not a computed zero.
func (g GroupSummary) HasData() bool {
	return g.N > 0
}

// ArmSummaries pairs the two comparison arms for one (visit, field) cell.
type ArmSummaries struct {
	Active  GroupSummary `json:"active"`
	Placebo GroupSummary `json:"placebo"`
}

// ============================================================================
// DISTRIBUTIONS
// ============================================================================

// HistogramBin is one bar of a fixed-count histogram. Bin is the bin center,
// rounded to one decimal, which doubles as the join key during alignment.
type HistogramBin struct {
	Bin   float64 `json:"bin"`
	Count int     `json:"count"`
}

// AlignedBin is one row of two histograms re-keyed onto a shared bin axis.
type AlignedBin struct {
	Bin    float64 `json:"bin"`
	CountA int     `json:"count_a"`
	CountB int     `json:"count_b"`
}

// BinTolerance is the absolute bin-center match tolerance used during
// alignment; it absorbs floating-point drift between independently
// binned distributions.
const BinTolerance = 0.1
