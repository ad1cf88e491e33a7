package views

import (
	"reflect"
	"testing"

	"trialdash/domain/trial"
)

func ptr(v float64) *float64 { return &v }

func rec(subject, arm, visit string, sbp, dbp *float64) trial.VitalsRecord {
	return trial.VitalsRecord{
		SubjectID:    subject,
		TreatmentArm: trial.Arm(arm),
		VisitName:    visit,
		SystolicBP:   sbp,
		DiastolicBP:  dbp,
	}
}

func demoRecords() []trial.VitalsRecord {
	return []trial.VitalsRecord{
		rec("S1", "Active", "Screening", ptr(130), ptr(85)),
		rec("S2", "Placebo", "Screening", ptr(132), ptr(86)),
		rec("S1", "Active", "Week 4", ptr(124), ptr(82)),
		rec("S2", "Placebo", "Week 4", ptr(131), ptr(85)),
		rec("S3", "Active", "Week 4", ptr(120), ptr(80)),
		rec("S1", "Active", "Week 8", ptr(118), ptr(79)),
		rec("S2", "Placebo", "Week 8", ptr(130), ptr(84)),
	}
}

func TestBuildTrend_Shape(t *testing.T) {
	view := BuildTrend(demoRecords(), trial.FieldSystolicBP)

	wantVisits := []string{"Screening", "Week 4", "Week 8"}
	if !reflect.DeepEqual(view.Visits, wantVisits) {
		t.Fatalf("Visits = %v, want %v", view.Visits, wantVisits)
	}
	if view.FinalVisit != "Week 8" {
		t.Errorf("FinalVisit = %q, want Week 8", view.FinalVisit)
	}
	if len(view.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(view.Series))
	}
	for _, series := range view.Series {
		if len(series.Points) != len(wantVisits) {
			t.Errorf("%s series has %d points, want %d", series.Arm, len(series.Points), len(wantVisits))
		}
	}

	// Week 4 Active mean over {124, 120}.
	active := view.Series[0]
	if active.Arm != trial.ArmActive {
		t.Fatalf("first series arm = %q", active.Arm)
	}
	if active.Points[1].Mean != 122 || active.Points[1].N != 2 {
		t.Errorf("Week 4 Active point = %+v, want mean 122 n 2", active.Points[1])
	}
}

func TestBuildTrend_EmptyRecords(t *testing.T) {
	view := BuildTrend(nil, trial.FieldHeartRate)
	if len(view.Visits) != 0 || len(view.Series) != 0 {
		t.Errorf("empty input should produce empty view, got %+v", view)
	}
	if view.Warning != trial.WarningNoRecords {
		t.Errorf("Warning = %q, want %q", view.Warning, trial.WarningNoRecords)
	}
}

func TestBuildBoxPlot_QuartilesBySortedIndex(t *testing.T) {
	// Eight Active values at the only common visit; floor-index quartiles:
	// sorted {10,20,30,40,50,60,70,80}: Q1=idx2=30, median=idx4=50, Q3=idx6=70.
	records := []trial.VitalsRecord{}
	for i, v := range []float64{50, 10, 80, 30, 70, 20, 60, 40} {
		records = append(records, rec("A"+string(rune('1'+i)), "Active", "Week 2", ptr(v), nil))
	}
	records = append(records, rec("P1", "Placebo", "Week 2", ptr(100), nil))

	view := BuildBoxPlot(records, trial.FieldSystolicBP)

	if view.FinalVisit != "Week 2" {
		t.Fatalf("FinalVisit = %q", view.FinalVisit)
	}
	active := view.Boxes[0]
	if active.Min != 10 || active.Q1 != 30 || active.Median != 50 || active.Q3 != 70 || active.Max != 80 {
		t.Errorf("Active box = %+v, want 10/30/50/70/80", active)
	}
}

func TestBuildBoxPlot_EmptyArmFlagged(t *testing.T) {
	records := []trial.VitalsRecord{
		rec("S1", "Active", "Week 2", ptr(120), nil),
		rec("S2", "Placebo", "Week 2", nil, ptr(80)), // no systolic value
	}

	view := BuildBoxPlot(records, trial.FieldSystolicBP)
	if view.Boxes[1].N != 0 {
		t.Errorf("Placebo box = %+v, want empty", view.Boxes[1])
	}
	if view.Warning != trial.WarningNoData {
		t.Errorf("Warning = %q, want %q", view.Warning, trial.WarningNoData)
	}
}

func TestBuildTrend_NonStudyArmFlagged(t *testing.T) {
	records := append(demoRecords(), rec("X1", "Open Label", "Week 8", ptr(127), ptr(83)))

	view := BuildTrend(records, trial.FieldSystolicBP)
	if view.Warning != trial.WarningNonStudyArm {
		t.Errorf("Warning = %q, want %q", view.Warning, trial.WarningNonStudyArm)
	}
	// The extra arm stays out of both series.
	if len(view.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(view.Series))
	}
	for _, series := range view.Series {
		if series.Arm != trial.ArmActive && series.Arm != trial.ArmPlacebo {
			t.Errorf("unexpected series arm %q", series.Arm)
		}
	}
}

func TestBuildScatter_FinalVisitPairs(t *testing.T) {
	records := demoRecords()
	records = append(records, rec("S4", "Active", "Week 8", ptr(125), nil)) // missing DBP, dropped

	view := BuildScatter(records)

	if view.FinalVisit != "Week 8" {
		t.Fatalf("FinalVisit = %q", view.FinalVisit)
	}
	if len(view.Points[trial.ArmActive]) != 1 {
		t.Errorf("Active points = %v, want the single complete S1 pair", view.Points[trial.ArmActive])
	}
	got := view.Points[trial.ArmActive][0]
	if got.SubjectID != "S1" || got.SBP != 118 || got.DBP != 79 {
		t.Errorf("Active point = %+v", got)
	}
	if len(view.Points[trial.ArmPlacebo]) != 1 {
		t.Errorf("Placebo points = %v", view.Points[trial.ArmPlacebo])
	}
}

func TestBuildTrajectories_FirstNSubjectsSparse(t *testing.T) {
	records := demoRecords()
	table := BuildTrajectories(records, trial.FieldSystolicBP, 2)

	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want capped at 2", len(table.Rows))
	}
	if table.Rows[0].SubjectID != "S1" || table.Rows[1].SubjectID != "S2" {
		t.Errorf("row order = %s, %s; want encounter order S1, S2", table.Rows[0].SubjectID, table.Rows[1].SubjectID)
	}

	// S3 only appears at Week 4 and is beyond the cap.
	for _, row := range table.Rows {
		if row.SubjectID == "S3" {
			t.Error("S3 must be excluded by the subject cap")
		}
	}

	// Sparse: a visit without a measurement is absent from the row map.
	if _, present := table.Rows[0].Values["Week 12"]; present {
		t.Error("unexpected phantom visit entry")
	}
	if table.Rows[0].Values["Week 8"] != 118 {
		t.Errorf("S1 Week 8 = %v, want 118", table.Rows[0].Values["Week 8"])
	}
}

func TestBuildDistributionComparison_SimulatedFill(t *testing.T) {
	base := &trial.BaselineStats{Field: trial.FieldSystolicBP, Mean: 128, Std: 10}
	records := []trial.VitalsRecord{
		rec("S1", "Active", "Week 4", ptr(120), nil),
		rec("S2", "Placebo", "Week 4", ptr(130), nil),
		rec("S3", "Active", "Week 4", nil, nil), // simulated
		rec("S4", "Placebo", "Week 4", nil, nil), // simulated
	}

	view := BuildDistributionComparison(records, trial.FieldSystolicBP, base, -5)

	if view.RealN != 2 || view.SynthN != 2 {
		t.Errorf("counts = %d real / %d synth, want 2/2", view.RealN, view.SynthN)
	}
	if !view.Simulated || view.Warning != trial.WarningSimulatedFill {
		t.Error("comparison with fabricated values must be flagged as simulated")
	}
	if len(view.Bins) == 0 {
		t.Error("expected aligned bins")
	}

	// Bin counts must preserve the sample sizes.
	sumA, sumB := 0, 0
	for _, b := range view.Bins {
		sumA += b.CountA
		sumB += b.CountB
	}
	if sumA != view.RealN || sumB != view.SynthN {
		t.Errorf("aligned counts %d/%d, want %d/%d", sumA, sumB, view.RealN, view.SynthN)
	}
}

func TestBuildDistributionComparison_NoBaselineNoData(t *testing.T) {
	records := []trial.VitalsRecord{
		rec("S1", "Active", "Week 4", nil, nil),
	}

	view := BuildDistributionComparison(records, trial.FieldSystolicBP, nil, 0)
	if view.Warning != trial.WarningNoData {
		t.Errorf("Warning = %q, want %q", view.Warning, trial.WarningNoData)
	}
	if len(view.Bins) != 0 {
		t.Errorf("Bins = %v, want empty", view.Bins)
	}
}

func TestBuildersIdempotent(t *testing.T) {
	records := demoRecords()
	base := &trial.BaselineStats{Field: trial.FieldSystolicBP, Mean: 128, Std: 10}

	if !reflect.DeepEqual(BuildTrend(records, trial.FieldSystolicBP), BuildTrend(records, trial.FieldSystolicBP)) {
		t.Error("BuildTrend not idempotent")
	}
	if !reflect.DeepEqual(BuildBoxPlot(records, trial.FieldSystolicBP), BuildBoxPlot(records, trial.FieldSystolicBP)) {
		t.Error("BuildBoxPlot not idempotent")
	}
	if !reflect.DeepEqual(BuildScatter(records), BuildScatter(records)) {
		t.Error("BuildScatter not idempotent")
	}
	if !reflect.DeepEqual(BuildTrajectories(records, trial.FieldSystolicBP, 5), BuildTrajectories(records, trial.FieldSystolicBP, 5)) {
		t.Error("BuildTrajectories not idempotent")
	}
	if !reflect.DeepEqual(
		BuildDistributionComparison(records, trial.FieldSystolicBP, base, -5),
		BuildDistributionComparison(records, trial.FieldSystolicBP, base, -5),
	) {
		t.Error("BuildDistributionComparison not idempotent")
	}
}
