package power

import (
	"math"
	"testing"

	"trialdash/domain/trial"
)

func baseInputs() trial.SampleSizeInputs {
	return trial.SampleSizeInputs{
		Alpha:           0.05,
		Power:           0.80,
		MeanDiff:        10,
		PooledSD:        15,
		AllocationRatio: 1,
		TestType:        trial.TwoSided,
		DropoutRate:     0,
	}
}

func TestRequiredSampleSize_HistoricalRegressionCase(t *testing.T) {
	// nPerArm = ceil(2 * (1.96+0.842)^2 * 15^2 / 10^2)
	want := int(math.Ceil(2 * (1.96 + 0.842) * (1.96 + 0.842) * 15 * 15 / (10 * 10)))

	result, err := RequiredSampleSize(baseInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.NPerArmActive != want || result.NPerArmControl != want {
		t.Errorf("per-arm = %d/%d, want %d/%d", result.NPerArmActive, result.NPerArmControl, want, want)
	}
	if result.TotalBeforeDropout != 2*want {
		t.Errorf("total before dropout = %d, want %d", result.TotalBeforeDropout, 2*want)
	}
	if result.TotalAfterDropout != 2*want {
		t.Errorf("total after dropout = %d, want %d with zero dropout", result.TotalAfterDropout, 2*want)
	}
}

func TestRequiredSampleSize_TableFidelity(t *testing.T) {
	cases := []struct {
		name  string
		alpha float64
		power float64
		side  trial.TestSidedness
		wantZ float64 // Zα + Zβ
	}{
		{"two-sided 0.05 / 0.80", 0.05, 0.80, trial.TwoSided, 1.96 + 0.842},
		{"two-sided 0.01 / 0.80", 0.01, 0.80, trial.TwoSided, 2.576 + 0.842},
		{"two-sided 0.05 / 0.90", 0.05, 0.90, trial.TwoSided, 1.96 + 1.282},
		{"one-sided 0.05 / 0.80", 0.05, 0.80, trial.OneSided, 1.645 + 0.842},
		{"one-sided 0.025 / 0.90", 0.025, 0.90, trial.OneSided, 1.96 + 1.282},
	}

	for _, c := range cases {
		in := baseInputs()
		in.Alpha = c.alpha
		in.Power = c.power
		in.TestType = c.side

		result, err := RequiredSampleSize(in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}

		want := int(math.Ceil(2 * c.wantZ * c.wantZ * 15 * 15 / 100))
		if result.NPerArmActive != want {
			t.Errorf("%s: nPerArm = %d, want %d (table constants)", c.name, result.NPerArmActive, want)
		}
	}
}

func TestRequiredSampleSize_MonotoneInMeanDiff(t *testing.T) {
	prev := math.MaxInt
	for _, diff := range []float64{4, 6, 8, 10, 14, 20} {
		in := baseInputs()
		in.MeanDiff = diff
		result, err := RequiredSampleSize(in)
		if err != nil {
			t.Fatalf("meanDiff %v: %v", diff, err)
		}
		if result.NPerArmActive >= prev {
			t.Errorf("nPerArm %d at meanDiff %v not strictly below %d", result.NPerArmActive, diff, prev)
		}
		prev = result.NPerArmActive
	}
}

func TestRequiredSampleSize_MonotoneInPooledSD(t *testing.T) {
	prev := 0
	for _, sd := range []float64{5, 10, 15, 25, 40} {
		in := baseInputs()
		in.PooledSD = sd
		result, err := RequiredSampleSize(in)
		if err != nil {
			t.Fatalf("pooledSD %v: %v", sd, err)
		}
		if result.NPerArmActive <= prev {
			t.Errorf("nPerArm %d at pooledSD %v not strictly above %d", result.NPerArmActive, sd, prev)
		}
		prev = result.NPerArmActive
	}
}

func TestRequiredSampleSize_AllocationRatio(t *testing.T) {
	in := baseInputs()
	in.AllocationRatio = 2 // two active per control

	result, err := RequiredSampleSize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// nControl = (1 + 1/2) * (2.802)^2 * 225/100 = 26.5; nActive doubles it.
	if result.NPerArmActive <= result.NPerArmControl {
		t.Errorf("active %d should exceed control %d at ratio 2", result.NPerArmActive, result.NPerArmControl)
	}
	ratio := float64(result.NPerArmActive) / float64(result.NPerArmControl)
	if math.Abs(ratio-2) > 0.05 {
		t.Errorf("arm ratio %f, want ~2", ratio)
	}
}

func TestRequiredSampleSize_DropoutInflation(t *testing.T) {
	in := baseInputs()
	in.DropoutRate = 0.2

	result, err := RequiredSampleSize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Base per-arm is ceil(35.33) = 36: ceil(36 / 0.8) = 45 per arm,
	// ceil(72 / 0.8) = 90 total, inflated independently.
	if result.NPerArmActive != 45 || result.NPerArmControl != 45 {
		t.Errorf("per-arm after dropout = %d/%d, want 45/45", result.NPerArmActive, result.NPerArmControl)
	}
	if result.TotalBeforeDropout != 72 {
		t.Errorf("total before dropout = %d, want 72", result.TotalBeforeDropout)
	}
	if result.TotalAfterDropout != 90 {
		t.Errorf("total after dropout = %d, want 90 (inflated independently)", result.TotalAfterDropout)
	}
}

func TestRequiredSampleSize_InvalidInputs(t *testing.T) {
	bad := []func(*trial.SampleSizeInputs){
		func(in *trial.SampleSizeInputs) { in.MeanDiff = 0 },
		func(in *trial.SampleSizeInputs) { in.PooledSD = 0 },
		func(in *trial.SampleSizeInputs) { in.Alpha = 0 },
		func(in *trial.SampleSizeInputs) { in.Power = 1 },
		func(in *trial.SampleSizeInputs) { in.AllocationRatio = 0 },
		func(in *trial.SampleSizeInputs) { in.DropoutRate = 1 },
	}

	for i, mutate := range bad {
		in := baseInputs()
		mutate(&in)
		if _, err := RequiredSampleSize(in); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestAchievedPower_RecoversTargetPower(t *testing.T) {
	// The n the calculator demands should achieve roughly the power the
	// design asked for.
	in := baseInputs()
	result, err := RequiredSampleSize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := AchievedPower(in, result.NPerArmActive)
	if got < 0.78 || got > 0.90 {
		t.Errorf("achieved power %f at n=%d, want near 0.80", got, result.NPerArmActive)
	}
}

func TestCohenD_Labels(t *testing.T) {
	cases := []struct {
		diff, sd float64
		want     string
	}{
		{1, 15, "negligible"},
		{5, 15, "small"},
		{10, 15, "medium"},
		{15, 15, "large"},
		{-15, 15, "large"}, // sign ignored
	}

	for _, c := range cases {
		d := CohenD(c.diff, c.sd)
		if got := EffectLabel(d); got != c.want {
			t.Errorf("EffectLabel(CohenD(%v, %v)) = %q, want %q", c.diff, c.sd, got, c.want)
		}
	}
}
