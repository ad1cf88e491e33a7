// Package power holds the closed-form two-sample sample-size and effect-size
// arithmetic behind the trial-planning panel. This is the single
// authoritative home for that math: the historical implementation carried
// the same formula in two separately maintained screens, which this package
// deliberately consolidates.
package power

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"trialdash/domain/trial"
)

// Historical critical-value table. The platform's published outputs were
// produced with these constants, so the listed alpha/power pairs must keep
// matching them bit-for-bit. Anything off-table goes through the exact
// inverse normal CDF instead.
const (
	zTwoSided05  = 1.96
	zTwoSided01  = 2.576
	zOneSided05  = 1.645
	zOneSided025 = 1.96

	zPower80 = 0.842
	zPower90 = 1.282
)

// zAlpha returns the critical value for the significance level.
func zAlpha(alpha float64, sidedness trial.TestSidedness) float64 {
	if sidedness == trial.OneSided {
		switch alpha {
		case 0.05:
			return zOneSided05
		case 0.025:
			return zOneSided025
		}
		if alpha > 0 && alpha < 1 {
			return distuv.UnitNormal.Quantile(1 - alpha)
		}
		return zOneSided05
	}

	switch alpha {
	case 0.05:
		return zTwoSided05
	case 0.01:
		return zTwoSided01
	}
	if alpha > 0 && alpha < 1 {
		return distuv.UnitNormal.Quantile(1 - alpha/2)
	}
	return zTwoSided05
}

// zBeta returns the critical value for the desired power.
func zBeta(power float64) float64 {
	switch power {
	case 0.80:
		return zPower80
	case 0.90:
		return zPower90
	}
	if power > 0 && power < 1 {
		return distuv.UnitNormal.Quantile(power)
	}
	return zPower80
}

// RequiredSampleSize computes per-arm and total sample sizes for a
// two-sample mean-difference test.
//
// Base formula (equal allocation): nPerArm = 2 (Zα+Zβ)² σ² / δ².
// An allocation ratio r (active:control) distributes the total unevenly:
// nControl = (1 + 1/r)(Zα+Zβ)² σ² / δ², nActive = r · nControl.
// Dropout inflates each arm and the total independently by ceil(n/(1-d)).
func RequiredSampleSize(in trial.SampleSizeInputs) (trial.SampleSizeResult, error) {
	if err := in.Validate(); err != nil {
		return trial.SampleSizeResult{}, err
	}

	za := zAlpha(in.Alpha, in.TestType)
	zb := zBeta(in.Power)

	delta := in.MeanDiff
	sigma := in.PooledSD
	ratio := in.AllocationRatio

	core := (za + zb) * (za + zb) * sigma * sigma / (delta * delta)
	nControl := (1 + 1/ratio) * core
	nActive := ratio * nControl

	result := trial.SampleSizeResult{
		NPerArmActive:  int(math.Ceil(nActive)),
		NPerArmControl: int(math.Ceil(nControl)),
	}
	result.TotalBeforeDropout = result.NPerArmActive + result.NPerArmControl

	if in.DropoutRate > 0 {
		result.NPerArmActive = inflate(result.NPerArmActive, in.DropoutRate)
		result.NPerArmControl = inflate(result.NPerArmControl, in.DropoutRate)
		result.TotalAfterDropout = inflate(result.TotalBeforeDropout, in.DropoutRate)
	} else {
		result.TotalAfterDropout = result.TotalBeforeDropout
	}

	result.EffectSize = CohenD(in.MeanDiff, in.PooledSD)
	result.EffectLabel = EffectLabel(result.EffectSize)

	return result, nil
}

// inflate applies dropout inflation to a recruited count.
func inflate(n int, dropoutRate float64) int {
	return int(math.Ceil(float64(n) / (1 - dropoutRate)))
}

// AchievedPower computes the power a given per-arm n yields for the same
// design, via the closed-form normal approximation:
// power = Φ(δ / (σ·sqrt(2/n)) − Zα).
func AchievedPower(in trial.SampleSizeInputs, nPerArm int) float64 {
	if nPerArm <= 0 || in.PooledSD <= 0 {
		return 0
	}

	za := zAlpha(in.Alpha, in.TestType)
	ncp := math.Abs(in.MeanDiff) / (in.PooledSD * math.Sqrt(2/float64(nPerArm)))
	return distuv.UnitNormal.CDF(ncp - za)
}

// CohenD computes the standardized effect size |δ| / σ.
func CohenD(meanDiff, pooledSD float64) float64 {
	if pooledSD == 0 {
		return 0
	}
	return math.Abs(meanDiff) / pooledSD
}

// EffectLabel buckets Cohen's d into the conventional categories.
func EffectLabel(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	default:
		return "large"
	}
}
