// Package synth derives reproducible pseudo-random values from string seed
// keys. The dashboard uses these as placeholder display values when a
// subject has a baseline but no real measurement: seed-derived values stay
// stable across re-renders instead of flickering on every paint.
//
// Nothing here is cryptographically or scientifically meaningful. Synthetic
// values are cosmetic filler, clearly flagged as such in the views that
// carry them, and must never be confused with the platform's validated
// statistical outputs.
package synth

import (
	"fmt"
	"math"

	"trialdash/domain/trial"
)

// Simulate maps a seed key to a value in [0, 1). The same key always yields
// the bit-identical value within and across runs.
//
// The hash is a djb2-style polynomial string hash over 32-bit arithmetic,
// folded through sin(h)*10000 and truncated to its fractional part.
func Simulate(seedKey string) float64 {
	var h uint32 = 5381
	for _, c := range seedKey {
		h = h*33 + uint32(c)
	}

	folded := math.Sin(float64(int32(h))) * 10000
	frac := folded - math.Floor(folded)
	if frac >= 1 { // guard against rounding at the boundary
		frac = 0
	}
	return frac
}

// SimulateNormal draws a reproducible value from N(mean, std²) via the
// Box-Muller transform over two independent seed-derived uniforms.
func SimulateNormal(seedKey string, mean, std float64) float64 {
	u1 := Simulate(seedKey + "1")
	u2 := Simulate(seedKey + "2")

	// ln(0) is -Inf; nudge a zero uniform off the boundary.
	if u1 == 0 {
		u1 = math.SmallestNonzeroFloat64
	}

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + z*std
}

// SimulateArmValue draws a synthetic measurement for a subject and field,
// applying the treatment-effect shift when the record belongs to the
// active arm.
func SimulateArmValue(subjectID string, field trial.VitalsField, base trial.BaselineStats, arm trial.Arm, effectShift float64) float64 {
	seed := SeedKey(subjectID, field, base)
	value := SimulateNormal(seed, base.Mean, base.Std)
	if arm == trial.ArmActive {
		value += effectShift
	}
	return value
}

// SeedKey assembles the canonical seed for a subject/field/baseline
// combination. The baseline mean and std participate so that refreshed
// baselines produce refreshed (but again stable) synthetic values.
func SeedKey(subjectID string, field trial.VitalsField, base trial.BaselineStats) string {
	return fmt.Sprintf("%s|%s|%.4f|%.4f", subjectID, field, base.Mean, base.Std)
}
