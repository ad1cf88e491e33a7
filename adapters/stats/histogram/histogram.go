// Package histogram converts raw numeric samples into fixed-count
// histograms and re-keys two histograms onto a shared bin axis so the
// dashboard can overlay real and synthetic distributions. Output order is
// deterministic: identical inputs always produce identical bin sequences.
package histogram

import (
	"math"
	"sort"

	"trialdash/domain/trial"
)

// DefaultBinCount matches the dashboard's histogram resolution.
const DefaultBinCount = 15

// Bin buckets values into binCount equal-width bins between the sample min
// and max. The maximum value is clamped into the last bin rather than
// overflowing into a phantom extra one. Bin centers are rounded to one
// decimal: that keeps chart labels stable and doubles as the join key for
// Align. An empty sample yields nil, not an error.
func Bin(values []float64, binCount int) []trial.HistogramBin {
	if len(values) == 0 {
		return nil
	}
	if binCount <= 0 {
		binCount = DefaultBinCount
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// Degenerate sample: every value identical. One bin holds everything.
	if max == min {
		return []trial.HistogramBin{{Bin: roundCenter(min), Count: len(values)}}
	}

	width := (max - min) / float64(binCount)
	counts := make([]int, binCount)
	for _, v := range values {
		idx := int(math.Floor((v - min) / width))
		if idx >= binCount {
			idx = binCount - 1
		}
		counts[idx]++
	}

	bins := make([]trial.HistogramBin, binCount)
	for i, count := range counts {
		center := min + float64(i)*width + width/2
		bins[i] = trial.HistogramBin{Bin: roundCenter(center), Count: count}
	}
	return bins
}

// roundCenter rounds a bin center to one decimal.
func roundCenter(v float64) float64 {
	return math.Round(v*10) / 10
}

// Align re-keys two histograms onto the union of their bin centers, sorted
// ascending. Centers from the two inputs are matched within BinTolerance to
// absorb floating-point misalignment; a union key absent from one side gets
// count zero there.
func Align(a, b []trial.HistogramBin) []trial.AlignedBin {
	centers := make([]float64, 0, len(a)+len(b))
	for _, bin := range a {
		centers = appendCenter(centers, bin.Bin)
	}
	for _, bin := range b {
		centers = appendCenter(centers, bin.Bin)
	}
	sort.Float64s(centers)

	aligned := make([]trial.AlignedBin, 0, len(centers))
	for _, center := range centers {
		aligned = append(aligned, trial.AlignedBin{
			Bin:    center,
			CountA: lookupCount(a, center),
			CountB: lookupCount(b, center),
		})
	}
	return aligned
}

// appendCenter adds a center to the union set unless an existing entry
// already matches it within tolerance.
func appendCenter(centers []float64, center float64) []float64 {
	for _, existing := range centers {
		if math.Abs(existing-center) <= trial.BinTolerance {
			return centers
		}
	}
	return append(centers, center)
}

// lookupCount finds the count for a bin center within tolerance, or zero.
func lookupCount(bins []trial.HistogramBin, center float64) int {
	for _, bin := range bins {
		if math.Abs(bin.Bin-center) <= trial.BinTolerance {
			return bin.Count
		}
	}
	return 0
}
