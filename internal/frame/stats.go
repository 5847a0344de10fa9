package frame

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func sum(vals []float64) float64 { return floats.Sum(vals) }

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// sampleStd is the n-1 standard deviation; fewer than two values yield NaN.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// quantile interpolates linearly between the two nearest ranks of a sorted slice (pandas' default).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson correlates the pairs where both sides are present.
func pearson(a, b *Series) float64 {
	xs := make([]float64, 0, a.Len())
	ys := make([]float64, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		if a.valid[i] && b.valid[i] {
			xs = append(xs, a.nums[i])
			ys = append(ys, b.nums[i])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return r
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// RoundFloat rounds v half away from zero to the given number of decimals.
func RoundFloat(v float64, digits int) float64 { return roundTo(v, digits) }

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) > 12 {
		s = strconv.FormatFloat(v, 'g', 8, 64)
	}
	return s
}
