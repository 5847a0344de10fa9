package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsHelpers(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 40.0, sum(vals))
	assert.Equal(t, 5.0, mean(vals))
	assert.InDelta(t, math.Sqrt(32.0/7), sampleStd(vals), 1e-12)

	assert.True(t, math.IsNaN(mean(nil)))
	assert.Equal(t, 0.0, sum(nil))
	assert.True(t, math.IsNaN(sampleStd([]float64{1})))

	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-12)
	assert.Equal(t, 4.0, quantile(sorted, 1))
}

func TestPearsonSkipsMissingPairs(t *testing.T) {
	x := NewNumeric("x", []float64{1, 2, 3, 4, math.NaN()}, nil)
	y := NewNumeric("y", []float64{2, 4, 6, 8, 100}, nil)
	assert.InDelta(t, 1.0, pearson(x, y), 1e-12)

	neg := NewNumeric("neg", []float64{4, 3, 2, 1, 0}, nil)
	assert.InDelta(t, -1.0, pearson(x, neg), 1e-12)

	flat := NewNumeric("flat", []float64{5, 5, 5, 5, 5}, nil)
	assert.True(t, math.IsNaN(pearson(x, flat)))

	short := NewNumeric("short", []float64{1, math.NaN(), math.NaN(), math.NaN(), math.NaN()}, nil)
	assert.True(t, math.IsNaN(pearson(x, short)))
}
