package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound1_HalfEven(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.25, 0.2},
		{0.75, 0.8},
		{1.25, 1.2},
		{1.75, 1.8},
		{12.34, 12.3},
		{-0.25, -0.2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round1(tt.in), "round1(%v)", tt.in)
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 20.0, mean([]float64{10, 20, 30}))
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	// Rank 0.9*(10-1) = 8.1 interpolates between 90 and 100.
	assert.InDelta(t, 91.0, percentile(values, 90), 0.0001)
	assert.InDelta(t, 55.0, percentile(values, 50), 0.0001)
	assert.Equal(t, 100.0, percentile(values, 100))
	assert.Equal(t, 10.0, percentile(values, 0))
}

func TestPercentile_Edges(t *testing.T) {
	assert.Equal(t, 0.0, percentile(nil, 90))
	assert.Equal(t, 42.0, percentile([]float64{42}, 90))
}

func TestPercentile_PermutationInvariant(t *testing.T) {
	values := []float64{33, 7, 120, 45, 45, 98, 2, 61, 15, 77, 50}
	want := percentile(values, 90)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]float64(nil), values...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, percentile(shuffled, 90))
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{9, 1, 5}
	percentile(values, 50)
	assert.Equal(t, []float64{9, 1, 5}, values)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 10.0, rate(12, 120))
	assert.Equal(t, 62.9, rate(168, 267))
	assert.Equal(t, 0.0, rate(5, 0))
	assert.Equal(t, 100.0, rate(7, 7))
}
