package aggregate

import (
	"math"
	"slices"
)

// round1 rounds to one decimal using round-half-even, so repeated
// aggregation never drifts in one direction.
func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile computes the p-th percentile with linear interpolation
// between the two nearest ranks. The input is not mutated, and the result
// is invariant under permutation of values.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// rate returns part/total as a percentage rounded to one decimal, and 0
// for an empty population.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}
