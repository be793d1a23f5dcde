// Package testutil provides reusable test helpers for the filter packages.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
)

// AssertSymmetric verifies that s[i] == s[n-1-i] within tolerance.
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / 2 {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric at i=%d: s[%d]=%f != s[%d]=%f", i, i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that every element is finite.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return assert.Fail(t, "non-finite value", "s[%d] = %f", i, v)
		}
	}
	return true
}

// AssertFitsWidth verifies that every sample is a signed width-bit value.
func AssertFitsWidth(t *testing.T, samples []int64, width uint) bool {
	t.Helper()
	for i, v := range samples {
		if !fixedpoint.Fits(v, width) {
			return assert.Fail(t, "sample out of range",
				"samples[%d]=%d does not fit %d bits", i, v, width)
		}
	}
	return true
}

// Ramp returns n samples counting up from the width's minimum and wrapping.
func Ramp(n int, width uint) []int64 {
	out := make([]int64, n)
	lo := fixedpoint.MinValue(width)
	for i := range out {
		out[i] = fixedpoint.Wrap(lo+int64(i), width)
	}
	return out
}

// RandomSamples returns n uniformly distributed width-bit samples.
func RandomSamples(rng *rand.Rand, n int, width uint) []int64 {
	lo, hi := fixedpoint.MinValue(width), fixedpoint.MaxValue(width)
	out := make([]int64, n)
	for i := range out {
		out[i] = lo + rng.Int64N(hi-lo+1)
	}
	return out
}

// RandomBursts returns count bursts of 1..maxLen random width-bit samples.
func RandomBursts(rng *rand.Rand, count, maxLen int, width uint) [][]int64 {
	bursts := make([][]int64, count)
	for i := range bursts {
		bursts[i] = RandomSamples(rng, 1+rng.IntN(maxLen), width)
	}
	return bursts
}
