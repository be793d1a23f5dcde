// Package reference provides the golden model the cycle-accurate filter is
// checked against: the plain discrete convolution of a burst with the taps.
package reference

import (
	"math"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f64"
)

// float64 represents every integer up to 2^53 exactly.
const exactFloatBits = 53

// Convolve returns y[k] = sum_i taps[i]*samples[k-i] for k in
// [0, len(samples)), treating samples before the burst as zero.
//
// When every partial sum is exactly representable in float64 the work is
// done by the SIMD valid-convolution kernel, otherwise by integer loops.
func Convolve(samples, taps []int64) []int64 {
	if len(samples) == 0 || len(taps) == 0 {
		return []int64{}
	}
	if exactInFloat(samples, taps) {
		return convolveSIMD(samples, taps)
	}
	return convolveDirect(samples, taps)
}

// convolveSIMD prepends len(taps)-1 zeros so the valid convolution yields
// one output per sample. The kernel is reversed because the SIMD kernel
// computes dst[i] = sum_j signal[i+j]*kernel[j].
func convolveSIMD(samples, taps []int64) []int64 {
	pad := len(taps) - 1
	signal := make([]float64, pad+len(samples))
	for i, s := range samples {
		signal[pad+i] = float64(s)
	}

	kernel := make([]float64, len(taps))
	for i, c := range taps {
		kernel[len(taps)-1-i] = float64(c)
	}

	dst := make([]float64, len(samples))
	f64.ConvolveValid(dst, signal, kernel)

	out := make([]int64, len(dst))
	for i, v := range dst {
		out[i] = int64(math.Round(v))
	}
	return out
}

func convolveDirect(samples, taps []int64) []int64 {
	out := make([]int64, len(samples))
	for k := range samples {
		var acc int64
		for i, c := range taps {
			if k-i < 0 {
				break
			}
			acc += c * samples[k-i]
		}
		out[k] = acc
	}
	return out
}

func exactInFloat(samples, taps []int64) bool {
	var peak uint64
	for _, s := range samples {
		a := uint64(s)
		if s < 0 {
			a = uint64(-s)
		}
		peak = max(peak, a)
	}
	sum, ok := fixedpoint.AbsSum(taps)
	if !ok {
		return false
	}
	if peak == 0 || sum == 0 {
		return true
	}
	return fixedpoint.BitsFor(peak)+fixedpoint.BitsFor(sum) <= exactFloatBits
}

// Wrapped returns Convolve with every output wrapped to width bits, which
// models an accumulator without enough guard bits.
func Wrapped(samples, taps []int64, width uint) []int64 {
	out := convolveDirect(samples, taps)
	for i, v := range out {
		out[i] = fixedpoint.Wrap(v, width)
	}
	return out
}

// SIMDInfo describes the CPU features the SIMD kernel dispatches on.
func SIMDInfo() string {
	return cpu.Info()
}
