package design

import (
	"fmt"
	"math"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
	"gonum.org/v1/gonum/floats"
)

// Quantized is a tap set scaled to integers.
type Quantized struct {
	Taps []int64

	// Scale is the factor applied before rounding: Taps[i] ≈ coeffs[i]*Scale.
	Scale float64
}

// Quantize scales coeffs so the largest magnitude maps to the largest
// positive width-bit value and rounds to the nearest integer.
func Quantize(coeffs []float64, width uint) (Quantized, error) {
	if len(coeffs) == 0 {
		return Quantized{}, fmt.Errorf("%w: no coefficients", ErrInvalidParams)
	}
	if width < 2 || width > fixedpoint.MaxWidth {
		return Quantized{}, fmt.Errorf("%w: coefficient width %d outside [2, %d]",
			ErrInvalidParams, width, fixedpoint.MaxWidth)
	}

	peak := max(math.Abs(floats.Max(coeffs)), math.Abs(floats.Min(coeffs)))
	if peak < zeroThreshold || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return Quantized{}, fmt.Errorf("%w: coefficients have no usable peak", ErrInvalidParams)
	}

	scale := float64(fixedpoint.MaxValue(width)) / peak
	taps := make([]int64, len(coeffs))
	for i, c := range coeffs {
		v := int64(math.Round(c * scale))
		taps[i] = min(max(v, fixedpoint.MinValue(width)), fixedpoint.MaxValue(width))
	}
	return Quantized{Taps: taps, Scale: scale}, nil
}

// DCGain returns the quantised taps' DC gain relative to the float design.
func (q Quantized) DCGain() float64 {
	var sum int64
	for _, c := range q.Taps {
		sum += c
	}
	return float64(sum) / q.Scale
}
