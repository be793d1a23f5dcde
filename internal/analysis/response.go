// Package analysis characterises an integer tap set: its frequency response,
// gains and the accumulator guard bits it needs.
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
)

const (
	// DefaultPoints is the number of response bins used when none is given.
	DefaultPoints = 257

	minMagnitude = 1e-12
	dbPerDecade  = 20.0
)

// Response is a tap set's frequency response from DC to Nyquist.
type Response struct {
	// Frequencies are normalised to the sample rate, in [0, 0.5].
	Frequencies []float64

	// Magnitude is the linear gain at each frequency.
	Magnitude []float64

	// Phase is in radians.
	Phase []float64
}

// FrequencyResponse evaluates the taps with a zero-padded real FFT. The
// transform size is the smallest power of two covering both the requested
// resolution and the tap count, so the bin count may exceed points.
func FrequencyResponse(taps []int64, points int) Response {
	if points < 2 {
		points = DefaultPoints
	}
	n := 1
	for n < 2*(points-1) || n < len(taps) {
		n <<= 1
	}

	seq := make([]float64, n)
	for i, c := range taps {
		seq[i] = float64(c)
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, seq)

	r := Response{
		Frequencies: make([]float64, len(coeffs)),
		Magnitude:   make([]float64, len(coeffs)),
		Phase:       make([]float64, len(coeffs)),
	}
	for k, c := range coeffs {
		r.Frequencies[k] = float64(k) / float64(n)
		r.Magnitude[k] = cmplx.Abs(c)
		r.Phase[k] = cmplx.Phase(c)
	}
	return r
}

// MagnitudeDB converts a linear magnitude to dB, flooring at -240 dB.
func MagnitudeDB(m float64) float64 {
	return dbPerDecade * math.Log10(max(m, minMagnitude))
}

// Summary condenses a response for reports.
type Summary struct {
	DCGain      float64
	NyquistGain float64
	PeakGain    float64
	PeakFreq    float64
}

// Summarize extracts the headline gains from r.
func Summarize(r Response) Summary {
	if len(r.Magnitude) == 0 {
		return Summary{}
	}
	peak := floats.MaxIdx(r.Magnitude)
	return Summary{
		DCGain:      r.Magnitude[0],
		NyquistGain: r.Magnitude[len(r.Magnitude)-1],
		PeakGain:    r.Magnitude[peak],
		PeakFreq:    r.Frequencies[peak],
	}
}

// DCGain returns the exact integer sum of the taps.
func DCGain(taps []int64) int64 {
	var sum int64
	for _, c := range taps {
		sum += c
	}
	return sum
}

// GuardBits returns the fewest accumulator guard bits that let any
// inWidth-bit input pass the taps without wrapping, with W_out =
// tapWidth + inWidth + guard. It reports false when no width up to
// fixedpoint.MaxWidth is enough.
func GuardBits(taps []int64, inWidth, tapWidth uint) (uint, bool) {
	for guard := uint(0); tapWidth+inWidth+guard <= fixedpoint.MaxWidth; guard++ {
		if fixedpoint.Headroom(taps, inWidth, tapWidth+inWidth+guard) {
			return guard, true
		}
	}
	return 0, false
}
