// Package design builds integer tap sets offline: a Kaiser-windowed sinc
// lowpass in float64, then quantised to a signed coefficient width.
package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
)

// ErrInvalidParams is returned for lowpass parameters that cannot be designed.
var ErrInvalidParams = errors.New("invalid design parameters")

// BesselI0 is the modified Bessel function of the first kind, order zero.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < besselSplit {
		t := x / besselSplit
		t *= t
		return 1 + t*(besselSmall1+t*(besselSmall2+t*(besselSmall3+
			t*(besselSmall4+t*(besselSmall5+t*besselSmall6)))))
	}

	t := besselSplit / ax
	p := besselLarge0 + t*(besselLarge1+t*(besselLarge2+t*(besselLarge3+
		t*(besselLarge4+t*(besselLarge5+t*(besselLarge6+t*(besselLarge7+t*besselLarge8)))))))
	return math.Exp(ax) * p / math.Sqrt(ax)
}

// KaiserBeta returns the window beta for a stopband attenuation in dB.
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserHighSlope * (attenuation - kaiserHighOffset)
	case attenuation >= kaiserAttLow:
		d := attenuation - kaiserAttLow
		return kaiserMidScale*math.Pow(d, kaiserMidPower) + kaiserMidLinear*d
	default:
		return 0
	}
}

// EstimateTaps returns the odd tap count Kaiser's formula predicts for the
// attenuation and normalised transition width, clamped to the design bounds.
func EstimateTaps(attenuation, transition float64) int {
	if transition <= 0 {
		return maxTaps
	}
	n := int(math.Ceil((attenuation-kaiserLengthOffset)/(kaiserLengthScale*transition))) + 1
	if n%2 == 0 {
		n++
	}
	return min(max(n, minTaps), maxTaps)
}

// KaiserWindow returns a symmetric Kaiser window peaking at 1.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}

	half := float64(length-1) / 2
	norm := BesselI0(beta)
	for n := range w {
		x := (float64(n) - half) / half
		w[n] = BesselI0(beta*math.Sqrt(max(0, 1-x*x))) / norm
	}
	return w
}

// LowpassParams describes a windowed-sinc lowpass.
type LowpassParams struct {
	// Taps is the filter length.
	Taps int

	// Cutoff is the normalised cutoff frequency in (0, 0.5).
	Cutoff float64

	// Attenuation is the stopband attenuation in dB; it selects the window beta.
	Attenuation float64

	// Gain is the DC gain the taps are scaled to.
	Gain float64
}

// Validate checks the parameters.
func (p *LowpassParams) Validate() error {
	if p.Taps < minTaps || p.Taps > maxTaps {
		return fmt.Errorf("%w: %d taps outside [%d, %d]", ErrInvalidParams, p.Taps, minTaps, maxTaps)
	}
	if p.Cutoff <= 0 || p.Cutoff >= nyquist {
		return fmt.Errorf("%w: cutoff %g outside (0, %g)", ErrInvalidParams, p.Cutoff, nyquist)
	}
	if p.Attenuation < 0 {
		return fmt.Errorf("%w: negative attenuation %g dB", ErrInvalidParams, p.Attenuation)
	}
	if p.Gain <= 0 {
		return fmt.Errorf("%w: gain %g must be positive", ErrInvalidParams, p.Gain)
	}
	return nil
}

// Lowpass designs float taps normalised to p.Gain at DC.
func Lowpass(p LowpassParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	window := KaiserWindow(p.Taps, KaiserBeta(p.Attenuation))
	taps := make([]float64, p.Taps)
	center := float64(p.Taps-1) / 2
	for n := range taps {
		x := float64(n) - center
		sinc := 2 * p.Cutoff
		if math.Abs(x) > zeroThreshold {
			sinc = math.Sin(2*math.Pi*p.Cutoff*x) / (math.Pi * x)
		}
		taps[n] = sinc * window[n]
	}

	if sum := f64.Sum(taps); math.Abs(sum) > zeroThreshold {
		f64.Scale(taps, taps, p.Gain/sum)
	}
	return taps, nil
}
