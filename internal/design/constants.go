package design

// Polynomial approximations of I0 from Abramowitz & Stegun 9.8.1 and 9.8.2.
const (
	besselSplit = 3.75

	besselSmall1 = 3.5156229
	besselSmall2 = 3.0899424
	besselSmall3 = 1.2067492
	besselSmall4 = 0.2659732
	besselSmall5 = 0.360768e-1
	besselSmall6 = 0.45813e-2

	besselLarge0 = 0.39894228
	besselLarge1 = 0.1328592e-1
	besselLarge2 = 0.225319e-2
	besselLarge3 = -0.157565e-2
	besselLarge4 = 0.916281e-2
	besselLarge5 = -0.2057706e-1
	besselLarge6 = 0.2635537e-1
	besselLarge7 = -0.1647633e-1
	besselLarge8 = 0.392377e-2
)

// Kaiser & Schafer beta formula.
const (
	kaiserAttHigh      = 50.0
	kaiserAttLow       = 21.0
	kaiserHighSlope    = 0.1102
	kaiserHighOffset   = 8.7
	kaiserMidScale     = 0.5842
	kaiserMidPower     = 0.4
	kaiserMidLinear    = 0.07886
	kaiserLengthOffset = 7.95
	kaiserLengthScale  = 14.36
)

// Lowpass design bounds. The upper bound keeps designs within what a
// fixed-point pipeline can reasonably carry.
const (
	minTaps       = 1
	maxTaps       = 255
	nyquist       = 0.5
	zeroThreshold = 1e-12
)
