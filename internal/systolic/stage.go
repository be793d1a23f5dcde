// Package systolic implements the multiply-accumulate pipeline that computes
// the FIR convolution one register advance at a time.
//
// Each Stage holds four registers. Samples hop two registers per stage
// (capture and forward) while partial sums hop one (the accumulator), which
// is what lines stage i up with the sample delayed by i positions. Every
// advance computes the next value of every register from the current
// snapshot and commits them together, so no stage ever observes a value
// written in the same advance.
package systolic

import "github.com/tphakala/go-fir-stream/internal/fixedpoint"

// Stage is one tap of the systolic chain.
type Stage struct {
	coeff int64
	width uint // accumulator width in bits

	sample  int64 // captured input sample
	forward int64 // sample delayed once more, feeds the next stage
	product int64 // sample * coeff from the previous advance
	acc     int64 // product + incoming partial sum, wrapped to width
}

// NewStage creates a cleared stage for one coefficient.
func NewStage(coeff int64, accWidth uint) Stage {
	return Stage{coeff: coeff, width: accWidth}
}

// next returns the stage after one enabled advance. It only reads the
// receiver, never writes it.
func (s Stage) next(sampleIn, sumIn int64) Stage {
	n := s
	n.sample = sampleIn
	n.forward = s.sample
	n.product = s.sample * s.coeff
	n.acc = fixedpoint.Wrap(s.product+sumIn, s.width)
	return n
}

// clear zeroes every register but keeps the coefficient.
func (s *Stage) clear() {
	s.sample, s.forward, s.product, s.acc = 0, 0, 0, 0
}

// Coefficient returns the fixed tap value.
func (s Stage) Coefficient() int64 {
	return s.coeff
}

// Sum returns the partial sum leaving this stage.
func (s Stage) Sum() int64 {
	return s.acc
}

// Forward returns the delayed sample leaving this stage.
func (s Stage) Forward() int64 {
	return s.forward
}
