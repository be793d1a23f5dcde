package firstream

import (
	"github.com/tphakala/go-fir-stream/internal/analysis"
	"github.com/tphakala/go-fir-stream/internal/reference"
)

// Info describes a stream's datapath.
type Info struct {
	// Taps is the number of pipeline stages.
	Taps int

	// InputWidth, TapWidth and OutputWidth are the datapath widths in bits.
	InputWidth  uint
	TapWidth    uint
	OutputWidth uint

	// GuardBits is the configured accumulator headroom; RequiredGuardBits
	// is the least headroom the taps need, or -1 if none suffices.
	GuardBits         uint
	RequiredGuardBits int

	// FillLatency is the input-to-output latency in cycles under continuous flow.
	FillLatency int

	// DrainDepth is the flush length after a burst's last sample.
	DrainDepth int

	// Horizon is the advances a sample stays visible at the output.
	Horizon int

	// DCGain is the sum of the taps.
	DCGain int64

	// SIMDType describes the CPU features used by the reference model.
	SIMDType string
}

// GetInfo returns information about a stream.
func GetInfo(s *Stream) Info {
	c := s.config
	required := -1
	if g, ok := analysis.GuardBits(c.Taps, c.InputWidth, c.TapWidth); ok {
		required = int(g)
	}
	return Info{
		Taps:              len(c.Taps),
		InputWidth:        c.InputWidth,
		TapWidth:          c.TapWidth,
		OutputWidth:       c.OutputWidth(),
		GuardBits:         c.GuardBits,
		RequiredGuardBits: required,
		FillLatency:       c.FillLatency(),
		DrainDepth:        c.DrainDepth(),
		Horizon:           c.Horizon(),
		DCGain:            analysis.DCGain(c.Taps),
		SIMDType:          reference.SIMDInfo(),
	}
}
