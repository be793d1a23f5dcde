package firstream

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
	"github.com/tphakala/go-fir-stream/internal/systolic"
)

// Config holds the fixed parameters of one filter core.
type Config struct {
	// InputWidth is the signed sample width W_in in bits.
	InputWidth uint

	// TapWidth is the signed coefficient width W_tap in bits.
	TapWidth uint

	// GuardBits is the accumulator headroom above W_tap + W_in.
	GuardBits uint

	// Taps are the filter coefficients, applied to the newest sample first.
	// They are copied when a Stream is built and never change afterwards.
	Taps []int64

	// AllowWrap accepts taps whose worst-case sum exceeds the output width.
	// Such sums wrap two's-complement instead of being rejected.
	AllowWrap bool
}

// Common errors returned by the filter.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid filter configuration")

	// ErrAccumulatorOverflow indicates the guard bits cannot hold the
	// worst-case sum. It matches ErrInvalidConfig under errors.Is.
	ErrAccumulatorOverflow = fmt.Errorf("%w: accumulator overflow", ErrInvalidConfig)

	// ErrStalled indicates a driver run ended before the stream settled.
	ErrStalled = errors.New("stream stalled")
)

// DefaultConfig returns the 8-bit, two-tap {1, 2} configuration.
func DefaultConfig() *Config {
	return &Config{
		InputWidth: DefaultInputWidth,
		TapWidth:   DefaultTapWidth,
		GuardBits:  DefaultGuardBits,
		Taps:       slices.Clone(defaultTaps),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputWidth < minWidth || c.TapWidth < minWidth {
		return fmt.Errorf("%w: input and tap widths must be at least %d bit", ErrInvalidConfig, minWidth)
	}

	if c.OutputWidth() > fixedpoint.MaxWidth {
		return fmt.Errorf("%w: output width %d exceeds %d bits", ErrInvalidConfig, c.OutputWidth(), fixedpoint.MaxWidth)
	}

	if len(c.Taps) == 0 {
		return fmt.Errorf("%w: at least one tap is required", ErrInvalidConfig)
	}

	if len(c.Taps) > maxTaps {
		return fmt.Errorf("%w: too many taps (max %d)", ErrInvalidConfig, maxTaps)
	}

	for i, t := range c.Taps {
		if !fixedpoint.Fits(t, c.TapWidth) {
			return fmt.Errorf("%w: tap %d = %d does not fit %d bits", ErrInvalidConfig, i, t, c.TapWidth)
		}
	}

	if !c.AllowWrap && !fixedpoint.Headroom(c.Taps, c.InputWidth, c.OutputWidth()) {
		return fmt.Errorf("%w: %d guard bits cannot hold the worst-case sum of %d taps",
			ErrAccumulatorOverflow, c.GuardBits, len(c.Taps))
	}

	return nil
}

// OutputWidth returns W_out = W_tap + W_in + guard bits.
func (c *Config) OutputWidth() uint {
	return c.TapWidth + c.InputWidth + c.GuardBits
}

// FillLatency returns the cycles from accepting a sample to offering its
// output under continuous flow.
func (c *Config) FillLatency() int {
	return systolic.FillLatency(len(c.Taps))
}

// DrainDepth returns the self-clocked flush advances after the last sample
// of a burst before its output is emitted.
func (c *Config) DrainDepth() int {
	return c.FillLatency() - 1
}

// Horizon returns the advances after which a sample no longer affects the
// pipeline output.
func (c *Config) Horizon() int {
	return systolic.Horizon(len(c.Taps))
}

func (c *Config) clone() Config {
	out := *c
	out.Taps = slices.Clone(c.Taps)
	return out
}
