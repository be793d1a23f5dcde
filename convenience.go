package firstream

import (
	"fmt"

	"github.com/tphakala/go-fir-stream/internal/reference"
)

// FilterBurst runs samples through a fresh stream as one burst under
// continuous flow and returns one output per input.
func FilterBurst(config *Config, samples []int64) ([]int64, error) {
	out, err := FilterBursts(config, [][]int64{samples})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// FilterBursts runs each burst back to back through one stream. Result i
// holds the outputs of bursts[i]; empty bursts yield empty results. Filter
// history carries across bursts, so the concatenated results equal the
// convolution of the concatenated input.
func FilterBursts(config *Config, bursts [][]int64) ([][]int64, error) {
	s, err := New(config)
	if err != nil {
		return nil, err
	}

	d := NewDriver(s, DriverOptions{})
	total := 0
	for _, b := range bursts {
		d.Write(b)
		total += len(b)
	}

	if err := d.Run(cycleBudget(s.config, len(bursts), total)); err != nil {
		return nil, err
	}
	return splitBursts(bursts, d.ReadAll())
}

// cycleBudget bounds a continuous-flow run: every sample takes one cycle,
// and each burst adds its flush, final emission and idle turnaround.
func cycleBudget(c Config, bursts, samples int) int {
	return samples + bursts*(c.DrainDepth()+2) + runSlackCycles
}

func splitBursts(bursts [][]int64, beats []Beat) ([][]int64, error) {
	out := make([][]int64, len(bursts))
	next := 0
	for i, b := range bursts {
		out[i] = make([]int64, 0, len(b))
		if len(b) == 0 {
			continue
		}
		for len(out[i]) < len(b) {
			if next >= len(beats) {
				return nil, fmt.Errorf("%w: burst %d produced %d of %d outputs", ErrStalled, i, len(out[i]), len(b))
			}
			beat := beats[next]
			next++
			out[i] = append(out[i], beat.Sample)
			if beat.Last != (len(out[i]) == len(b)) {
				return nil, fmt.Errorf("burst %d: end-of-burst marker on output %d of %d", i, len(out[i])-1, len(b))
			}
		}
	}
	return out, nil
}

// Reference returns the exact convolution the stream computes for one burst,
// wrapped to the output width when the configuration allows wrapping.
func Reference(config *Config, samples []int64) ([]int64, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.AllowWrap {
		return reference.Wrapped(samples, config.Taps, config.OutputWidth()), nil
	}
	return reference.Convolve(samples, config.Taps), nil
}
