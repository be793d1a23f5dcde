// Command design-taps designs a Kaiser-windowed lowpass and quantises it to
// integer taps for the filter core.
//
// Usage:
//
//	design-taps -cutoff 0.2 -transition 0.1 -attenuation 60 -width 12
//	design-taps -taps 31 -cutoff 0.1 -o lowpass.txt
//
// The taps are printed on one line in the form fir-wav -taps accepts.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tphakala/go-fir-stream/internal/analysis"
	"github.com/tphakala/go-fir-stream/internal/design"
)

const (
	defaultCutoff      = 0.2
	defaultTransition  = 0.1
	defaultAttenuation = 60.0
	defaultWidth       = 12
	defaultInWidth     = 16
	autoTaps           = 0
	filePerm           = 0o644
)

type designOptions struct {
	taps        int
	cutoff      float64
	transition  float64
	attenuation float64
	width       uint
	inWidth     uint
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts designOptions
	flag.IntVar(&opts.taps, "taps", autoTaps, "Tap count (0 = estimate from attenuation and transition)")
	flag.Float64Var(&opts.cutoff, "cutoff", defaultCutoff, "Normalised cutoff frequency in (0, 0.5)")
	flag.Float64Var(&opts.transition, "transition", defaultTransition, "Normalised transition width")
	flag.Float64Var(&opts.attenuation, "attenuation", defaultAttenuation, "Stopband attenuation in dB")
	flag.UintVar(&opts.width, "width", defaultWidth, "Coefficient width in bits")
	flag.UintVar(&opts.inWidth, "in-width", defaultInWidth, "Sample width used for the guard-bit estimate")
	output := flag.String("o", "", "Write taps to this file instead of stdout")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	q, err := designTaps(opts)
	if err != nil {
		return err
	}

	if *verbose {
		summarize(os.Stderr, q, opts)
	}

	line := design.FormatTaps(q.Taps) + "\n"
	if *output == "" {
		_, err = io.WriteString(os.Stdout, line)
		return err
	}
	if err := os.WriteFile(*output, []byte(line), filePerm); err != nil {
		return fmt.Errorf("failed to write taps file: %w", err)
	}
	log.Printf("Wrote %d taps to %s", len(q.Taps), *output)
	return nil
}

func designTaps(opts designOptions) (design.Quantized, error) {
	n := opts.taps
	if n == autoTaps {
		n = design.EstimateTaps(opts.attenuation, opts.transition)
	}
	coeffs, err := design.Lowpass(design.LowpassParams{
		Taps:        n,
		Cutoff:      opts.cutoff,
		Attenuation: opts.attenuation,
		Gain:        1,
	})
	if err != nil {
		return design.Quantized{}, err
	}
	return design.Quantize(coeffs, opts.width)
}

func summarize(w io.Writer, q design.Quantized, opts designOptions) {
	s := analysis.Summarize(analysis.FrequencyResponse(q.Taps, analysis.DefaultPoints))
	fmt.Fprintf(w, "Taps:        %d at %d bits (scale %.1f)\n", len(q.Taps), opts.width, q.Scale)
	fmt.Fprintf(w, "DC gain:     %d (%.6f after scaling back)\n", analysis.DCGain(q.Taps), q.DCGain())
	fmt.Fprintf(w, "Nyquist:     %.2f dB below DC\n",
		analysis.MagnitudeDB(s.DCGain)-analysis.MagnitudeDB(s.NyquistGain))
	if guard, ok := analysis.GuardBits(q.Taps, opts.inWidth, opts.width); ok {
		fmt.Fprintf(w, "Guard bits:  %d for %d-bit samples\n", guard, opts.inWidth)
	}
}
