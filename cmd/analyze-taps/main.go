// Command analyze-taps reports the frequency response and fixed-point budget
// of an integer tap set.
//
// Usage:
//
//	analyze-taps -taps 1,2,1
//	analyze-taps -taps-file lowpass.txt -in-width 16 -tap-width 16 -points 33
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/tphakala/go-fir-stream/internal/analysis"
	"github.com/tphakala/go-fir-stream/internal/design"
	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
	"github.com/tphakala/go-fir-stream/internal/systolic"
)

const (
	defaultTaps     = "1,2,1"
	defaultInWidth  = 16
	defaultTapWidth = 16
	defaultRows     = 17
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tapsFlag := flag.String("taps", defaultTaps, "Comma-separated integer coefficients")
	tapsFile := flag.String("taps-file", "", "Read coefficients from a file instead of -taps")
	inWidth := flag.Uint("in-width", defaultInWidth, "Sample width in bits")
	tapWidth := flag.Uint("tap-width", defaultTapWidth, "Coefficient width in bits")
	rows := flag.Int("points", defaultRows, "Response rows to print")
	flag.Parse()

	tapText := *tapsFile
	if tapText != "" {
		data, err := os.ReadFile(tapText)
		if err != nil {
			return fmt.Errorf("failed to read taps file: %w", err)
		}
		tapText = strings.TrimSpace(string(data))
	} else {
		tapText = *tapsFlag
	}
	taps, err := design.ParseTaps(tapText)
	if err != nil {
		return err
	}

	return report(os.Stdout, taps, *inWidth, *tapWidth, *rows)
}

// report writes the analysis of taps to w.
func report(w io.Writer, taps []int64, inWidth, tapWidth uint, rows int) error {
	for i, c := range taps {
		if !fixedpoint.Fits(c, tapWidth) {
			return fmt.Errorf("tap %d (%d) does not fit %d bits", i, c, tapWidth)
		}
	}
	if rows < 2 {
		rows = 2
	}
	absSum, ok := fixedpoint.AbsSum(taps)
	if !ok {
		return fmt.Errorf("tap magnitudes overflow 64 bits")
	}

	fmt.Fprintln(w, "=== Tap Set ===")
	fmt.Fprintf(w, "  Taps:         %s\n", design.FormatTaps(taps))
	fmt.Fprintf(w, "  Count:        %d\n", len(taps))
	fmt.Fprintf(w, "  Sum |c|:      %d\n", absSum)
	fmt.Fprintf(w, "  DC gain:      %d\n", analysis.DCGain(taps))
	fmt.Fprintf(w, "  Symmetric:    %v\n", symmetric(taps))

	fmt.Fprintln(w, "\n=== Pipeline ===")
	fmt.Fprintf(w, "  Fill latency: %d cycles\n", systolic.FillLatency(len(taps)))
	fmt.Fprintf(w, "  Drain depth:  %d cycles\n", systolic.FillLatency(len(taps))-1)
	fmt.Fprintf(w, "  Horizon:      %d cycles\n", systolic.Horizon(len(taps)))

	fmt.Fprintln(w, "\n=== Accumulator ===")
	if guard, ok := analysis.GuardBits(taps, inWidth, tapWidth); ok {
		fmt.Fprintf(w, "  Guard bits:   %d (accumulator %d bits)\n", guard, inWidth+tapWidth+guard)
	} else {
		fmt.Fprintf(w, "  Guard bits:   none fit within %d bits\n", fixedpoint.MaxWidth)
	}
	fmt.Fprintf(w, "  Tap sum:      needs %d signed bits\n", fixedpoint.BitsFor(absSum))

	r := analysis.FrequencyResponse(taps, analysis.DefaultPoints)
	s := analysis.Summarize(r)
	fmt.Fprintln(w, "\n=== Response ===")
	fmt.Fprintf(w, "  DC:           %.4f (%.2f dB)\n", s.DCGain, analysis.MagnitudeDB(s.DCGain))
	fmt.Fprintf(w, "  Nyquist:      %.4f (%.2f dB)\n", s.NyquistGain, analysis.MagnitudeDB(s.NyquistGain))
	fmt.Fprintf(w, "  Peak:         %.4f (%.2f dB) at %.4f\n", s.PeakGain, analysis.MagnitudeDB(s.PeakGain), s.PeakFreq)

	fmt.Fprintln(w, "\n  freq     gain       dB")
	last := len(r.Magnitude) - 1
	for i := range rows {
		k := i * last / (rows - 1)
		fmt.Fprintf(w, "  %.4f  %9.4f  %7.2f\n", r.Frequencies[k], r.Magnitude[k], analysis.MagnitudeDB(r.Magnitude[k]))
	}
	return nil
}

func symmetric(taps []int64) bool {
	for i, j := 0, len(taps)-1; i < j; i, j = i+1, j-1 {
		if taps[i] != taps[j] {
			return false
		}
	}
	return true
}
