// Command fir-sim prints a cycle-by-cycle trace of the filter core.
//
// Usage:
//
//	fir-sim                                   # default taps {1,2}, burst 5,10,0,0
//	fir-sim -taps 1,2,3 -bursts "1,2,3;4"     # two bursts
//	fir-sim -ready 1101 -offer 10             # repeating downstream/upstream patterns
//
// Patterns are strings of 0 and 1 applied cyclically, one character per cycle.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	firstream "github.com/tphakala/go-fir-stream"
	"github.com/tphakala/go-fir-stream/internal/design"
)

const (
	defaultTaps      = "1,2"
	defaultBursts    = "5,10,0,0"
	defaultMaxCycles = 1000
	burstSeparator   = ";"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tapsFlag := flag.String("taps", defaultTaps, "Comma-separated integer coefficients")
	burstsFlag := flag.String("bursts", defaultBursts, "Bursts of samples, separated by ';'")
	inWidth := flag.Uint("in-width", firstream.DefaultInputWidth, "Sample width in bits")
	tapWidth := flag.Uint("tap-width", firstream.DefaultTapWidth, "Coefficient width in bits")
	guardBits := flag.Uint("guard", firstream.DefaultGuardBits, "Accumulator guard bits")
	wrap := flag.Bool("wrap", false, "Allow accumulator wrap-around instead of rejecting the taps")
	ready := flag.String("ready", "1", "Downstream ready pattern")
	offer := flag.String("offer", "1", "Upstream offer pattern")
	maxCycles := flag.Int("max-cycles", defaultMaxCycles, "Cycle budget")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	taps, err := design.ParseTaps(*tapsFlag)
	if err != nil {
		return err
	}
	bursts, err := parseBursts(*burstsFlag)
	if err != nil {
		return err
	}
	readyFn, err := pattern(*ready)
	if err != nil {
		return fmt.Errorf("invalid -ready: %w", err)
	}
	offerFn, err := pattern(*offer)
	if err != nil {
		return fmt.Errorf("invalid -offer: %w", err)
	}

	s, err := firstream.New(&firstream.Config{
		InputWidth: *inWidth,
		TapWidth:   *tapWidth,
		GuardBits:  *guardBits,
		Taps:       taps,
		AllowWrap:  *wrap,
	})
	if err != nil {
		return err
	}

	info := firstream.GetInfo(s)
	if *verbose {
		log.Printf("Taps: %s", design.FormatTaps(taps))
		log.Printf("Widths: in %d, tap %d, out %d", info.InputWidth, info.TapWidth, info.OutputWidth)
		log.Printf("SIMD: %s", info.SIMDType)
	}
	fmt.Printf("taps=%d fill=%d drain=%d horizon=%d\n\n", info.Taps, info.FillLatency, info.DrainDepth, info.Horizon)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "cycle\tstate\tin\taccept\tout\tready\tnext\t")

	d := firstream.NewDriver(s, firstream.DriverOptions{
		Offer: offerFn,
		Ready: readyFn,
		Trace: func(e firstream.Event) {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				e.Cycle, e.From,
				beat(e.In.Valid, e.In.Sample, e.In.Last),
				flag01(e.Out.AcceptInput),
				beat(e.Out.Valid, e.Out.Sample, e.Out.Last),
				flag01(e.In.DownstreamReady),
				e.To)
		},
	})
	for _, b := range bursts {
		d.Write(b)
	}

	runErr := d.Run(*maxCycles)
	if err := tw.Flush(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, firstream.ErrStalled) {
		return runErr
	}

	fmt.Println()
	printResults(bursts, d.ReadAll())

	st := d.Stats()
	fmt.Printf("\ncycles=%d accepted=%d delivered=%d bursts=%d held=%d refused=%d\n",
		st.Cycles, st.Accepted, st.Delivered, st.Bursts, st.Held, st.Refused)
	return runErr
}

func parseBursts(s string) ([][]int64, error) {
	var bursts [][]int64
	for i, part := range strings.Split(s, burstSeparator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		b, err := design.ParseTaps(part)
		if err != nil {
			return nil, fmt.Errorf("burst %d: %w", i, err)
		}
		bursts = append(bursts, b)
	}
	if len(bursts) == 0 {
		return nil, errors.New("no samples given")
	}
	return bursts, nil
}

// pattern turns a 0/1 string into a per-cycle predicate.
func pattern(p string) (func(uint64) bool, error) {
	if p == "" {
		return nil, errors.New("empty pattern")
	}
	bits := make([]bool, len(p))
	for i, c := range p {
		switch c {
		case '0':
		case '1':
			bits[i] = true
		default:
			return nil, fmt.Errorf("pattern %q: character %q is not 0 or 1", p, c)
		}
	}
	return func(cycle uint64) bool { return bits[cycle%uint64(len(bits))] }, nil
}

func printResults(bursts [][]int64, beats []firstream.Beat) {
	next := 0
	for i, b := range bursts {
		var got []string
		for next < len(beats) {
			bt := beats[next]
			next++
			got = append(got, fmt.Sprint(bt.Sample))
			if bt.Last {
				break
			}
		}
		fmt.Printf("burst %d: in=%v out=[%s]\n", i, b, strings.Join(got, " "))
	}
}

func beat(valid bool, sample int64, last bool) string {
	if !valid {
		return "-"
	}
	if last {
		return fmt.Sprintf("%d*", sample)
	}
	return fmt.Sprint(sample)
}

func flag01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
