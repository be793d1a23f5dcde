// Command fir-wav filters WAV audio through the cycle-accurate FIR core.
//
// Usage:
//
//	fir-wav -taps 1,2,1 input.wav output.wav
//	fir-wav -taps 3,-7,12,-1 -shift 0 input.wav output.wav  # keep full gain (saturates)
//	fir-wav -taps-file lowpass.txt -parallel=false input.wav out.wav
//
// Each channel runs through its own core as one burst covering the whole
// file. Channels are filtered concurrently by default.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	firstream "github.com/tphakala/go-fir-stream"
	"github.com/tphakala/go-fir-stream/internal/design"
)

const (
	// Frames read per chunk
	bufferFrames = 16384

	// Supported signed PCM sample widths
	minBitDepth = 16
	maxBitDepth = 32

	// go-audio format tag for integer PCM
	wavFormatPCM = 1

	// Cycles a chunk run may take beyond one per sample and the flush
	runSlackCycles = 8

	// CLI defaults
	defaultTaps      = "1,2,1"
	defaultTapWidth  = 16
	defaultGuardBits = 8
	autoShiftFlag    = -1
	minRequiredArgs  = 2
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tapsFlag := flag.String("taps", defaultTaps, "Comma-separated integer coefficients")
	tapsFile := flag.String("taps-file", "", "Read coefficients from a file instead of -taps")
	tapWidth := flag.Uint("tap-width", defaultTapWidth, "Coefficient width in bits")
	guardBits := flag.Uint("guard", defaultGuardBits, "Accumulator guard bits")
	shift := flag.Int("shift", autoShiftFlag, "Right shift applied to outputs (-1 = normalise by tap gain)")
	parallel := flag.Bool("parallel", true, "Enable parallel channel processing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -taps 1,2,1 in.wav out.wav            # Gentle lowpass\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -taps 1,-1 -shift 0 in.wav diff.wav   # First difference\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}

	tapText := *tapsFlag
	if *tapsFile != "" {
		data, err := os.ReadFile(*tapsFile)
		if err != nil {
			return fmt.Errorf("failed to read taps file: %w", err)
		}
		tapText = strings.TrimSpace(string(data))
	}
	taps, err := design.ParseTaps(tapText)
	if err != nil {
		return err
	}

	opts := filterOptions{
		taps:      taps,
		tapWidth:  *tapWidth,
		guardBits: *guardBits,
		shift:     *shift,
		parallel:  *parallel,
		verbose:   *verbose,
	}

	inputPath, outputPath := args[0], args[1]
	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Taps: %s", design.FormatTaps(taps))
		log.Printf("Parallel: %v", *parallel)
	}

	start := time.Now()
	stats, err := filterWAV(inputPath, outputPath, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Filtered %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz, %d channels, %d-bit, %d taps, shift %d\n",
		stats.rate, stats.channels, stats.bitDepth, len(taps), stats.shift)
	fmt.Printf("  %d frames in, %d frames out\n", stats.inputFrames, stats.outputFrames)
	fmt.Printf("  Fill latency %d cycles, drain %d cycles\n", stats.fillLatency, stats.drainDepth)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(), float64(stats.inputFrames)/float64(stats.rate)/elapsed.Seconds())

	return nil
}

type filterOptions struct {
	taps      []int64
	tapWidth  uint
	guardBits uint
	shift     int
	parallel  bool
	verbose   bool
}

type filterStats struct {
	rate         int
	channels     int
	bitDepth     int
	shift        uint
	inputFrames  int64
	outputFrames int64
	fillLatency  int
	drainDepth   int
}

// filterWAV streams inputPath through one filter core per channel.
func filterWAV(inputPath, outputPath string, opts filterOptions) (stats *filterStats, err error) {
	input, err := openWAVInput(inputPath, opts.verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	config := &firstream.Config{
		InputWidth: uint(input.bitDepth),
		TapWidth:   opts.tapWidth,
		GuardBits:  opts.guardBits,
		Taps:       opts.taps,
	}
	filters, err := newChannelFilters(config, input.channels)
	if err != nil {
		return nil, err
	}

	shift := autoShift(opts.taps)
	if opts.shift >= 0 {
		shift = uint(opts.shift)
	}

	output, err := createWAVOutput(outputPath, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on the success path (the header is written on close)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &filterStats{
		rate:        input.rate,
		channels:    input.channels,
		bitDepth:    input.bitDepth,
		shift:       shift,
		fillLatency: config.FillLatency(),
		drainDepth:  config.DrainDepth(),
	}

	emit := func(channels [][]int64) error {
		if len(channels) == 0 || len(channels[0]) == 0 {
			return nil
		}
		stats.outputFrames += int64(len(channels[0]))
		if err := output.WriteSamples(interleave(channels, shift, input.bitDepth)); err != nil {
			return fmt.Errorf("failed to write audio data: %w", err)
		}
		return nil
	}

	buf := newChunkBuffer(input)
	for {
		data, err := readChunk(input.decoder, buf)
		if err != nil {
			return nil, err
		}
		if len(data) < input.channels {
			break
		}

		in := deinterleave(data, input.channels)
		stats.inputFrames += int64(len(in[0]))

		out, err := filterChannels(filters, func(f *channelFilter, ch int) ([]int64, error) {
			return f.push(in[ch])
		}, opts.parallel)
		if err != nil {
			return nil, err
		}
		if err := emit(out); err != nil {
			return nil, err
		}
	}

	tail, err := filterChannels(filters, func(f *channelFilter, _ int) ([]int64, error) {
		return f.finish()
	}, opts.parallel)
	if err != nil {
		return nil, err
	}
	if err := emit(tail); err != nil {
		return nil, err
	}

	if opts.verbose {
		log.Printf("Processed %d frames per channel", stats.inputFrames)
	}
	return stats, nil
}
