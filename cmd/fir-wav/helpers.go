package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/bits"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	firstream "github.com/tphakala/go-fir-stream"
	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	format   *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if bitDepth < minBitDepth || bitDepth > maxBitDepth {
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported bit depth %d (want %d-%d)", bitDepth, minBitDepth, maxBitDepth)
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	return &wavInputInfo{
		file:     inputFile,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		format:   format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps the output file and its encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
}

// createWAVOutput creates the output file and a PCM encoder for it.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, bitDepth, channels, wavFormatPCM),
		format:  &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}, nil
}

// WriteSamples writes interleaved samples.
func (w *wavOutputWriter) WriteSamples(samples []int) error {
	if len(samples) == 0 {
		return nil
	}
	return w.encoder.Write(&audio.IntBuffer{Format: w.format, Data: samples})
}

// Close finalises the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// channelFilter streams one channel through its own filter core as a single
// burst spanning every chunk. The newest sample is held back so the burst's
// end marker can be set once the input is exhausted.
type channelFilter struct {
	driver  *firstream.Driver
	slack   int // cycles allowed beyond one per queued beat
	held    int64
	hasHeld bool
}

func newChannelFilters(config *firstream.Config, channels int) ([]*channelFilter, error) {
	filters := make([]*channelFilter, channels)
	for ch := range channels {
		s, err := firstream.New(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create filter for channel %d: %w", ch, err)
		}
		filters[ch] = &channelFilter{
			driver: firstream.NewDriver(s, firstream.DriverOptions{QueueCapacity: bufferFrames}),
			slack:  config.DrainDepth() + runSlackCycles,
		}
	}
	return filters, nil
}

// push queues samples and runs the core until it wants more input.
func (f *channelFilter) push(samples []int64) ([]int64, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	beats := make([]firstream.Beat, 0, len(samples))
	if f.hasHeld {
		beats = append(beats, firstream.Beat{Sample: f.held})
	}
	for _, s := range samples[:len(samples)-1] {
		beats = append(beats, firstream.Beat{Sample: s})
	}
	f.held, f.hasHeld = samples[len(samples)-1], true

	f.driver.WriteBeats(beats...)
	return f.run(len(beats))
}

// finish releases the held sample as the end of the burst and drains the core.
func (f *channelFilter) finish() ([]int64, error) {
	if !f.hasHeld {
		return nil, nil
	}
	f.driver.WriteBeats(firstream.Beat{Sample: f.held, Last: true})
	f.hasHeld = false
	return f.run(1)
}

func (f *channelFilter) run(queued int) ([]int64, error) {
	if err := f.driver.Run(queued + f.slack); err != nil {
		return nil, err
	}
	beats := f.driver.ReadAll()
	out := make([]int64, len(beats))
	for i, b := range beats {
		out[i] = b.Sample
	}
	return out, nil
}

// filterChannels applies step to every channel, concurrently when parallel
// is set. Every channel must yield the same number of samples.
func filterChannels(
	filters []*channelFilter,
	step func(f *channelFilter, ch int) ([]int64, error),
	parallel bool,
) ([][]int64, error) {
	out := make([][]int64, len(filters))

	if parallel && len(filters) > 1 {
		var wg sync.WaitGroup
		var processErr error
		var errMu sync.Mutex

		for ch, f := range filters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := step(f, ch)
				if err != nil {
					errMu.Lock()
					if processErr == nil {
						processErr = fmt.Errorf("filtering failed on channel %d: %w", ch, err)
					}
					errMu.Unlock()
					return
				}
				out[ch] = res
			}()
		}
		wg.Wait()

		if processErr != nil {
			return nil, processErr
		}
	} else {
		for ch, f := range filters {
			res, err := step(f, ch)
			if err != nil {
				return nil, fmt.Errorf("filtering failed on channel %d: %w", ch, err)
			}
			out[ch] = res
		}
	}

	for ch := 1; ch < len(out); ch++ {
		if len(out[ch]) != len(out[0]) {
			return nil, fmt.Errorf("channel %d produced %d samples, channel 0 produced %d", ch, len(out[ch]), len(out[0]))
		}
	}
	return out, nil
}

// deinterleave splits frames into per-channel sample slices.
func deinterleave(data []int, channels int) [][]int64 {
	frames := len(data) / channels
	out := make([][]int64, channels)
	for ch := range channels {
		out[ch] = make([]int64, frames)
		for i := range frames {
			out[ch][i] = int64(data[i*channels+ch])
		}
	}
	return out
}

// interleave shifts each filtered sample right by shift bits, saturates it
// to bitDepth and interleaves the channels.
func interleave(channels [][]int64, shift uint, bitDepth int) []int {
	if len(channels) == 0 {
		return nil
	}
	lo, hi := fixedpoint.MinValue(uint(bitDepth)), fixedpoint.MaxValue(uint(bitDepth))
	frames := len(channels[0])
	out := make([]int, frames*len(channels))
	for i := range frames {
		for ch, samples := range channels {
			v := samples[i] >> shift
			out[i*len(channels)+ch] = int(min(max(v, lo), hi))
		}
	}
	return out
}

// autoShift returns the right shift that brings the taps' worst-case gain
// back to unity or below.
func autoShift(taps []int64) uint {
	sum, ok := fixedpoint.AbsSum(taps)
	if !ok || sum <= 1 {
		return 0
	}
	return uint(bits.Len64(sum - 1))
}

// readChunk reads up to one buffer of interleaved samples. It returns an
// empty slice at the end of the data.
func readChunk(decoder *wav.Decoder, buf *audio.IntBuffer) ([]int, error) {
	buf.Data = buf.Data[:cap(buf.Data)]
	n, err := decoder.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	return buf.Data[:n], nil
}

// newChunkBuffer allocates the reusable decode buffer for one chunk.
func newChunkBuffer(input *wavInputInfo) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         input.format,
		Data:           make([]int, bufferFrames*input.channels),
		SourceBitDepth: input.bitDepth,
	}
}
