// Package firstream provides a cycle-accurate streaming fixed-point FIR
// filter behind a valid/ready handshake, in pure Go.
//
// The core is a systolic multiply-accumulate pipeline, one stage per tap,
// wrapped by a flow-control engine that tracks pipeline fill, absorbs one
// cycle of downstream backpressure in a single-slot skid buffer, flushes
// the pipeline at the end of each burst and marks the burst's final output.
// Samples are never dropped, duplicated or reordered. Filter history carries
// from one burst into the next until Reset.
//
// # Quick Start
//
// For one-shot filtering of a burst:
//
//	out, err := firstream.FilterBurst(firstream.DefaultConfig(), []int64{5, 10, 0, 0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// out == [5 20 20 0]
//
// For cycle-level control, step a Stream directly:
//
//	s, err := firstream.New(&firstream.Config{
//	    InputWidth: 12,
//	    TapWidth:   10,
//	    GuardBits:  6,
//	    Taps:       []int64{-3, 40, 100, 40, -3},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := s.Step(firstream.Input{Sample: x, Valid: true, DownstreamReady: true})
//
// A Driver supplies the handshake for you, with pluggable upstream and
// downstream traffic patterns:
//
//	d := firstream.NewDriver(s, firstream.DriverOptions{
//	    Ready: func(cycle uint64) bool { return cycle%3 != 0 },
//	})
//	d.Write(burst)
//	if err := d.Run(10_000); err != nil {
//	    log.Fatal(err)
//	}
//	beats := d.ReadAll()
//
// # Handshake
//
// On every cycle the stream reports AcceptInput, which depends only on its
// registers. A sample is taken when Valid and AcceptInput are both true.
// A valid sample that was not taken must be presented again unchanged on
// the next cycle; withdrawing or changing it is a protocol violation that
// latches until Reset. An output is delivered when its Valid and the
// downstream's DownstreamReady are both true. While streaming, an output is
// offered only on cycles where the upstream also delivers a sample.
//
// # Latency
//
// With N taps, an accepted sample's output is offered FillLatency = N + 2
// cycles later under continuous flow. After a burst's last sample the
// stream stops accepting input and flushes the pipeline with zeros for
// DrainDepth = N + 1 cycles on its own, then holds the marked final output
// until the downstream takes it.
//
// # Fixed-Point Arithmetic
//
// Samples are InputWidth-bit and taps TapWidth-bit signed integers. Partial
// sums are InputWidth + TapWidth + GuardBits bits wide (at most 63) and wrap
// two's-complement. Config.Validate rejects taps whose worst-case sum needs
// more guard bits unless AllowWrap is set.
package firstream
