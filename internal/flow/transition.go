package flow

// Input holds the signals presented to the engine for one cycle.
type Input struct {
	// Sample is the upstream sample, meaningful only when Valid.
	Sample int64

	// Valid is the upstream's offer of Sample.
	Valid bool

	// Last marks Sample as the final sample of its burst.
	Last bool

	// DownstreamReady is the consumer's readiness to take the output.
	DownstreamReady bool
}

// Output holds the signals the engine drives for one cycle.
type Output struct {
	// Sample is the filtered sample, meaningful only when Valid.
	Sample int64

	// Valid offers Sample to the downstream.
	Valid bool

	// Last marks Sample as the final output of its burst.
	Last bool

	// AcceptInput is the engine's readiness to take an upstream sample.
	AcceptInput bool
}

// control is the engine's register state outside the pipeline.
type control struct {
	state State
	fill  FillCounter
	drain DrainCounter
	skid  Skid
}

// decision is everything one cycle produces: the next control registers,
// the cycle's outputs and whether the pipeline advances with which sample.
//
// The drain flushes zeros through the pipeline, which is not part of the
// sample stream. save marks the pipeline registers after a burst's last
// sample; restore puts them back once the burst's final output is taken, so
// the next burst convolves against the real history.
type decision struct {
	next    control
	out     Output
	advance bool
	feed    int64
	save    bool
	restore bool
}

// transition computes one cycle from the current registers, the current
// pipeline output and the cycle's inputs. It has no side effects.
func transition(c control, pipeOut int64, in Input) decision {
	d := decision{next: c}

	accept := !c.skid.Full() && c.state.accepts()
	handshake := in.Valid && accept

	live := Beat{Sample: pipeOut}
	liveValid := false

	switch c.state {
	case StateReset:
		d.next.state = StateIdle

	case StateIdle:
		if handshake {
			d.advance, d.feed = true, in.Sample
			d.next.fill = c.fill.cleared().increment()
			d.next.state = StateStreaming
			if in.Last {
				d.next.state = StateDraining
				d.save = true
			}
		}

	case StateStreaming:
		if handshake {
			liveValid = c.fill.Saturated()
			d.advance, d.feed = true, in.Sample
			d.next.fill = c.fill.increment()
			if in.Last {
				d.next.state = StateDraining
				d.save = true
			}
		}

	case StateDraining:
		// Self-clocked: the flush does not wait for further input.
		if !c.skid.Full() {
			liveValid = c.fill.Saturated()
			d.advance = true
			d.next.fill = c.fill.increment()
			drain, expired := c.drain.decrement()
			d.next.drain = drain
			if expired {
				d.next.state = StateEmitLast
			}
		}

	case StateEmitLast:
		liveValid = !c.skid.Full()
		live.Last = true
	}

	d.out = Output{AcceptInput: accept}
	if b, ok := c.skid.Peek(); ok {
		d.out.Sample, d.out.Last, d.out.Valid = b.Sample, b.Last, true
	} else {
		d.out.Sample, d.out.Last, d.out.Valid = live.Sample, live.Last, liveValid
	}
	delivered := d.out.Valid && in.DownstreamReady

	switch {
	case c.skid.Full():
		if delivered {
			d.next.skid = c.skid.released()
		}
	case liveValid && d.advance && !in.DownstreamReady:
		// The pipeline moves past the refused output, so keep a copy.
		d.next.skid = c.skid.captured(live)
	}

	if c.state == StateEmitLast && !c.skid.Full() && delivered {
		d.next.state = StateIdle
		d.next.fill = c.fill.cleared()
		d.restore = true
	}

	return d
}
