// Package flow wraps the systolic pipeline with a per-cycle valid/ready
// handshake, a one-slot skid buffer and the burst state machine that
// sequences fill, streaming, drain and final-sample emission.
package flow

import (
	"fmt"

	"github.com/tphakala/go-fir-stream/internal/fixedpoint"
	"github.com/tphakala/go-fir-stream/internal/systolic"
)

// Engine is the flow-control engine around one filter pipeline.
// It is advanced only by Step and is not safe for concurrent use.
type Engine struct {
	pipe    *systolic.Pipeline
	ctl     control
	inWidth uint

	// Pipeline registers as of the last accepted end-of-burst sample.
	history []systolic.Stage

	// Upstream offer seen last cycle but not accepted; it must be repeated.
	pending    Beat
	hasPending bool

	fault error
	cycle uint64
}

// Snapshot is a read-only view of the engine registers between cycles.
type Snapshot struct {
	Cycle      uint64
	State      State
	Fill       int
	Drain      int
	SkidFull   bool
	Skid       Beat
	PipeOutput int64
}

// NewEngine creates an engine in StateReset. The coefficients are copied.
// inWidth bounds valid samples; accWidth is the partial-sum width.
func NewEngine(coeffs []int64, inWidth, accWidth uint) *Engine {
	pipe := systolic.NewPipeline(coeffs, accWidth)
	return &Engine{
		pipe:    pipe,
		inWidth: inWidth,
		ctl:     initialControl(pipe),
	}
}

func initialControl(pipe *systolic.Pipeline) control {
	return control{
		state: StateReset,
		fill:  NewFillCounter(pipe.FillLatency()),
		drain: NewDrainCounter(pipe.FillLatency() - 1),
	}
}

// Step runs one clock cycle: it computes this cycle's outputs from the
// current registers and in, then commits every register at once.
//
// A handshake violation is returned wrapped in ErrProtocolViolation; the
// cycle is not committed and every later Step fails until Reset.
func (e *Engine) Step(in Input) (Output, error) {
	if e.fault != nil {
		return Output{}, e.fault
	}
	if err := e.check(in); err != nil {
		e.fault = err
		return Output{}, err
	}

	d := transition(e.ctl, e.pipe.Output(), in)
	if d.advance {
		e.pipe.Advance(d.feed)
	}
	if d.save {
		e.history = e.pipe.Save(e.history)
	}
	if d.restore {
		e.pipe.Restore(e.history)
	}
	e.ctl = d.next

	e.hasPending = in.Valid && !d.out.AcceptInput
	e.pending = Beat{Sample: in.Sample, Last: in.Last}
	e.cycle++

	return d.out, nil
}

// check enforces the upstream half of the handshake contract.
func (e *Engine) check(in Input) error {
	if in.Valid && !fixedpoint.Fits(in.Sample, e.inWidth) {
		return fmt.Errorf("%w: cycle %d: sample %d exceeds %d-bit input",
			ErrProtocolViolation, e.cycle, in.Sample, e.inWidth)
	}
	if !e.hasPending {
		return nil
	}
	if !in.Valid {
		return fmt.Errorf("%w: cycle %d: offer of sample %d withdrawn before acceptance",
			ErrProtocolViolation, e.cycle, e.pending.Sample)
	}
	if in.Sample != e.pending.Sample || in.Last != e.pending.Last {
		return fmt.Errorf("%w: cycle %d: pending offer changed from (%d, last=%t) to (%d, last=%t)",
			ErrProtocolViolation, e.cycle, e.pending.Sample, e.pending.Last, in.Sample, in.Last)
	}
	return nil
}

// Reset clears the pipeline, its saved burst history, counters, skid slot,
// pending offer and any latched fault. The engine holds StateReset until the next Step.
// It is safe to call at any point, including mid-burst.
func (e *Engine) Reset() {
	e.pipe.Reset()
	e.history = e.history[:0]
	e.ctl = initialControl(e.pipe)
	e.pending, e.hasPending = Beat{}, false
	e.fault = nil
}

// AcceptInput reports whether the engine takes an upstream sample on the
// next cycle. It depends on registers only, never on that cycle's inputs.
func (e *Engine) AcceptInput() bool {
	return e.fault == nil && !e.ctl.skid.Full() && e.ctl.state.accepts()
}

// State returns the control state.
func (e *Engine) State() State {
	return e.ctl.state
}

// Cycle returns the number of committed cycles since construction.
func (e *Engine) Cycle() uint64 {
	return e.cycle
}

// Fault returns the latched protocol violation, if any.
func (e *Engine) Fault() error {
	return e.fault
}

// Quiescent reports whether no further cycle can make progress without new
// upstream input: nothing is buffered and no flush is under way.
func (e *Engine) Quiescent() bool {
	return e.AcceptInput()
}

// Snapshot returns the current registers.
func (e *Engine) Snapshot() Snapshot {
	b, full := e.ctl.skid.Peek()
	return Snapshot{
		Cycle:      e.cycle,
		State:      e.ctl.state,
		Fill:       e.ctl.fill.Count(),
		Drain:      e.ctl.drain.Remaining(),
		SkidFull:   full,
		Skid:       b,
		PipeOutput: e.pipe.Output(),
	}
}

// FillLatency returns the fill counter threshold.
func (e *Engine) FillLatency() int {
	return e.ctl.fill.Threshold()
}

// DrainDepth returns the drain counter reload value.
func (e *Engine) DrainDepth() int {
	return e.ctl.drain.Reload()
}

// Horizon returns the pipeline's residual horizon in advances.
func (e *Engine) Horizon() int {
	return e.pipe.Horizon()
}

// Taps returns the number of pipeline stages.
func (e *Engine) Taps() int {
	return e.pipe.Taps()
}
