package firstream

import (
	"fmt"

	"github.com/tphakala/go-fir-stream/internal/flow"
)

type (
	// Input holds the signals presented to a Stream for one cycle.
	Input = flow.Input

	// Output holds the signals a Stream drives for one cycle.
	Output = flow.Output

	// Beat is a sample with its end-of-burst marker.
	Beat = flow.Beat

	// State is the burst control state.
	State = flow.State

	// Snapshot is a read-only view of the stream registers between cycles.
	Snapshot = flow.Snapshot
)

// Control states.
const (
	StateReset     = flow.StateReset
	StateIdle      = flow.StateIdle
	StateStreaming = flow.StateStreaming
	StateDraining  = flow.StateDraining
	StateEmitLast  = flow.StateEmitLast
)

// ErrProtocolViolation indicates the upstream broke the valid/ready contract.
var ErrProtocolViolation = flow.ErrProtocolViolation

// Stream is one flow-controlled FIR core, advanced one clock cycle per Step.
// It is not safe for concurrent use.
type Stream struct {
	config Config
	engine *flow.Engine
}

// New creates a stream in StateReset. The configuration is validated and
// copied, so later changes to config do not affect the stream.
func New(config *Config) (*Stream, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := config.clone()
	return &Stream{
		config: cfg,
		engine: flow.NewEngine(cfg.Taps, cfg.InputWidth, cfg.OutputWidth()),
	}, nil
}

// Step runs one clock cycle. Errors wrap ErrProtocolViolation and persist
// until Reset.
func (s *Stream) Step(in Input) (Output, error) {
	return s.engine.Step(in)
}

// Reset returns the stream to its power-on state, discarding any burst in
// flight. The cycle count is kept.
func (s *Stream) Reset() {
	s.engine.Reset()
}

// AcceptInput reports whether a valid sample presented on the next Step
// will be taken.
func (s *Stream) AcceptInput() bool {
	return s.engine.AcceptInput()
}

// State returns the control state.
func (s *Stream) State() State {
	return s.engine.State()
}

// Cycle returns the number of committed cycles.
func (s *Stream) Cycle() uint64 {
	return s.engine.Cycle()
}

// Quiescent reports whether no further cycle can make progress without new
// upstream input. It holds mid-burst in StateStreaming, where outputs still
// in the pipeline wait for more samples, and never during a flush.
func (s *Stream) Quiescent() bool {
	return s.engine.Quiescent()
}

// Fault returns the latched protocol violation, if any.
func (s *Stream) Fault() error {
	return s.engine.Fault()
}

// Snapshot returns the current registers.
func (s *Stream) Snapshot() Snapshot {
	return s.engine.Snapshot()
}

// Config returns a copy of the stream configuration.
func (s *Stream) Config() Config {
	return s.config.clone()
}
