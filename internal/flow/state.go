package flow

import "fmt"

// State is the control state of the flow engine.
type State int

const (
	// StateReset is held from a reset until the next cycle releases it.
	StateReset State = iota

	// StateIdle waits for the first accepted sample of a burst.
	StateIdle

	// StateStreaming accepts samples and emits filtered samples in lockstep.
	StateStreaming

	// StateDraining flushes the pipeline after the burst's last sample.
	StateDraining

	// StateEmitLast presents the burst's final output marked Last.
	StateEmitLast
)

var stateNames = [...]string{
	StateReset:     "reset",
	StateIdle:      "idle",
	StateStreaming: "streaming",
	StateDraining:  "draining",
	StateEmitLast:  "emit-last",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// accepts reports whether the state takes new samples from upstream.
func (s State) accepts() bool {
	return s == StateIdle || s == StateStreaming
}
