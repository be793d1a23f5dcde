package flow

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-fir-stream/internal/reference"
)

const (
	testInWidth  = 8
	testAccWidth = 24
	cycleLimit   = 20000
)

var scenarioTaps = []int64{1, 2}

// harness plays upstream and downstream around an Engine, keeping an
// offered sample stable until it is accepted.
type harness struct {
	t       *testing.T
	e       *Engine
	queue   []Beat
	offered bool

	got    []Beat
	inAt   []uint64 // cycle each input was accepted
	outAt  []uint64 // cycle each output was delivered
	trace  []Output
	states []State // state at the start of each cycle
}

func newHarness(t *testing.T, taps []int64) *harness {
	t.Helper()
	return &harness{t: t, e: NewEngine(taps, testInWidth, testAccWidth)}
}

func (h *harness) push(samples []int64) {
	for i, s := range samples {
		h.queue = append(h.queue, Beat{Sample: s, Last: i == len(samples)-1})
	}
}

// tick runs one cycle. offer gates presenting a fresh sample; an offer that
// was not accepted is always repeated.
func (h *harness) tick(offer, ready bool) Output {
	h.t.Helper()

	in := Input{DownstreamReady: ready}
	if len(h.queue) > 0 && (offer || h.offered) {
		in.Sample, in.Last, in.Valid = h.queue[0].Sample, h.queue[0].Last, true
	}

	cycle := h.e.Cycle()
	h.states = append(h.states, h.e.State())
	out, err := h.e.Step(in)
	require.NoError(h.t, err)

	h.offered = false
	if in.Valid {
		if out.AcceptInput {
			h.queue = h.queue[1:]
			h.inAt = append(h.inAt, cycle)
		} else {
			h.offered = true
		}
	}
	if out.Valid && ready {
		h.got = append(h.got, Beat{Sample: out.Sample, Last: out.Last})
		h.outAt = append(h.outAt, cycle)
	}
	h.trace = append(h.trace, out)
	return out
}

func (h *harness) done() bool {
	return len(h.queue) == 0 && !h.offered && h.e.Quiescent()
}

func (h *harness) run(offer, ready func(cycle int) bool) {
	h.t.Helper()
	for c := 0; !h.done(); c++ {
		require.Less(h.t, c, cycleLimit, "engine did not settle")
		h.tick(offer(c), ready(c))
	}
}

func always(int) bool { return true }

// expectBeats convolves the bursts as one continuous stream, since filter
// history carries across burst boundaries, and marks each burst's end.
func expectBeats(bursts ...[]int64) []Beat {
	return expectBeatsFor(scenarioTaps, bursts...)
}

func expectBeatsFor(taps []int64, bursts ...[]int64) []Beat {
	var all []int64
	var last []bool
	for _, b := range bursts {
		all = append(all, b...)
		for i := range b {
			last = append(last, i == len(b)-1)
		}
	}
	out := make([]Beat, 0, len(all))
	for i, y := range reference.Convolve(all, taps) {
		out = append(out, Beat{Sample: y, Last: last[i]})
	}
	return out
}

func TestEngine_Scenario(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	h.push([]int64{5, 10, 0, 0})
	h.run(always, always)

	assert.Equal(t, []Beat{
		{Sample: 5}, {Sample: 20}, {Sample: 20}, {Sample: 0, Last: true},
	}, h.got)

	// Cycle 0 releases reset, inputs land on 1..4, outputs on 5..8.
	assert.Equal(t, []uint64{1, 2, 3, 4}, h.inAt)
	assert.Equal(t, []uint64{5, 6, 7, 8}, h.outAt)
	assert.Equal(t, StateIdle, h.e.State())
}

func TestEngine_LatencyDeterminism(t *testing.T) {
	for taps := 1; taps <= 6; taps++ {
		coeffs := make([]int64, taps)
		for i := range coeffs {
			coeffs[i] = int64(i + 1)
		}

		h := newHarness(t, coeffs)
		samples := make([]int64, 40)
		for i := range samples {
			samples[i] = int64(i%17) - 8
		}
		h.push(samples)
		h.run(always, always)

		require.Len(t, h.outAt, len(samples))
		for k := range samples {
			assert.Equal(t, uint64(h.e.FillLatency()), h.outAt[k]-h.inAt[k],
				"taps=%d output %d", taps, k)
		}
		assert.Equal(t, 3+(taps-1), h.e.FillLatency())
		assert.Equal(t, h.e.FillLatency()-1, h.e.DrainDepth())
		assert.Equal(t, 3+2*(taps-1), h.e.Horizon())
	}
}

func TestEngine_OneCycleBackpressure(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	samples := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h.push(samples)

	const refuseAt = 7
	h.run(always, func(c int) bool { return c != refuseAt })

	refused := h.trace[refuseAt]
	require.True(t, refused.Valid, "an output must be offered on the refused cycle")

	// The skid slot fills: the same output is offered again and no input is taken.
	next := h.trace[refuseAt+1]
	assert.True(t, next.Valid)
	assert.Equal(t, refused.Sample, next.Sample)
	assert.Equal(t, refused.Last, next.Last)
	assert.False(t, next.AcceptInput)
	assert.NotContains(t, h.inAt, uint64(refuseAt+1))

	assert.Equal(t, expectBeats(samples), h.got)
}

func TestEngine_EndOfBurstMarking(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	bursts := [][]int64{{1, 2, 3}, {4}, {5, 6, 7, 8, 9, 10, 11}, {-1, -2}}
	for _, b := range bursts {
		h.push(b)
	}
	h.run(always, always)

	assert.Equal(t, expectBeats(bursts...), h.got)

	lastCount := 0
	for _, b := range h.got {
		if b.Last {
			lastCount++
		}
	}
	assert.Equal(t, len(bursts), lastCount)
}

func TestEngine_HistoryCarriesAcrossBursts(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	h.push([]int64{5, 10})
	h.push([]int64{0, 0})
	h.run(always, always)

	// Same values as the single burst {5, 10, 0, 0}; the flush zeros between
	// the bursts are not part of the stream.
	assert.Equal(t, []Beat{
		{Sample: 5}, {Sample: 20, Last: true},
		{Sample: 20}, {Sample: 0, Last: true},
	}, h.got)
}

func TestEngine_ShortBurstsKeepHistory(t *testing.T) {
	taps := []int64{1, 1, 1, 1, 1}
	h := newHarness(t, taps)
	bursts := [][]int64{{3, 4}, {5}, {6, 7}, {1, 1, 1, 1, 1, 1, 1}}
	for _, b := range bursts {
		h.push(b)
	}
	h.run(always, func(c int) bool { return c%4 != 3 })

	assert.Equal(t, expectBeatsFor(taps, bursts...), h.got)
	assert.Equal(t, []Beat{{Sample: 3}, {Sample: 7, Last: true}, {Sample: 12, Last: true}}, h.got[:3])
}

func TestEngine_UpstreamGapMidBurst(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	samples := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	h.push(samples)

	// Inputs land on cycles 1..5, then upstream goes quiet for three cycles
	// while streaming with a full pipeline.
	gap := func(c int) bool { return c < 6 || c > 8 }
	h.run(gap, always)

	require.Equal(t, []uint64{1, 2, 3, 4, 5, 9, 10, 11}, h.inAt)
	assert.True(t, h.trace[5].Valid)
	assert.Equal(t, int64(1), h.trace[5].Sample)
	for c := 6; c <= 8; c++ {
		assert.Equal(t, StateStreaming, h.states[c], "cycle %d", c)
		assert.False(t, h.trace[c].Valid, "cycle %d: no output without an input handshake", c)
	}
	assert.True(t, h.trace[9].Valid)
	assert.Equal(t, int64(4), h.trace[9].Sample)

	// Nothing lost, nothing presented twice.
	assert.Equal(t, expectBeats(samples), h.got)
	assert.Len(t, h.outAt, len(samples))
}

func TestEngine_SingleSampleBurst(t *testing.T) {
	h := newHarness(t, []int64{-3, 5, 7})
	h.push([]int64{9})
	h.run(always, always)

	assert.Equal(t, []Beat{{Sample: -27, Last: true}}, h.got)
}

func TestEngine_BurstShorterThanFill(t *testing.T) {
	taps := []int64{1, 1, 1, 1, 1}
	h := newHarness(t, taps)
	h.push([]int64{3, 4})
	h.run(always, always)

	assert.Equal(t, []Beat{{Sample: 3}, {Sample: 7, Last: true}}, h.got)
}

func TestEngine_NoInputAcceptedWhileFlushing(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	h.push([]int64{1, 2})
	h.push([]int64{3, 4})

	for c := 0; !h.done(); c++ {
		require.Less(t, c, cycleLimit)
		before := h.e.State()
		out := h.tick(true, true)
		if before == StateDraining || before == StateEmitLast || before == StateReset {
			assert.False(t, out.AcceptInput, "cycle %d in %s", c, before)
		}
	}
	assert.Equal(t, expectBeats([]int64{1, 2}, []int64{3, 4}), h.got)
}

func TestEngine_EmitLastHoldsUntilAccepted(t *testing.T) {
	h := newHarness(t, scenarioTaps)
	h.push([]int64{5, 10, 0, 0})

	// Run to the final emission with a ready downstream.
	for h.e.State() != StateEmitLast {
		h.tick(true, true)
	}

	for range 5 {
		out := h.tick(true, false)
		assert.True(t, out.Valid)
		assert.True(t, out.Last)
		assert.Equal(t, int64(0), out.Sample)
		assert.Equal(t, StateEmitLast, h.e.State())
	}

	h.tick(true, true)
	assert.Equal(t, StateIdle, h.e.State())
	assert.Equal(t, []Beat{{Sample: 5}, {Sample: 20}, {Sample: 20}, {Sample: 0, Last: true}}, h.got)
}

func TestEngine_RandomHandshakes(t *testing.T) {
	taps := []int64{3, -7, 12, -1}

	for seed := uint64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		h := newHarness(t, taps)

		var bursts [][]int64
		for range 1 + rng.IntN(6) {
			burst := make([]int64, 1+rng.IntN(12))
			for i := range burst {
				burst[i] = rng.Int64N(256) - 128
			}
			h.push(burst)
			bursts = append(bursts, burst)
		}
		want := expectBeatsFor(taps, bursts...)

		for c := 0; !h.done(); c++ {
			require.Less(t, c, cycleLimit, "seed %d did not settle", seed)
			skidFull := h.e.Snapshot().SkidFull
			out := h.tick(rng.IntN(4) != 0, rng.IntN(3) != 0)
			if skidFull {
				assert.False(t, out.AcceptInput, "seed %d cycle %d: input taken with skid full", seed, c)
				assert.True(t, out.Valid)
			}
		}

		assert.Equal(t, want, h.got, "seed %d", seed)
	}
}

func TestEngine_ResetAtAnyCycle(t *testing.T) {
	first := []int64{7, -3, 100, -128, 127, 4, 4, 4}
	second := []int64{5, 10, 0, 0}
	fresh := NewEngine(scenarioTaps, testInWidth, testAccWidth).Snapshot()

	for r := 0; r < 20; r++ {
		h := newHarness(t, scenarioTaps)
		h.push(first)
		for c := 0; c < r; c++ {
			h.tick(true, c%3 != 1)
		}

		h.e.Reset()
		snap := h.e.Snapshot()
		snap.Cycle = 0
		assert.Equal(t, fresh, snap, "reset after %d cycles", r)
		assert.False(t, h.e.AcceptInput())

		// Reset discards in-flight work on both sides of the handshake.
		h.queue, h.offered, h.got = nil, false, nil
		h.push(second)
		h.run(always, always)

		assert.Equal(t, expectBeats(second), h.got, "reset after %d cycles", r)
	}
}

func TestEngine_ResetIsIdempotent(t *testing.T) {
	e := NewEngine(scenarioTaps, testInWidth, testAccWidth)
	e.Reset()
	a := e.Snapshot()
	e.Reset()
	e.Reset()
	assert.Equal(t, a, e.Snapshot())
}

func TestEngine_ProtocolViolations(t *testing.T) {
	tests := []struct {
		name   string
		second Input
	}{
		{"withdrawn", Input{DownstreamReady: true}},
		{"sample changed", Input{Sample: 2, Valid: true, DownstreamReady: true}},
		{"last changed", Input{Sample: 1, Valid: true, Last: true, DownstreamReady: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(scenarioTaps, testInWidth, testAccWidth)

			// Cycle 0 is the reset release, so this offer is not accepted.
			out, err := e.Step(Input{Sample: 1, Valid: true, DownstreamReady: true})
			require.NoError(t, err)
			require.False(t, out.AcceptInput)

			_, err = e.Step(tt.second)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrProtocolViolation))
			assert.ErrorIs(t, e.Fault(), ErrProtocolViolation)

			// The fault is latched.
			_, err = e.Step(Input{Sample: 1, Valid: true, DownstreamReady: true})
			assert.ErrorIs(t, err, ErrProtocolViolation)
			assert.False(t, e.AcceptInput())

			e.Reset()
			assert.NoError(t, e.Fault())
			_, err = e.Step(Input{DownstreamReady: true})
			assert.NoError(t, err)
		})
	}
}

func TestEngine_SampleOutOfRange(t *testing.T) {
	e := NewEngine(scenarioTaps, testInWidth, testAccWidth)
	_, err := e.Step(Input{Sample: 128, Valid: true})
	assert.ErrorIs(t, err, ErrProtocolViolation)

	e.Reset()
	_, err = e.Step(Input{Sample: 999})
	assert.NoError(t, err, "invalid beats carry no sample")
}

func TestTransition_Pure(t *testing.T) {
	c := control{
		state: StateStreaming,
		fill:  FillCounter{count: 4, threshold: 4},
		drain: NewDrainCounter(3),
	}
	in := Input{Sample: 9, Valid: true, DownstreamReady: false}

	a := transition(c, 42, in)
	b := transition(c, 42, in)
	assert.Equal(t, a, b)
	assert.Equal(t, StateStreaming, c.state)
	assert.False(t, c.skid.Full())

	// Refused live output while advancing lands in the skid slot.
	assert.True(t, a.advance)
	assert.True(t, a.next.skid.Full())
	beat, _ := a.next.skid.Peek()
	assert.Equal(t, Beat{Sample: 42}, beat)
	assert.False(t, a.save)
	assert.False(t, a.restore)

	// The end-of-burst handshake marks the history to keep.
	last := transition(c, 42, Input{Sample: 9, Valid: true, Last: true, DownstreamReady: true})
	assert.True(t, last.save)
	assert.Equal(t, StateDraining, last.next.state)

	// Handing off to Idle brings it back.
	emit := transition(control{state: StateEmitLast, fill: c.fill, drain: c.drain}, 7, Input{DownstreamReady: true})
	assert.True(t, emit.restore)
	assert.Equal(t, StateIdle, emit.next.state)
	assert.Equal(t, Output{Sample: 7, Valid: true, Last: true}, emit.out)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "reset", StateReset.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "emit-last", StateEmitLast.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestCounters(t *testing.T) {
	f := NewFillCounter(2)
	assert.False(t, f.Saturated())
	f = f.increment().increment().increment()
	assert.True(t, f.Saturated())
	assert.Equal(t, 2, f.Count())
	assert.Zero(t, f.cleared().Count())

	d := NewDrainCounter(2)
	d, expired := d.decrement()
	assert.False(t, expired)
	assert.Equal(t, 1, d.Remaining())
	d, expired = d.decrement()
	assert.True(t, expired)
	assert.Equal(t, 2, d.Remaining())
}
