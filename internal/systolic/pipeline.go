package systolic

// Register stages on the path from a sample entering stage 0 to its product
// landing in stage 0's accumulator: capture, multiply, accumulate.
const stageLatency = 3

// Pipeline chains one Stage per coefficient.
type Pipeline struct {
	stages []Stage
	spare  []Stage // next-state buffer, swapped with stages on commit
}

// NewPipeline creates a cleared pipeline. The coefficients are copied.
// accWidth is the partial-sum width in bits.
func NewPipeline(coeffs []int64, accWidth uint) *Pipeline {
	p := &Pipeline{
		stages: make([]Stage, len(coeffs)),
		spare:  make([]Stage, len(coeffs)),
	}
	for i, c := range coeffs {
		p.stages[i] = NewStage(c, accWidth)
	}
	return p
}

// Advance clocks every stage once with x entering stage 0.
// All next values are computed from the current snapshot before any is
// committed.
func (p *Pipeline) Advance(x int64) {
	sampleIn, sumIn := x, int64(0)
	for i, s := range p.stages {
		p.spare[i] = s.next(sampleIn, sumIn)
		sampleIn, sumIn = s.forward, s.acc
	}
	p.stages, p.spare = p.spare, p.stages
}

// Output returns the converged partial sum of the last stage.
func (p *Pipeline) Output() int64 {
	if len(p.stages) == 0 {
		return 0
	}
	return p.stages[len(p.stages)-1].acc
}

// Reset clears every register.
func (p *Pipeline) Reset() {
	for i := range p.stages {
		p.stages[i].clear()
		p.spare[i].clear()
	}
}

// Taps returns the number of stages.
func (p *Pipeline) Taps() int {
	return len(p.stages)
}

// Stages returns a copy of the current stage registers.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Save copies the current registers into dst, reusing its storage, and
// returns it.
func (p *Pipeline) Save(dst []Stage) []Stage {
	return append(dst[:0], p.stages...)
}

// Restore loads registers previously returned by Save.
func (p *Pipeline) Restore(saved []Stage) {
	copy(p.stages, saved)
}

// FillLatency returns the number of advances after which Output holds
// y[k] for the k-th advanced sample: three for the first stage plus one
// accumulator hop per additional stage.
func (p *Pipeline) FillLatency() int {
	return FillLatency(len(p.stages))
}

// Horizon returns the number of advances after which a sample no longer
// influences Output, i.e. its last-tap product has left the pipeline.
func (p *Pipeline) Horizon() int {
	return Horizon(len(p.stages))
}

// FillLatency returns the advance count from a sample entering stage 0 to
// the converged sum that carries it as the newest term.
func FillLatency(taps int) int {
	return stageLatency + (taps - 1)
}

// Horizon returns the advance count from a sample entering stage 0 to its
// last contribution reaching the output.
func Horizon(taps int) int {
	return stageLatency + 2*(taps-1)
}
