package firstream

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-fir-stream/internal/queue"
)

// DriverOptions shapes the traffic a Driver generates around its stream.
type DriverOptions struct {
	// Offer decides whether the upstream presents a new queued beat on the
	// given cycle. A beat already offered is always repeated until taken.
	// Nil offers whenever a beat is queued.
	Offer func(cycle uint64) bool

	// Ready decides downstream readiness on the given cycle. Nil is always ready.
	Ready func(cycle uint64) bool

	// QueueCapacity is the initial capacity of both queues.
	QueueCapacity int

	// Trace, if set, is called after every committed cycle.
	Trace func(Event)
}

// Event records one committed cycle.
type Event struct {
	Cycle uint64
	From  State
	To    State
	In    Input
	Out   Output
}

// Stats counts driver traffic.
type Stats struct {
	Cycles    uint64 // Cycles stepped by the driver
	Accepted  uint64 // Input handshakes
	Delivered uint64 // Output handshakes
	Bursts    uint64 // Delivered outputs marked Last
	Held      uint64 // Cycles an offered input was not taken
	Refused   uint64 // Cycles a valid output met a busy downstream
}

// Driver plays upstream and downstream for a Stream: it offers queued beats,
// honouring the hold-until-accepted rule, and collects delivered outputs.
//
// Write and Read may be called from other goroutines while one goroutine
// runs Tick or Run.
type Driver struct {
	stream *Stream
	opts   DriverOptions
	in     *queue.Ring[Beat]
	out    *queue.Ring[Beat]

	mu      sync.Mutex
	offered bool
	stats   Stats
}

// NewDriver creates a driver that owns stream.
func NewDriver(stream *Stream, opts DriverOptions) *Driver {
	capacity := opts.QueueCapacity
	if capacity < 1 {
		capacity = defaultQueueCapacity
	}
	return &Driver{
		stream: stream,
		opts:   opts,
		in:     queue.NewRing[Beat](capacity),
		out:    queue.NewRing[Beat](capacity),
	}
}

// Write queues one burst; its final sample carries the end-of-burst marker.
// An empty burst queues nothing.
func (d *Driver) Write(burst []int64) {
	if len(burst) == 0 {
		return
	}
	beats := make([]Beat, len(burst))
	for i, s := range burst {
		beats[i] = Beat{Sample: s, Last: i == len(burst)-1}
	}
	d.in.Write(beats...)
}

// WriteBeats queues raw beats, leaving burst marking to the caller.
func (d *Driver) WriteBeats(beats ...Beat) {
	d.in.Write(beats...)
}

// Pending returns the number of queued input beats not yet accepted.
func (d *Driver) Pending() int {
	return d.in.Available()
}

// Tick runs one cycle.
func (d *Driver) Tick() (Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tick()
}

func (d *Driver) tick() (Output, error) {
	cycle := d.stream.Cycle()
	in := Input{DownstreamReady: d.opts.Ready == nil || d.opts.Ready(cycle)}

	if head, ok := d.in.Peek(); ok && (d.offered || d.opts.Offer == nil || d.opts.Offer(cycle)) {
		in.Sample, in.Last, in.Valid = head.Sample, head.Last, true
	}

	from := d.stream.State()
	out, err := d.stream.Step(in)
	if err != nil {
		return out, fmt.Errorf("cycle %d: %w", cycle, err)
	}
	d.stats.Cycles++
	if d.opts.Trace != nil {
		d.opts.Trace(Event{Cycle: cycle, From: from, To: d.stream.State(), In: in, Out: out})
	}

	d.offered = false
	if in.Valid {
		if out.AcceptInput {
			d.in.Pop()
			d.stats.Accepted++
		} else {
			d.offered = true
			d.stats.Held++
		}
	}

	if out.Valid {
		if in.DownstreamReady {
			d.out.Write(Beat{Sample: out.Sample, Last: out.Last})
			d.stats.Delivered++
			if out.Last {
				d.stats.Bursts++
			}
		} else {
			d.stats.Refused++
		}
	}
	return out, nil
}

// Settled reports whether every queued beat has been filtered and delivered.
func (d *Driver) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled()
}

func (d *Driver) settled() bool {
	return d.in.Available() == 0 && !d.offered && d.stream.Quiescent()
}

// Run ticks until the driver settles. It returns an error wrapping
// ErrStalled if maxCycles pass first.
func (d *Driver) Run(maxCycles int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for range maxCycles {
		if d.settled() {
			return nil
		}
		if _, err := d.tick(); err != nil {
			return err
		}
	}
	if d.settled() {
		return nil
	}
	return fmt.Errorf("%w: %d cycles elapsed with %d beats queued in state %s",
		ErrStalled, maxCycles, d.in.Available(), d.stream.State())
}

// Read removes up to n delivered beats.
func (d *Driver) Read(n int) []Beat {
	return d.out.Read(n)
}

// ReadAll removes every delivered beat.
func (d *Driver) ReadAll() []Beat {
	return d.out.ReadAll()
}

// Reset resets the stream and drops both queues.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stream.Reset()
	d.in.Clear()
	d.out.Clear()
	d.offered = false
}

// Stats returns the traffic counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
