package flow

// FillCounter counts pipeline advances since the burst began and saturates
// at the pipeline fill latency. Live outputs are meaningful only once it has
// saturated.
type FillCounter struct {
	count     int
	threshold int
}

// NewFillCounter creates a cleared counter saturating at threshold.
func NewFillCounter(threshold int) FillCounter {
	return FillCounter{threshold: threshold}
}

// Saturated reports whether the counter reached its threshold.
func (c FillCounter) Saturated() bool {
	return c.count >= c.threshold
}

// Count returns the current value.
func (c FillCounter) Count() int {
	return c.count
}

// Threshold returns the saturation value.
func (c FillCounter) Threshold() int {
	return c.threshold
}

func (c FillCounter) increment() FillCounter {
	if c.count < c.threshold {
		c.count++
	}
	return c
}

func (c FillCounter) cleared() FillCounter {
	c.count = 0
	return c
}

// DrainCounter counts down the flush advances left before the burst's last
// output sits at the pipeline output. It reloads whenever it reaches zero.
type DrainCounter struct {
	remaining int
	reload    int
}

// NewDrainCounter creates a counter loaded with reload.
func NewDrainCounter(reload int) DrainCounter {
	return DrainCounter{remaining: reload, reload: reload}
}

// Remaining returns the advances left.
func (c DrainCounter) Remaining() int {
	return c.remaining
}

// Reload returns the value loaded on reset and on expiry.
func (c DrainCounter) Reload() int {
	return c.reload
}

// decrement returns the counter after one advance and whether it expired.
func (c DrainCounter) decrement() (DrainCounter, bool) {
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = c.reload
		return c, true
	}
	return c, false
}
