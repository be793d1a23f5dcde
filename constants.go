package firstream

// Default datapath widths.
const (
	// DefaultInputWidth is the default sample width in bits.
	DefaultInputWidth = 8

	// DefaultTapWidth is the default coefficient width in bits.
	DefaultTapWidth = 8

	// DefaultGuardBits is the default accumulator headroom in bits.
	DefaultGuardBits = 8
)

// Configuration limits
const (
	minWidth = 1    // Narrowest signed sample or coefficient
	maxTaps  = 1024 // Longest supported tap list
)

// Driver constants
const (
	defaultQueueCapacity = 64 // Initial beats per driver queue
	runSlackCycles       = 8  // Extra cycles granted to convenience runs
)

// defaultTaps is the two-tap filter used by DefaultConfig.
var defaultTaps = []int64{1, 2}
