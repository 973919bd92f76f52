package harness

import "time"

// DefaultHeadstart is how long the antagonist runs on its own before the
// measured operation starts, once it is known to be looping.
const DefaultHeadstart = 10 * time.Millisecond

// Option configures RunUnderContention and ConcurrentBenchmark.
type Option func(*config)

type config struct {
	headstart time.Duration
	count     *uint64
}

func newConfig(opts []Option) config {
	cfg := config{headstart: DefaultHeadstart}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithHeadstart sets how long the antagonist loops before the measured
// operation starts. The antagonist always completes at least one
// iteration first; a zero headstart starts measuring right after that.
// Negative durations are treated as zero.
func WithHeadstart(d time.Duration) Option {
	return func(c *config) {
		if d < 0 {
			d = 0
		}
		c.headstart = d
	}
}

// WithAntagonistCount stores the number of completed antagonist
// iterations into *n once the antagonist has been joined.
func WithAntagonistCount(n *uint64) Option {
	return func(c *config) {
		c.count = n
	}
}
