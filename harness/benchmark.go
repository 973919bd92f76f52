package harness

import (
	"fmt"
	"time"

	"github.com/kolkov/conctest/noinline"
)

// Result is the outcome of a micro-benchmark.
type Result struct {
	Iterations uint32
	Elapsed    time.Duration
}

// PerIteration returns the mean duration of one iteration, or 0 when no
// iteration ran.
func (r Result) PerIteration() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Iterations)
}

// String formats the result for benchmark logs:
//
//	812 ms (100000000 iters, ~8.12 ns/iter)
//
// Whole-run time is in milliseconds, since reproducible benchmarks run for
// seconds to minutes, and per-iteration time in nanoseconds with two
// decimals, since iterations are expected to take from a fraction of a
// nanosecond to a fraction of a second.
func (r Result) String() string {
	ms := r.Elapsed.Milliseconds()
	if r.Iterations == 0 {
		return fmt.Sprintf("%d ms (0 iters)", ms)
	}
	hundredths := r.Elapsed.Nanoseconds() * 100 / int64(r.Iterations)
	return fmt.Sprintf("%d ms (%d iters, ~%d.%02d ns/iter)",
		ms, r.Iterations, hundredths/100, hundredths%100)
}

// Benchmark runs body the given number of times on the calling goroutine
// and measures how long it takes.
//
// It is a stand-in for testing.B where a fixed iteration count matters,
// most notably as the measured operation of RunUnderContention.
func Benchmark(iterations uint32, body func()) Result {
	start := time.Now()
	for i := uint32(0); i < iterations; i++ {
		noinline.Call(body)
	}
	return Result{Iterations: iterations, Elapsed: time.Since(start)}
}

// ConcurrentBenchmark runs Benchmark(iterations, body) while antagonist
// loops on another OS thread.
//
// For multi-threaded code, the performance of an isolated operation is
// only half of the story: synchronization and memory contention can have
// a large impact. This measures body while another thread is hammering
// the same memory.
func ConcurrentBenchmark(iterations uint32, body, antagonist func(), opts ...Option) (Result, error) {
	return RunUnderContention(antagonist, func() Result {
		return Benchmark(iterations, body)
	}, opts...)
}
