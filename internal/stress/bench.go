package stress

import (
	"fmt"
	"sync/atomic"

	"github.com/kolkov/conctest/harness"
	"github.com/kolkov/conctest/noinline"
	"github.com/kolkov/conctest/racecell"
)

// Bench is a named micro-benchmark.
type Bench struct {
	Name        string
	Description string

	// Contended benches run their body against an antagonist and honor
	// harness options; the others ignore them.
	Contended bool

	DefaultIterations uint32

	Run func(iterations uint32, opts ...harness.Option) (harness.Result, error)
}

var benches = []Bench{
	{
		Name:              "atomic-add",
		Description:       "atomic add on an uncontended word",
		DefaultIterations: 100_000_000,
		Run:               benchAtomicAdd,
	},
	{
		Name:              "atomic-add-contended",
		Description:       "atomic add while another thread adds to the same word",
		Contended:         true,
		DefaultIterations: 50_000_000,
		Run:               benchAtomicAddContended,
	},
	{
		Name:              "cell-set",
		Description:       "racecell Set on an uncontended cell",
		DefaultIterations: 50_000_000,
		Run:               benchCellSet,
	},
	{
		Name:              "cell-get-contended",
		Description:       "racecell Get while another thread keeps setting the cell",
		Contended:         true,
		DefaultIterations: 20_000_000,
		Run:               benchCellGetContended,
	},
}

// Benches returns every registered benchmark in registration order.
func Benches() []Bench {
	return append([]Bench(nil), benches...)
}

// LookupBench returns the benchmark registered under name.
func LookupBench(name string) (Bench, error) {
	for _, b := range benches {
		if b.Name == name {
			return b, nil
		}
	}
	return Bench{}, fmt.Errorf("%w: bench %q (have %v)", ErrUnknown, name, names(benches, func(b Bench) string { return b.Name }))
}

// SelectBenches resolves names to benchmarks, or returns all of them when
// names is empty.
func SelectBenches(names []string) ([]Bench, error) {
	if len(names) == 0 {
		return Benches(), nil
	}
	out := make([]Bench, 0, len(names))
	for _, n := range names {
		b, err := LookupBench(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func benchAtomicAdd(iterations uint32, _ ...harness.Option) (harness.Result, error) {
	var atom atomic.Uint64
	r := harness.Benchmark(iterations, func() { atom.Add(1) })
	if got := atom.Load(); got != uint64(iterations) {
		return r, invariantf("counter = %d after %d adds", got, iterations)
	}
	return r, nil
}

func benchAtomicAddContended(iterations uint32, opts ...harness.Option) (harness.Result, error) {
	var atom atomic.Uint64
	var antagonistIters uint64
	opts = append(opts[:len(opts):len(opts)], harness.WithAntagonistCount(&antagonistIters))

	r, err := harness.ConcurrentBenchmark(iterations,
		func() { atom.Add(1) },
		func() { atom.Add(1) },
		opts...)
	if err != nil {
		return r, err
	}
	if got, want := atom.Load(), uint64(iterations)+antagonistIters; got != want {
		return r, invariantf("counter = %d, want %d", got, want)
	}
	return r, nil
}

func benchCellSet(iterations uint32, _ ...harness.Option) (harness.Result, error) {
	cell := racecell.New(uint32(0))
	var i uint32
	r := harness.Benchmark(iterations, func() {
		i++
		cell.Set(i)
	})
	if got := cell.Get(); got != racecell.Consistent(iterations) {
		return r, invariantf("cell = %v after %d sets", got, iterations)
	}
	return r, nil
}

func benchCellGetContended(iterations uint32, opts ...harness.Option) (harness.Result, error) {
	cell := racecell.New(uint64(0))
	var next uint64
	return harness.ConcurrentBenchmark(iterations,
		func() { noinline.Sink(cell.Get()) },
		func() {
			next++
			cell.Set(next)
		},
		opts...)
}
