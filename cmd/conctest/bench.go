package main

import (
	"context"
	"io"
	"math"
	"time"

	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/kolkov/conctest/harness"
	"github.com/kolkov/conctest/internal/report"
	"github.com/kolkov/conctest/internal/stress"
	"github.com/kolkov/conctest/internal/sysinfo"
)

var (
	benchIterations uint64
	benchHeadstart  time.Duration
)

func init() {
	cmdBench.Flags.Uint64Var(&benchIterations, "n", 0, "iterations per benchmark; 0 uses each benchmark's default")
	cmdBench.Flags.DurationVar(&benchHeadstart, "headstart", harness.DefaultHeadstart, "how long the antagonist runs alone before measuring")
}

var cmdBench = &cmdline.Command{
	Runner: withLogging(runBench),
	Name:   "bench",
	Short:  "Run micro-benchmarks",
	Long: `
Runs the named micro-benchmarks, or all of them. Contended benchmarks measure
their operation while an antagonist thread loops on the same memory.
`,
	ArgsName: "[name ...]",
	ArgsLong: "[name ...] are benchmark names.",
}

type benchOptions struct {
	iterations uint32
	headstart  time.Duration
	glyphs     report.Glyphs
}

func runBench(env *cmdline.Env, args []string) error {
	benches, err := stress.SelectBenches(args)
	if err != nil {
		return env.UsageErrorf("%v", err)
	}
	if benchIterations > math.MaxUint32 {
		return env.UsageErrorf("-n %d exceeds %d", benchIterations, uint32(math.MaxUint32))
	}
	return benchRun(env.Stdout, benches, benchOptions{
		iterations: uint32(benchIterations),
		headstart:  benchHeadstart,
		glyphs:     glyphsFor(env.Stdout),
	})
}

func benchRun(w io.Writer, benches []stress.Bench, opts benchOptions) error {
	host, err := sysinfo.Describe(context.Background())
	if err != nil {
		vlog.VI(1).Infof("host description incomplete: %v", err)
	}

	p := report.New(w, report.WithGlyphs(opts.glyphs))
	p.Header(host)

	for _, b := range benches {
		iters := opts.iterations
		if iters == 0 {
			iters = b.DefaultIterations
		}
		vlog.VI(1).Infof("run %s: %s with %d iterations", p.RunID(), b.Name, iters)

		r, err := b.Run(iters, harness.WithHeadstart(opts.headstart))
		if err != nil {
			vlog.Errorf("run %s: %s: %v", p.RunID(), b.Name, err)
		}
		p.Bench(b.Name, r, err)
	}

	if p.Footer() > 0 {
		return errFailed
	}
	return nil
}
