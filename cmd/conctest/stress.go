package main

import (
	"context"
	"io"

	"github.com/davecgh/go-spew/spew"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/kolkov/conctest/internal/report"
	"github.com/kolkov/conctest/internal/stress"
	"github.com/kolkov/conctest/internal/sysinfo"
)

var (
	stressOps    uint64
	stressDump   bool
	stressStacks bool
)

func init() {
	cmdStress.Flags.Uint64Var(&stressOps, "n", 0, "operations per participant; 0 uses each scenario's default")
	cmdStress.Flags.BoolVar(&stressDump, "dump", false, "dump every field of each scenario result")
	cmdStress.Flags.BoolVar(&stressStacks, "stacks", false, "print the stack of a panicking participant")
}

var cmdStress = &cmdline.Command{
	Runner: withLogging(runStress),
	Name:   "stress",
	Short:  "Run stress scenarios",
	Long: `
Runs the named stress scenarios, or all of them, and reports what each one
observed. A scenario fails when a state that must never be visible was seen,
or when an expected race never showed up.
`,
	ArgsName: "[scenario ...]",
	ArgsLong: "[scenario ...] are scenario names; with none, every scenario runs.",
}

type stressOptions struct {
	ops    uint64
	dump   bool
	stacks bool
	glyphs report.Glyphs
}

func runStress(env *cmdline.Env, args []string) error {
	scenarios, err := stress.Select(args)
	if err != nil {
		return env.UsageErrorf("%v", err)
	}
	return stressRun(env.Stdout, scenarios, stressOptions{
		ops:    stressOps,
		dump:   stressDump,
		stacks: stressStacks,
		glyphs: glyphsFor(env.Stdout),
	})
}

func stressRun(w io.Writer, scenarios []stress.Scenario, opts stressOptions) error {
	host, err := sysinfo.Describe(context.Background())
	if err != nil {
		vlog.VI(1).Infof("host description incomplete: %v", err)
	}

	p := report.New(w, report.WithGlyphs(opts.glyphs), report.WithStacks(opts.stacks))
	vlog.Infof("run %s: %d scenario(s) on %s", p.RunID(), len(scenarios), host)
	p.Header(host)

	for _, s := range scenarios {
		ops := opts.ops
		if ops == 0 {
			ops = s.DefaultOps
		}
		vlog.VI(1).Infof("run %s: %s with %d ops", p.RunID(), s.Name, ops)

		res, err := s.Run(ops)
		if err != nil {
			vlog.Errorf("run %s: %s: %v", p.RunID(), s.Name, err)
		}
		p.Scenario(res, err)
		if opts.dump {
			spew.Fdump(w, res)
		}
	}

	if p.Footer() > 0 {
		return errFailed
	}
	return nil
}
