// Command conctest runs the racecell and harness stress scenarios and
// micro-benchmarks against the current machine.
//
// Usage:
//
//	conctest stress [-n N] [-dump] [-stacks] [scenario...]
//	conctest bench [-n N] [-headstart D] [name...]
//	conctest sysinfo [-dump]
//	conctest version [-require vX.Y.Z] [-modfile path/to/go.mod]
//
// The exit status is non-zero when any scenario or benchmark fails.
package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"regexp"

	"golang.org/x/term"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/kolkov/conctest/internal/report"
)

var (
	verbosity int
	ascii     bool
)

// errFailed is returned when at least one check failed; the report has
// the details.
var errFailed = errors.New("one or more checks failed")

func init() {
	flag.IntVar(&verbosity, "verbosity", 0, "log verbosity level; logs go to stderr")
	flag.BoolVar(&ascii, "ascii", false, "mark results with ok/FAIL instead of check marks")
}

// withLogging configures vlog from the global flags before running fn.
func withLogging(fn func(env *cmdline.Env, args []string) error) cmdline.Runner {
	return cmdline.RunnerFunc(func(env *cmdline.Env, args []string) error {
		if err := vlog.Log.Configure(
			vlog.OverridePriorConfiguration(true),
			vlog.LogToStderr(true),
			vlog.Level(verbosity),
		); err != nil {
			return err
		}
		return fn(env, args)
	})
}

// glyphsFor picks check marks for terminals and plain words otherwise.
func glyphsFor(w io.Writer) report.Glyphs {
	if ascii {
		return report.ASCII
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return report.Unicode
	}
	return report.ASCII
}

func main() {
	cmdRoot := &cmdline.Command{
		Name:  "conctest",
		Short: "Run concurrency stress scenarios and micro-benchmarks",
		Long: `
Command conctest exercises thread synchronization code on the current machine.

The stress scenarios drive racecell cells and shared atomic words from several
OS threads released at the same instant, and check that every observed state
is one the synchronization protocol allows. The benchmarks time operations
alone and under contention from an antagonist thread.
`,
		Children: []*cmdline.Command{
			cmdStress,
			cmdBench,
			cmdSysinfo,
			cmdVersion,
		},
	}
	cmdline.HideGlobalFlagsExcept(regexp.MustCompile(`^(verbosity|ascii)$`))
	cmdline.Main(cmdRoot)
}
