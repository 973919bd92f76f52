package main

import (
	"context"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/kolkov/conctest/internal/sysinfo"
)

var sysinfoDump bool

func init() {
	cmdSysinfo.Flags.BoolVar(&sysinfoDump, "dump", false, "dump every field of the host description")
}

var cmdSysinfo = &cmdline.Command{
	Runner: withLogging(runSysinfo),
	Name:   "sysinfo",
	Short:  "Describe the parallelism available on this host",
	Long: `
Prints the CPU and scheduler configuration the stress scenarios will run with,
and warns about settings under which races cannot be observed.
`,
}

func runSysinfo(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("sysinfo takes no arguments")
	}
	return sysinfoRun(env.Stdout, sysinfoDump)
}

//nolint:errcheck // Command output
func sysinfoRun(w io.Writer, dump bool) error {
	host, err := sysinfo.Describe(context.Background())
	if err != nil {
		vlog.Errorf("host description incomplete: %v", err)
	}

	fmt.Fprintln(w, host)
	for _, warning := range host.Warnings() {
		fmt.Fprintf(w, "WARNING: %s\n", warning)
	}
	if dump {
		spew.Fdump(w, host)
	}
	return nil
}
