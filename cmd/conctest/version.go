package main

import (
	"fmt"
	"io"

	"v.io/x/lib/cmdline"

	"github.com/kolkov/conctest/internal/version"
)

var (
	versionRequire string
	versionModfile string
)

func init() {
	cmdVersion.Flags.StringVar(&versionRequire, "require", "", "fail unless this build satisfies the given version")
	cmdVersion.Flags.StringVar(&versionModfile, "modfile", "", "fail unless this build satisfies the version required by the given go.mod")
}

var cmdVersion = &cmdline.Command{
	Runner: withLogging(runVersion),
	Name:   "version",
	Short:  "Print the version and check requirements against it",
	Long: `
Prints the conctest version. With -require or -modfile, also checks that this
build is compatible with the requested version: same major version (and same
minor version for v0), and not older.
`,
}

func runVersion(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("version takes no arguments")
	}
	if versionRequire != "" && versionModfile != "" {
		return env.UsageErrorf("-require and -modfile are mutually exclusive")
	}
	return versionRun(env.Stdout, versionRequire, versionModfile)
}

//nolint:errcheck // Command output
func versionRun(w io.Writer, require, modfile string) error {
	fmt.Fprintln(w, version.Get())

	if modfile != "" {
		v, err := version.RequiredBy(modfile)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s requires %s\n", modfile, v)
		require = v
	}
	if require == "" {
		return nil
	}
	if err := version.Check(require); err != nil {
		return err
	}
	fmt.Fprintf(w, "satisfies %s\n", require)
	return nil
}
