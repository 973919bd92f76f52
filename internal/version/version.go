// Package version reports the conctest version and checks version
// requirements against it.
package version

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

const (
	// ModulePath is the import path of this module.
	ModulePath = "github.com/kolkov/conctest"

	// Version is the current release, in semantic version form.
	Version = "v0.1.0"
)

var (
	// ErrInvalid is returned for strings that are not semantic versions.
	ErrInvalid = errors.New("version: invalid semantic version")

	// ErrUnsatisfied is returned when a requirement is newer than Version
	// or from another major version.
	ErrUnsatisfied = errors.New("version: requirement not satisfied")

	// ErrNotRequired is returned when a go.mod does not require this module.
	ErrNotRequired = errors.New("version: module not required")
)

// Info describes the running build.
type Info struct {
	Version   string
	GoVersion string
	Platform  string
}

// Get returns information about the running build.
func Get() Info {
	return Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats i as "conctest v0.1.0 (go1.24.0 linux/amd64)".
func (i Info) String() string {
	return fmt.Sprintf("conctest %s (%s %s)", i.Version, i.GoVersion, i.Platform)
}

// Satisfies reports whether have meets required: same major version and
// not older. For v0 both must also share the minor version, since v0
// minors may break compatibility.
func Satisfies(have, required string) error {
	if !semver.IsValid(have) {
		return fmt.Errorf("%w: %q", ErrInvalid, have)
	}
	if !semver.IsValid(required) {
		return fmt.Errorf("%w: %q", ErrInvalid, required)
	}

	compat := semver.Major(have) == semver.Major(required)
	if compat && semver.Major(have) == "v0" {
		compat = semver.MajorMinor(have) == semver.MajorMinor(required)
	}
	if !compat || semver.Compare(have, required) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrUnsatisfied, have, required)
	}
	return nil
}

// Check reports whether this build satisfies required.
func Check(required string) error {
	return Satisfies(Version, required)
}

// RequiredBy returns the version of this module required by the go.mod
// file at path.
func RequiredBy(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("version: %w", err)
	}
	return parseRequirement(path, data)
}

func parseRequirement(path string, data []byte) (string, error) {
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("version: parse %s: %w", path, err)
	}
	for _, r := range f.Require {
		if r.Mod.Path == ModulePath {
			return r.Mod.Version, nil
		}
	}
	return "", fmt.Errorf("%w: %s does not require %s", ErrNotRequired, path, ModulePath)
}
