// Package sysinfo describes the host a stress run executes on.
//
// Whether a race can be observed at all depends on the machine: a writer
// and a reader that never run in parallel will never tear a cell. Reports
// include this description so that a run without races can be told apart
// from a run that could not have produced any.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kolkov/conctest/internal/osthread"
)

// Host is a snapshot of the parallelism available to this process.
type Host struct {
	Hostname  string
	GOOS      string
	GOARCH    string
	GoVersion string

	// NumCPU and GOMAXPROCS are what the Go runtime sees.
	NumCPU     int
	GOMAXPROCS int

	// PhysicalCores, LogicalCores and ModelName come from the operating
	// system and are zero when it could not be queried.
	PhysicalCores int
	LogicalCores  int
	ModelName     string

	// TotalMemory is in bytes.
	TotalMemory uint64

	// ThreadIDs reports whether traces carry OS thread ids.
	ThreadIDs bool
}

// Describe collects a Host. The runtime fields are always filled in; an
// error reports which operating system queries failed, and the matching
// fields are left zero.
func Describe(ctx context.Context) (Host, error) {
	h := Host{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		ThreadIDs:  osthread.Supported,
	}

	var errs []error
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	} else {
		errs = append(errs, fmt.Errorf("sysinfo: hostname: %w", err))
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		h.PhysicalCores = n
	} else {
		errs = append(errs, fmt.Errorf("sysinfo: physical cores: %w", err))
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		h.LogicalCores = n
	} else {
		errs = append(errs, fmt.Errorf("sysinfo: logical cores: %w", err))
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil {
		if len(infos) > 0 {
			h.ModelName = strings.TrimSpace(infos[0].ModelName)
		}
	} else {
		errs = append(errs, fmt.Errorf("sysinfo: cpu info: %w", err))
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.TotalMemory = vm.Total
	} else {
		errs = append(errs, fmt.Errorf("sysinfo: memory: %w", err))
	}
	return h, errors.Join(errs...)
}

// String formats h on one line, e.g.
//
//	linux/amd64 go1.24.0, 8 cpus (4 physical), GOMAXPROCS=8, Intel(R) Core(TM) i7
func (h Host) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s %s, %d cpus", h.GOOS, h.GOARCH, h.GoVersion, h.NumCPU)
	if h.PhysicalCores > 0 {
		fmt.Fprintf(&b, " (%d physical)", h.PhysicalCores)
	}
	fmt.Fprintf(&b, ", GOMAXPROCS=%d", h.GOMAXPROCS)
	if h.ModelName != "" {
		fmt.Fprintf(&b, ", %s", h.ModelName)
	}
	return b.String()
}

// Warnings lists the host properties that make races unlikely or
// impossible to observe.
func (h Host) Warnings() []string {
	var w []string
	if h.GOMAXPROCS < 2 {
		w = append(w, fmt.Sprintf("GOMAXPROCS=%d: participants cannot run in parallel, races will not be observed", h.GOMAXPROCS))
	}
	if h.NumCPU < 2 {
		w = append(w, "single CPU: participants are time-sliced, races are rare")
	} else if h.PhysicalCores == 1 {
		w = append(w, "single physical core: participants share a core, race rates will be low")
	}
	if !h.ThreadIDs {
		w = append(w, fmt.Sprintf("OS thread ids unavailable on %s: traces cannot show thread placement", h.GOOS))
	}
	return w
}
