// Package stack captures and formats goroutine stack traces for failure
// reports.
//
// Traces are captured as raw program counters and only symbolized when
// formatted, so capturing stays cheap and formatting happens off the
// failing path.
//
// Usage:
//
//	defer func() {
//		if r := recover(); r != nil {
//			trace := stack.Capture(1)
//			fmt.Print(trace.Format())
//		}
//	}()
package stack

import (
	"fmt"
	"runtime"
	"strings"
)

// MaxFrames is the maximum number of frames kept in a Trace.
const MaxFrames = 32

// Trace is a captured call stack.
//
// The zero Trace is empty and formats as "(no stack trace available)".
type Trace struct {
	pcs []uintptr
}

// Capture records the stack of the calling goroutine.
//
// skip is the number of callers to omit, with 0 identifying the caller of
// Capture. Called from a deferred function during a panic, the trace
// includes the frames that panicked.
func Capture(skip int) Trace {
	pcs := make([]uintptr, MaxFrames)
	// +2 skips runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pcs)
	return Trace{pcs: pcs[:n]}
}

// Len returns the number of captured frames, runtime frames included.
func (t Trace) Len() int {
	return len(t.pcs)
}

// Frames returns the symbolized frames of the trace, without frames from
// the Go runtime (panic and goexit machinery, scheduler entry points).
func (t Trace) Frames() []runtime.Frame {
	if len(t.pcs) == 0 {
		return nil
	}

	var out []runtime.Frame
	frames := runtime.CallersFrames(t.pcs)
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !isRuntime(frame.Function) {
			out = append(out, frame)
		}
		if !more {
			break
		}
	}
	return out
}

// Format renders the trace the way the Go runtime prints goroutine stacks:
//
//	main.worker()
//	    /path/to/file.go:45
//	main.main()
//	    /path/to/file.go:30
func (t Trace) Format() string {
	frames := t.Frames()
	if len(frames) == 0 {
		return "  (no stack trace available)\n"
	}

	var buf strings.Builder
	for _, frame := range frames {
		fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", frame.Function, frame.File, frame.Line)
	}
	return buf.String()
}

func isRuntime(function string) bool {
	return strings.HasPrefix(function, "runtime.") ||
		strings.HasPrefix(function, "internal/")
}
