package harness

import (
	"errors"
	"runtime"
	"time"

	"github.com/kolkov/conctest/internal/osthread"
	"github.com/kolkov/conctest/internal/rendezvous"
)

// Trace describes how the participants of a concurrent test started.
//
// Index i describes the i-th function passed to the harness. The last
// index is always the calling goroutine.
type Trace struct {
	// Starts holds the time each participant was released from the
	// start barrier, taken right before its function was called.
	Starts []time.Time

	// Threads holds the OS thread id each participant ran on, or 0 where
	// thread ids are not supported.
	Threads []int
}

// Skew returns the largest difference between two participants' start
// times.
func (t Trace) Skew() time.Duration {
	if len(t.Starts) == 0 {
		return 0
	}
	earliest, latest := t.Starts[0], t.Starts[0]
	for _, s := range t.Starts[1:] {
		if s.Before(earliest) {
			earliest = s
		}
		if s.After(latest) {
			latest = s
		}
	}
	return latest.Sub(earliest)
}

// ConcurrentTest2 runs f1 and f2 concurrently.
//
// f1 runs on a new goroutine locked to its own OS thread, f2 on the
// calling goroutine; both are released from a common barrier. The returned
// error joins one *ParticipantError per function that failed, and is only
// returned once f1's goroutine has exited.
func ConcurrentTest2(f1, f2 func()) error {
	_, err := run(f1, f2)
	return err
}

// ConcurrentTest3 is ConcurrentTest2 for three functions. f1 and f2 run
// on new goroutines, f3 on the calling goroutine.
func ConcurrentTest3(f1, f2, f3 func()) error {
	_, err := run(f1, f2, f3)
	return err
}

// Trace2 is ConcurrentTest2, also reporting when and where each
// participant started.
func Trace2(f1, f2 func()) (Trace, error) {
	return run(f1, f2)
}

// Trace3 is ConcurrentTest3, also reporting when and where each
// participant started.
func Trace3(f1, f2, f3 func()) (Trace, error) {
	return run(f1, f2, f3)
}

// run executes fns with a synchronized start. fns[:n-1] run on spawned
// goroutines, fns[n-1] on the caller.
//
// Each spawned goroutine writes only its own index of trace and errs, and
// the caller reads them only after joining it.
func run(fns ...func()) (Trace, error) {
	n := len(fns)
	start := rendezvous.New(n)
	trace := Trace{
		Starts:  make([]time.Time, n),
		Threads: make([]int, n),
	}
	errs := make([]error, n)

	done := make([]chan struct{}, 0, n-1)
	for i := 0; i < n-1; i++ {
		ch := make(chan struct{})
		done = append(done, ch)
		go func(i int) {
			defer close(ch)
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			arrive(start, &trace, i)
			invoke(RoleParticipant, i, fns[i], &errs[i])
		}(i)
	}

	joined := false
	defer func() {
		// The caller's function exited its goroutine: still join every
		// participant before the caller unwinds.
		if !joined {
			join(done)
		}
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	last := n - 1
	arrive(start, &trace, last)
	invoke(RoleParticipant, last, fns[last], &errs[last])

	join(done)
	joined = true
	return trace, errors.Join(errs...)
}

// arrive waits at the start barrier and records the release.
func arrive(start *rendezvous.Barrier, trace *Trace, i int) {
	start.Wait()
	trace.Starts[i] = time.Now()
	trace.Threads[i] = osthread.ID()
}

// join waits for spawned participants in index order.
func join(done []chan struct{}) {
	for _, ch := range done {
		<-ch
	}
}
