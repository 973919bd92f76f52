package harness

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/conctest/internal/rendezvous"
	"github.com/kolkov/conctest/noinline"
)

// RunUnderContention runs measured once on the calling goroutine while
// antagonist runs in a loop on another OS thread, and returns measured's
// result.
//
// Flow:
//  1. Start the antagonist goroutine and meet it at a barrier
//  2. Wait until it has completed one iteration, then for the headstart
//  3. Run measured
//  4. Clear the run flag and join the antagonist
//
// The run flag is polled between antagonist iterations, so a long
// iteration delays the return by up to its own duration. Antagonist
// results are discarded; panics on either side are reported as
// *ParticipantError once the antagonist has been joined.
func RunUnderContention[R any](antagonist func(), measured func() R, opts ...Option) (R, error) {
	cfg := newConfig(opts)

	start := rendezvous.New(2)
	var running atomic.Bool
	running.Store(true)

	ready := make(chan struct{})
	signalReady := sync.OnceFunc(func() { close(ready) })

	var (
		g             errgroup.Group
		iterations    uint64
		antagonistErr error
	)
	g.Go(func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		// Unblocks the caller even if the first iteration fails.
		defer signalReady()

		start.Wait()
		invoke(RoleAntagonist, 0, func() {
			for running.Load() {
				noinline.Call(antagonist)
				iterations++
				if iterations == 1 {
					signalReady()
				}
			}
		}, &antagonistErr)
		return antagonistErr
	})

	stopped := false
	stop := func() error {
		stopped = true
		running.Store(false)
		err := g.Wait()
		if err == nil {
			// Goexit bypasses the errgroup's error path.
			err = antagonistErr
		}
		if cfg.count != nil {
			*cfg.count = iterations
		}
		return err
	}
	defer func() {
		if !stopped {
			_ = stop()
		}
	}()

	start.Wait()
	<-ready
	if cfg.headstart > 0 {
		time.Sleep(cfg.headstart)
	}

	var (
		result      R
		measuredErr error
	)
	invoke(RoleMeasured, 1, func() {
		result = noinline.Eval(measured)
	}, &measuredErr)

	return result, errors.Join(measuredErr, stop())
}
