// Package harness runs small, fixed sets of operations concurrently for
// testing and benchmarking synchronization code.
//
// # Concurrent tests
//
// Checking that a synchronization primitive works when used sequentially
// is not enough; concurrent interactions must be exercised too, and the
// interesting windows are often only a few nanoseconds wide. The
// ConcurrentTest functions run two or three operations on separate OS
// threads and release them from a shared barrier, so that they start as
// close to simultaneously as the scheduler allows:
//
//	err := harness.ConcurrentTest2(
//		func() {
//			for i := uint64(1); i <= writes; i++ {
//				cell.Set(i)
//			}
//		},
//		func() {
//			for last != writes {
//				if v, ok := cell.Get().Value(); ok {
//					last = v
//				}
//			}
//		},
//	)
//
// The first operations run on spawned goroutines, each locked to its own
// OS thread; the last runs on the calling goroutine. Only the start is
// synchronized. Once released, the operations run in no particular order.
//
// A participant that panics or exits its goroutine (for example through
// t.FailNow, which must not be called from spawned goroutines) is
// reported as a *ParticipantError. Failures are returned once, after
// every spawned goroutine has been joined; no goroutine outlives the call.
//
// # Benchmarks under contention
//
// The cost of a synchronization operation depends heavily on what other
// threads are doing to the same memory. RunUnderContention measures an
// operation while an "antagonist" runs in a loop on another OS thread:
//
//	result, err := harness.ConcurrentBenchmark(
//		100_000_000,
//		func() { counter.Add(1) },
//		func() { counter.Add(1) },
//	)
//	fmt.Println(result) // 812 ms (100000000 iters, ~8.12 ns/iter)
//
// The antagonist is stopped cooperatively once the measurement ends: it
// finishes its current iteration, observes the stop flag and exits before
// RunUnderContention returns.
package harness
