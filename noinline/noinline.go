// Package noinline provides inlining barriers for function calls.
//
// Inlining is great for optimization, but in micro-benchmarks and
// multi-threaded validation it lets the compiler see that an operation is
// only called once from a given site, or that its result is unused, and
// fold it away. Routing the call through one of these functions keeps the
// call in place without touching the function being called.
package noinline

import "runtime"

// Call invokes f behind a call boundary the compiler cannot inline.
//
//go:noinline
func Call(f func()) {
	f()
}

// Eval invokes f behind a call boundary the compiler cannot inline and
// returns its result.
//
//go:noinline
func Eval[R any](f func() R) R {
	return f()
}

// Sink consumes v so that the computation producing it cannot be
// eliminated as dead code.
//
//go:noinline
func Sink[T any](v T) {
	runtime.KeepAlive(v)
}
