// Package racecell provides shareable mutable containers that make data
// races in thread synchronization testing code observable.
//
// # Motivation
//
// A synchronization protocol exists to make operations that are not atomic
// in hardware, such as writing to two unrelated memory locations, appear to
// other goroutines as atomic transactions: either the operation looks done,
// or it looks like it has not started.
//
// Testing such a protocol means showing that half-done states are never
// exposed to observers. That requires an operation which is guaranteed not
// to be atomic, and whose half-done state is easy to recognize. Plain Go
// values are a poor fit: the set of operations the hardware performs
// atomically is larger than one would expect and varies with the compiler
// and the CPU.
//
// # Functionality
//
// A [Cell] holds a value of a scalar type T, but keeps two copies of it:
// one embedded in the Cell itself and one in a separately allocated,
// cache-line padded slot. [Cell.Set] writes the copies one after the other
// and [Cell.Get] reads them one after the other, so neither operation is
// atomic as a whole even though T itself could be stored atomically.
//
// When Get observes two different copies, a write was in progress during
// the read, and Get reports an [Inconsistent] [Outcome] instead of a value:
//
//	cell := racecell.New(uint64(0))
//
//	// writer goroutine
//	cell.Set(42)
//
//	// reader goroutine
//	if v, ok := cell.Get().Value(); ok {
//		use(v)
//	} else {
//		races++
//	}
//
// Wrapping every Set and Get in a correct synchronization primitive must
// bring the number of inconsistent reads down to zero; an unprotected cell
// under a concurrent writer shows a steady stream of them.
//
// # Supported types
//
// Unsynchronized concurrent access to arbitrary memory is a data race,
// which the Go memory model leaves undefined for anything wider than a
// machine word. Both copies are therefore stored through sync/atomic, and
// T is restricted to the closed [Scalar] type set. A Cell over any other
// type, a float or a struct for instance, does not compile. Pointers are
// handled by [PointerCell], built on atomic.Pointer.
//
// Go's atomic operations are sequentially consistent; there is no relaxed
// ordering to ask for. The cell relies only on the atomicity of each
// individual load and store, never on their ordering.
package racecell
