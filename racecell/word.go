package racecell

import (
	"sync/atomic"
	"unsafe"
)

// Scalar is the closed set of value types a Cell can hold.
//
// Every member fits in a single 64-bit word and compares equal bit for
// bit, which keeps comparisons of independently loaded copies meaningful.
// The set deliberately lists exact types: named types, floats, strings and
// aggregates are rejected at compile time.
type Scalar interface {
	bool |
		int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint | uintptr
}

// Atomic is the load/store capability a cell slot provides.
//
// Each call must be a single hardware-atomic operation. Nothing beyond the
// atomicity of that one operation is relied upon.
type Atomic[T any] interface {
	Load() T
	Store(T)
}

var (
	_ Atomic[int64] = (*Word[int64])(nil)
	_ Atomic[*int]  = (*atomic.Pointer[int])(nil)
)

// Word is an atomically accessed slot for one Scalar value.
//
// The value is kept in the low-addressed bytes of a 64-bit atomic word, so
// every width is loaded and stored in one operation. The zero Word holds
// the zero value of T.
type Word[T Scalar] struct {
	bits atomic.Uint64
}

// NewWord returns a Word holding v.
func NewWord[T Scalar](v T) *Word[T] {
	w := new(Word[T])
	w.Store(v)
	return w
}

// Load atomically loads the value.
func (w *Word[T]) Load() T {
	return fromBits[T](w.bits.Load())
}

// Store atomically stores v.
func (w *Word[T]) Store(v T) {
	w.bits.Store(toBits(v))
}

// toBits places v at the start of a zeroed word. Reading it back through
// the same type recovers v on either byte order.
func toBits[T Scalar](v T) uint64 {
	var bits uint64
	*(*T)(unsafe.Pointer(&bits)) = v
	return bits
}

func fromBits[T Scalar](bits uint64) T {
	return *(*T)(unsafe.Pointer(&bits))
}
