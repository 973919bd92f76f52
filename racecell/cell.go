package racecell

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Cell is a shareable mutable container for triggering and detecting
// read-write data races in a controlled fashion.
//
// A Cell is safe for concurrent use without external locking; detecting
// unsynchronized access is its purpose. A Cell must not be copied after
// first use. Use Clone to duplicate one.
type Cell[T Scalar] struct {
	// local is one copy of the value, stored inline...
	local Word[T]

	// ...remote is the other, allocated separately and padded so that it
	// never shares a cache line with local. No realistic compiler or CPU
	// writes both copies in a single atomic transaction.
	remote *paddedWord[T]
}

type paddedWord[T Scalar] struct {
	_ cpu.CacheLinePad
	w Word[T]
	_ cpu.CacheLinePad
}

// New returns a Cell holding value.
func New[T Scalar](value T) *Cell[T] {
	c := &Cell[T]{remote: new(paddedWord[T])}
	c.local.Store(value)
	c.remote.w.Store(value)
	return c
}

// Set updates the contents of the cell in a non-atomic fashion: the local
// copy is stored first, then the remote one, with nothing in between. A
// concurrent Get can observe the state where only the first store landed.
func (c *Cell[T]) Set(value T) {
	c.local.Store(value)
	c.remote.w.Store(value)
}

// Get reads the contents of the cell, detecting a concurrently occurring
// write along the way. The local copy is always loaded before the remote
// one.
func (c *Cell[T]) Get() Outcome[T] {
	local := c.local.Load()
	remote := c.remote.w.Load()
	if local != remote {
		return Inconsistent[T]()
	}
	return Consistent(local)
}

// Clone returns a new Cell seeded from one load of each copy.
//
// Under a concurrent writer the two loads may disagree and the clone then
// starts out inconsistent; callers must not assume it equals either copy.
func (c *Cell[T]) Clone() *Cell[T] {
	clone := &Cell[T]{remote: new(paddedWord[T])}
	clone.local.Store(c.local.Load())
	clone.remote.w.Store(c.remote.w.Load())
	return clone
}

// PointerCell is the Cell counterpart for pointer values.
//
// Pointers cannot live in a Word without hiding them from the garbage
// collector, so both copies are atomic.Pointer slots instead.
type PointerCell[V any] struct {
	local  atomic.Pointer[V]
	remote *paddedPointer[V]
}

type paddedPointer[V any] struct {
	_ cpu.CacheLinePad
	p atomic.Pointer[V]
	_ cpu.CacheLinePad
}

// NewPointer returns a PointerCell holding p.
func NewPointer[V any](p *V) *PointerCell[V] {
	c := &PointerCell[V]{remote: new(paddedPointer[V])}
	c.local.Store(p)
	c.remote.p.Store(p)
	return c
}

// Set stores p into the local copy, then into the remote one.
func (c *PointerCell[V]) Set(p *V) {
	c.local.Store(p)
	c.remote.p.Store(p)
}

// Get loads the local copy, then the remote one, and compares them.
func (c *PointerCell[V]) Get() Outcome[*V] {
	local := c.local.Load()
	remote := c.remote.p.Load()
	if local != remote {
		return Inconsistent[*V]()
	}
	return Consistent(local)
}

// Clone returns a new PointerCell seeded from one load of each copy.
func (c *PointerCell[V]) Clone() *PointerCell[V] {
	clone := &PointerCell[V]{remote: new(paddedPointer[V])}
	clone.local.Store(c.local.Load())
	clone.remote.p.Store(c.remote.p.Load())
	return clone
}
