// Package rendezvous implements a reusable barrier for a fixed number of
// goroutines.
//
// All parties block in Wait until the last one arrives, then all are
// released together. The barrier resets itself afterwards, so the same
// parties can meet again.
//
// There is no timeout: if a party never arrives, the others block forever.
package rendezvous

import "sync"

// Barrier is a rendezvous point for a fixed number of parties.
//
// Thread Safety: Safe for concurrent use by its parties.
type Barrier struct {
	mu   sync.Mutex
	cond sync.Cond

	parties int
	arrived int

	// generation is bumped every time the barrier trips. Waiters sleep
	// until it moves past the value they arrived with, which makes
	// spurious wakeups and back-to-back rounds harmless.
	generation uint64
}

// New returns a Barrier for the given number of parties.
//
// Panics if parties < 1.
func New(parties int) *Barrier {
	if parties < 1 {
		panic("rendezvous: barrier needs at least one party")
	}
	b := &Barrier{parties: parties}
	b.cond.L = &b.mu
	return b
}

// Parties returns the number of parties the barrier waits for.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all parties have called Wait, then releases them.
//
// Exactly one party per round, the last one to arrive, gets true.
func (b *Barrier) Wait() (leader bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return true
	}

	for gen == b.generation {
		b.cond.Wait()
	}
	return false
}
