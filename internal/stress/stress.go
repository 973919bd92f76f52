// Package stress holds the canned concurrency scenarios run by conctest.
//
// Each scenario drives a racecell.Cell or a shared atomic word from two or
// three OS threads through the harness, checks the invariants that must
// hold for every observed state, and reports what it saw. A scenario
// fails with an error wrapping ErrInvariant when an invariant breaks, and
// with ErrNotObserved when an expected race never showed up.
package stress

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kolkov/conctest/harness"
	"github.com/kolkov/conctest/racecell"
)

var (
	// ErrInvariant is wrapped by every error reporting a state that must
	// never be observable.
	ErrInvariant = errors.New("stress: invariant violated")

	// ErrNotObserved is returned when a scenario expecting races saw none.
	ErrNotObserved = errors.New("stress: expected race not observed")
)

// Result is what a scenario observed during one run.
type Result struct {
	Scenario string

	// Ops is the number of operations each participant performed.
	Ops uint64

	// Reads counts cell reads; Inconsistent counts the torn ones.
	Reads        uint64
	Inconsistent uint64

	// LastValue is the last consistent value the reader observed.
	LastValue uint64

	// Violations counts invariant failures across all participants.
	Violations uint64

	Skew    time.Duration
	Elapsed time.Duration
}

// InconsistentRatio returns the fraction of reads that were torn.
func (r Result) InconsistentRatio() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Inconsistent) / float64(r.Reads)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}

// UnprotectedRace has one thread write 1..writes into a cell while another
// reads it until it sees the final value, without any synchronization.
//
// Consistent reads can never go backwards: the writer always updates the
// local copy first and the reader always loads it first. Torn reads are
// expected; seeing none is reported as ErrNotObserved.
func UnprotectedRace(writes uint64) (Result, error) {
	res := Result{Scenario: "unprotected-race", Ops: writes}
	if writes == 0 {
		return res, fmt.Errorf("stress: unprotected-race needs at least one write")
	}
	cell := racecell.New(uint64(0))

	start := time.Now()
	trace, err := harness.Trace2(
		func() {
			for i := uint64(1); i <= writes; i++ {
				cell.Set(i)
			}
		},
		func() {
			for res.LastValue != writes {
				res.Reads++
				v, ok := cell.Get().Value()
				if !ok {
					res.Inconsistent++
					continue
				}
				if v < res.LastValue || v > writes {
					res.Violations++
				}
				res.LastValue = v
			}
		},
	)
	res.Elapsed = time.Since(start)
	res.Skew = trace.Skew()
	if err != nil {
		return res, err
	}

	switch {
	case res.Violations != 0:
		return res, invariantf("%d consistent reads out of order", res.Violations)
	case res.Inconsistent == 0:
		return res, fmt.Errorf("%w: 0 torn reads over %d writes", ErrNotObserved, writes)
	}
	return res, nil
}

// ProtectedTransaction runs the UnprotectedRace workload with every Set
// and Get inside the same mutex. No read may be torn.
func ProtectedTransaction(writes uint64) (Result, error) {
	res := Result{Scenario: "protected-transaction", Ops: writes}
	if writes == 0 {
		return res, fmt.Errorf("stress: protected-transaction needs at least one write")
	}
	cell := racecell.New(uint64(0))
	var mu sync.Mutex

	start := time.Now()
	trace, err := harness.Trace2(
		func() {
			for i := uint64(1); i <= writes; i++ {
				mu.Lock()
				cell.Set(i)
				mu.Unlock()
			}
		},
		func() {
			for res.LastValue != writes {
				mu.Lock()
				outcome := cell.Get()
				mu.Unlock()

				res.Reads++
				v, ok := outcome.Value()
				if !ok {
					res.Inconsistent++
					continue
				}
				if v < res.LastValue {
					res.Violations++
				}
				res.LastValue = v
			}
		},
	)
	res.Elapsed = time.Since(start)
	res.Skew = trace.Skew()
	if err != nil {
		return res, err
	}

	if res.Inconsistent != 0 {
		return res, invariantf("%d torn reads under a mutex", res.Inconsistent)
	}
	if res.Violations != 0 {
		return res, invariantf("%d reads out of order", res.Violations)
	}
	return res, nil
}

// SwapAndFetchAdd has one thread increment a shared word while another
// resets it to zero. The incrementer must always see either zero or the
// value it left behind; the resetter never sees more than ops.
func SwapAndFetchAdd(ops uint64) (Result, error) {
	res := Result{Scenario: "swap-and-fetch-add", Ops: ops}
	var atom atomic.Uint64
	var violations atomic.Uint64

	start := time.Now()
	trace, err := harness.Trace2(
		func() {
			var last uint64
			for i := uint64(0); i < ops; i++ {
				former := atom.Add(1) - 1
				if former != 0 && former != last {
					violations.Add(1)
				}
				last = former + 1
			}
		},
		func() {
			for i := uint64(0); i < ops; i++ {
				if former := atom.Swap(0); former > ops {
					violations.Add(1)
				}
			}
		},
	)
	res.Elapsed = time.Since(start)
	res.Skew = trace.Skew()
	res.Violations = violations.Load()
	if err != nil {
		return res, err
	}
	if res.Violations != 0 {
		return res, invariantf("%d unexpected values from add or swap", res.Violations)
	}
	return res, nil
}

// Masks for FetchAndOrXor. Only the low 16 bits are ever set, and each
// mask's bit group is always observed either fully set or fully clear.
const (
	lowBits = 0xFFFF
	andMask = 0x0000
	xorMask = 0x0F0F
	orMask  = 0xF0F0
)

func checkMasks(v uint64) bool {
	return v&lowBits == v &&
		(v&xorMask == xorMask || v&xorMask == 0) &&
		(v&orMask == orMask || v&orMask == 0)
}

// FetchAndOrXor runs fetch-and, fetch-or and fetch-xor loops against one
// word from three threads and checks every value each of them observed.
func FetchAndOrXor(ops uint64) (Result, error) {
	res := Result{Scenario: "fetch-and-or-xor", Ops: ops}
	var atom atomic.Uint64
	var violations atomic.Uint64

	check := func(old uint64) {
		if !checkMasks(old) {
			violations.Add(1)
		}
	}

	start := time.Now()
	trace, err := harness.Trace3(
		func() {
			for i := uint64(0); i < ops; i++ {
				check(atom.And(andMask))
			}
		},
		func() {
			for i := uint64(0); i < ops; i++ {
				check(atom.Or(orMask))
			}
		},
		func() {
			for i := uint64(0); i < ops; i++ {
				check(fetchXor(&atom, xorMask))
			}
		},
	)
	res.Elapsed = time.Since(start)
	res.Skew = trace.Skew()
	res.Violations = violations.Load()
	if err != nil {
		return res, err
	}
	if res.Violations != 0 {
		return res, invariantf("%d values with a partially set mask", res.Violations)
	}
	return res, nil
}

// fetchXor atomically xors mask into a and returns the previous value.
// sync/atomic has And and Or but no Xor.
func fetchXor(a *atomic.Uint64, mask uint64) uint64 {
	for {
		old := a.Load()
		if a.CompareAndSwap(old, old^mask) {
			return old
		}
	}
}
