package racecell

import (
	"math"
	"runtime"
	"sync"
	"testing"

	"github.com/kolkov/conctest/harness"
)

// A Cell should be created in a consistent and correct state.
func TestNew_InitialState(t *testing.T) {
	cell := New(true)

	if !cell.local.Load() {
		t.Error("local copy not initialized")
	}
	if !cell.remote.w.Load() {
		t.Error("remote copy not initialized")
	}
}

func TestGet_Consistent(t *testing.T) {
	cell := New(-42)

	if got := cell.Get(); got != Consistent(-42) {
		t.Errorf("Get() = %v, want Consistent(-42)", got)
	}
}

func TestGet_Inconsistent(t *testing.T) {
	cell := New(uintptr(0xbad))
	cell.local.Store(0xdead)

	if got := cell.Get(); got != Inconsistent[uintptr]() {
		t.Errorf("Get() = %v, want Inconsistent", got)
	}
}

func TestSet_UpdatesBothCopies(t *testing.T) {
	cell := New(uint16(1))
	cell.Set(65535)

	if l, r := cell.local.Load(), cell.remote.w.Load(); l != 65535 || r != 65535 {
		t.Errorf("copies = (%d, %d), want (65535, 65535)", l, r)
	}
	if v, ok := cell.Get().Value(); !ok || v != 65535 {
		t.Errorf("Get().Value() = (%d, %v), want (65535, true)", v, ok)
	}
}

// Cells are cloned as-is, even if in an inconsistent state.
func TestClone_KeepsInconsistentState(t *testing.T) {
	cell := New(uint(0xbeef))
	cell.local.Store(0xdeaf)

	clone := cell.Clone()
	if got := clone.local.Load(); got != 0xdeaf {
		t.Errorf("clone local = %#x, want 0xdeaf", got)
	}
	if got := clone.remote.w.Load(); got != 0xbeef {
		t.Errorf("clone remote = %#x, want 0xbeef", got)
	}
	if clone.Get().IsConsistent() {
		t.Error("clone of an inconsistent cell reads as consistent")
	}
}

func TestClone_RoundTrip(t *testing.T) {
	cell := New(int64(math.MinInt64))
	clone := cell.Clone()

	if got := clone.Get(); got != Consistent(int64(math.MinInt64)) {
		t.Errorf("clone Get() = %v, want Consistent(%d)", got, int64(math.MinInt64))
	}
	if clone.remote == cell.remote {
		t.Error("clone shares the remote copy with the original")
	}

	clone.Set(7)
	if got := cell.Get(); got != Consistent(int64(math.MinInt64)) {
		t.Errorf("writing the clone changed the original: %v", got)
	}
}

// Every supported scalar survives a store/load through a cell, including
// values using every bit of its width.
func TestCell_AllScalars(t *testing.T) {
	t.Run("bool", func(t *testing.T) { checkFreshAndSet(t, false, true) })
	t.Run("int8", func(t *testing.T) { checkFreshAndSet(t, int8(math.MinInt8), int8(math.MaxInt8)) })
	t.Run("int16", func(t *testing.T) { checkFreshAndSet(t, int16(math.MinInt16), int16(-1)) })
	t.Run("int32", func(t *testing.T) { checkFreshAndSet(t, int32(math.MaxInt32), int32(math.MinInt32)) })
	t.Run("int64", func(t *testing.T) { checkFreshAndSet(t, int64(-1), int64(math.MaxInt64)) })
	t.Run("int", func(t *testing.T) { checkFreshAndSet(t, math.MinInt, math.MaxInt) })
	t.Run("uint8", func(t *testing.T) { checkFreshAndSet(t, uint8(0), uint8(math.MaxUint8)) })
	t.Run("uint16", func(t *testing.T) { checkFreshAndSet(t, uint16(0x8001), uint16(math.MaxUint16)) })
	t.Run("uint32", func(t *testing.T) { checkFreshAndSet(t, uint32(0xdeadbeef), uint32(math.MaxUint32)) })
	t.Run("uint64", func(t *testing.T) { checkFreshAndSet(t, uint64(1), uint64(math.MaxUint64)) })
	t.Run("uint", func(t *testing.T) { checkFreshAndSet(t, uint(0), uint(math.MaxUint)) })
	t.Run("uintptr", func(t *testing.T) { checkFreshAndSet(t, uintptr(0x1000), ^uintptr(0)) })
}

func checkFreshAndSet[T Scalar](t *testing.T, initial, next T) {
	t.Helper()

	cell := New(initial)
	if got := cell.Get(); got != Consistent(initial) {
		t.Errorf("fresh Get() = %v, want Consistent(%v)", got, initial)
	}
	cell.Set(next)
	if got := cell.Get(); got != Consistent(next) {
		t.Errorf("Get() after Set = %v, want Consistent(%v)", got, next)
	}
	if got := cell.Clone().Get(); got != Consistent(next) {
		t.Errorf("Clone().Get() = %v, want Consistent(%v)", got, next)
	}
}

func TestWord_ZeroValue(t *testing.T) {
	var w Word[int32]
	if got := w.Load(); got != 0 {
		t.Errorf("zero Word Load() = %d, want 0", got)
	}
	if got := NewWord(int8(-3)).Load(); got != -3 {
		t.Errorf("NewWord(-3).Load() = %d", got)
	}
}

func TestPointerCell(t *testing.T) {
	a, b := new(int), new(int)

	cell := NewPointer(a)
	if got := cell.Get(); got != Consistent(a) {
		t.Errorf("fresh Get() = %v, want Consistent(a)", got)
	}

	cell.Set(b)
	if p, ok := cell.Get().Value(); !ok || p != b {
		t.Errorf("Get() after Set = (%p, %v), want (%p, true)", p, ok, b)
	}

	cell.local.Store(a)
	if cell.Get().IsConsistent() {
		t.Error("diverged pointer copies read as consistent")
	}
	clone := cell.Clone()
	if clone.local.Load() != a || clone.remote.p.Load() != b {
		t.Error("clone did not copy each pointer slot as-is")
	}

	nilCell := NewPointer[int](nil)
	if got := nilCell.Get(); got != Consistent[*int](nil) {
		t.Errorf("nil cell Get() = %v, want Consistent(nil)", got)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		name     string
		outcome  interface{ String() string }
		expected string
	}{
		{name: "consistent", outcome: Consistent(uint8(7)), expected: "Consistent(7)"},
		{name: "consistent bool", outcome: Consistent(false), expected: "Consistent(false)"},
		{name: "inconsistent", outcome: Inconsistent[int](), expected: "Inconsistent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOutcome_Value(t *testing.T) {
	if v, ok := Inconsistent[int32]().Value(); ok || v != 0 {
		t.Errorf("Inconsistent Value() = (%d, %v), want (0, false)", v, ok)
	}
	if v, ok := Consistent[int32](0).Value(); !ok || v != 0 {
		t.Errorf("Consistent(0) Value() = (%d, %v), want (0, true)", v, ok)
	}
}

func requireParallelism(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("long-running race test skipped in short mode")
	}
	if runtime.GOMAXPROCS(0) < 2 {
		t.Skip("needs GOMAXPROCS >= 2 for the writer and reader to overlap")
	}
}

// Unprotected concurrent reads and writes to a Cell must produce
// detectable races, illustrating its non-atomic nature.
func TestCell_UnprotectedRace(t *testing.T) {
	requireParallelism(t)

	const writes = 10_000_000
	cell := New(uint64(0))
	var races, lastValue uint64

	err := harness.ConcurrentTest2(
		func() {
			for i := uint64(1); i <= writes; i++ {
				cell.Set(i)
			}
		},
		func() {
			for lastValue != writes {
				if v, ok := cell.Get().Value(); ok {
					lastValue = v
				} else {
					races++
				}
			}
		},
	)
	if err != nil {
		t.Fatalf("ConcurrentTest2() error = %v", err)
	}

	t.Logf("%d races detected over %d writes", races, writes)
	if races <= writes/1000 {
		t.Errorf("Expected more than %d inconsistent reads, got %d", writes/1000, races)
	}
	if lastValue != writes {
		t.Errorf("last consistent value = %d, want %d", lastValue, writes)
	}
}

// Properly protected concurrent reads and writes to a Cell must not
// produce any detectable race.
func TestCell_ProtectedTransaction(t *testing.T) {
	requireParallelism(t)

	const writes = 1_000_000
	cell := New(uint64(0))
	var mu sync.Mutex
	var races uint64

	err := harness.ConcurrentTest2(
		func() {
			for i := uint64(1); i <= writes; i++ {
				mu.Lock()
				cell.Set(i)
				mu.Unlock()
			}
		},
		func() {
			var last uint64
			for last != writes {
				mu.Lock()
				outcome := cell.Get()
				mu.Unlock()
				if v, ok := outcome.Value(); ok {
					last = v
				} else {
					races++
				}
			}
		},
	)
	if err != nil {
		t.Fatalf("ConcurrentTest2() error = %v", err)
	}
	if races != 0 {
		t.Errorf("Expected no inconsistent reads under a mutex, got %d", races)
	}
}

func BenchmarkCell_Set(b *testing.B) {
	cell := New(uint64(0))
	for i := 0; i < b.N; i++ {
		cell.Set(uint64(i))
	}
}

func BenchmarkCell_Get(b *testing.B) {
	cell := New(uint64(1))
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = cell.Get().Value()
	}
	if !ok {
		b.Fatal("uncontended cell read as inconsistent")
	}
}
