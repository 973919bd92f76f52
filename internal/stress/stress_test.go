package stress

import (
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kolkov/conctest/harness"
)

func requireParallelism(t *testing.T) {
	t.Helper()
	if runtime.GOMAXPROCS(0) < 2 {
		t.Skip("needs GOMAXPROCS >= 2")
	}
}

func TestUnprotectedRace(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running race scenario skipped in short mode")
	}
	requireParallelism(t)

	const writes = 10_000_000
	res, err := UnprotectedRace(writes)
	if err != nil {
		t.Fatalf("UnprotectedRace() error = %v", err)
	}

	t.Logf("%d torn reads out of %d (%.3f%%)", res.Inconsistent, res.Reads, 100*res.InconsistentRatio())
	if res.Inconsistent <= writes/1000 {
		t.Errorf("Expected more than %d torn reads, got %d", writes/1000, res.Inconsistent)
	}
	if res.LastValue != writes {
		t.Errorf("LastValue = %d, want %d", res.LastValue, writes)
	}
	if res.Reads < res.Inconsistent {
		t.Errorf("Reads = %d < Inconsistent = %d", res.Reads, res.Inconsistent)
	}
}

func TestUnprotectedRace_ZeroWrites(t *testing.T) {
	if _, err := UnprotectedRace(0); err == nil {
		t.Error("Expected an error for zero writes")
	}
}

func TestProtectedTransaction(t *testing.T) {
	writes := uint64(1_000_000)
	if testing.Short() {
		writes = 10_000
	}

	res, err := ProtectedTransaction(writes)
	if err != nil {
		t.Fatalf("ProtectedTransaction() error = %v", err)
	}
	if res.Inconsistent != 0 {
		t.Errorf("Inconsistent = %d, want 0", res.Inconsistent)
	}
	if res.LastValue != writes {
		t.Errorf("LastValue = %d, want %d", res.LastValue, writes)
	}
	if res.Reads == 0 {
		t.Error("reader never ran")
	}
}

func TestSwapAndFetchAdd(t *testing.T) {
	ops := uint64(1_000_000)
	if testing.Short() {
		ops = 10_000
	}

	res, err := SwapAndFetchAdd(ops)
	if err != nil {
		t.Fatalf("SwapAndFetchAdd() error = %v", err)
	}
	if res.Violations != 0 {
		t.Errorf("Violations = %d, want 0", res.Violations)
	}
	if res.Ops != ops || res.Scenario != "swap-and-fetch-add" {
		t.Errorf("Got %+v", res)
	}
}

func TestFetchAndOrXor(t *testing.T) {
	ops := uint64(1_000_000)
	if testing.Short() {
		ops = 10_000
	}

	res, err := FetchAndOrXor(ops)
	if err != nil {
		t.Fatalf("FetchAndOrXor() error = %v", err)
	}
	if res.Violations != 0 {
		t.Errorf("Violations = %d, want 0", res.Violations)
	}
}

func TestCheckMasks(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		want  bool
	}{
		{name: "zero", value: 0, want: true},
		{name: "xor group", value: xorMask, want: true},
		{name: "or group", value: orMask, want: true},
		{name: "both groups", value: xorMask | orMask, want: true},
		{name: "partial xor group", value: 0x0F00, want: false},
		{name: "partial or group", value: 0x00F0, want: false},
		{name: "high bit", value: 1 << 16, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkMasks(tt.value); got != tt.want {
				t.Errorf("checkMasks(%#x) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFetchXor(t *testing.T) {
	var a atomic.Uint64
	a.Store(0xF0F0)

	if old := fetchXor(&a, xorMask); old != 0xF0F0 {
		t.Errorf("fetchXor returned %#x, want 0xf0f0", old)
	}
	if got := a.Load(); got != 0xFFFF {
		t.Errorf("value = %#x, want 0xffff", got)
	}
}

func TestResult_InconsistentRatio(t *testing.T) {
	if got := (Result{}).InconsistentRatio(); got != 0 {
		t.Errorf("ratio with no reads = %v, want 0", got)
	}
	if got := (Result{Reads: 200, Inconsistent: 50}).InconsistentRatio(); got != 0.25 {
		t.Errorf("ratio = %v, want 0.25", got)
	}
}

func TestInvariantf(t *testing.T) {
	err := invariantf("%d bad values", 3)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Expected error to wrap ErrInvariant: %v", err)
	}
	if !strings.HasSuffix(err.Error(), ": 3 bad values") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestLookup(t *testing.T) {
	for _, s := range Scenarios() {
		got, err := Lookup(s.Name)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", s.Name, err)
			continue
		}
		if got.Name != s.Name || got.Run == nil || got.DefaultOps == 0 {
			t.Errorf("Lookup(%q) = %+v", s.Name, got)
		}
	}

	_, err := Lookup("no-such-scenario")
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("Expected ErrUnknown, got %v", err)
	}
	if !strings.Contains(err.Error(), "unprotected-race") {
		t.Errorf("Error does not list known scenarios: %v", err)
	}
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	if err != nil || len(all) != len(scenarios) {
		t.Fatalf("Select(nil) = %d scenarios, %v", len(all), err)
	}

	picked, err := Select([]string{"fetch-and-or-xor", "swap-and-fetch-add"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(picked) != 2 || picked[0].Name != "fetch-and-or-xor" || picked[1].Name != "swap-and-fetch-add" {
		t.Errorf("Select() did not keep the requested order: %v", picked)
	}

	if _, err := Select([]string{"swap-and-fetch-add", "bogus"}); !errors.Is(err, ErrUnknown) {
		t.Errorf("Expected ErrUnknown, got %v", err)
	}
}

func TestScenarios_ReturnsCopy(t *testing.T) {
	s := Scenarios()
	s[0].Name = "mutated"
	if scenarios[0].Name == "mutated" {
		t.Error("Scenarios() exposed the registry")
	}
}

func TestBenches(t *testing.T) {
	for _, b := range Benches() {
		t.Run(b.Name, func(t *testing.T) {
			if b.Contended {
				requireParallelism(t)
			}
			r, err := b.Run(1000, harness.WithHeadstart(time.Millisecond))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if r.Iterations != 1000 {
				t.Errorf("Iterations = %d, want 1000", r.Iterations)
			}
		})
	}
}

func TestSelectBenches(t *testing.T) {
	all, err := SelectBenches(nil)
	if err != nil || len(all) != len(benches) {
		t.Fatalf("SelectBenches(nil) = %d benches, %v", len(all), err)
	}
	if _, err := LookupBench("cell-set"); err != nil {
		t.Errorf("LookupBench(cell-set) error = %v", err)
	}
	if _, err := SelectBenches([]string{"nope"}); !errors.Is(err, ErrUnknown) {
		t.Errorf("Expected ErrUnknown, got %v", err)
	}
}
