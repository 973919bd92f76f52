package stress

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is returned by Lookup and LookupBench for names that are not
// registered.
var ErrUnknown = errors.New("stress: unknown name")

// Scenario is a named, runnable stress scenario.
type Scenario struct {
	Name        string
	Description string

	// DefaultOps is the per-participant operation count used when the
	// caller does not pick one.
	DefaultOps uint64

	Run func(ops uint64) (Result, error)
}

var scenarios = []Scenario{
	{
		Name:        "unprotected-race",
		Description: "unsynchronized cell writer and reader; torn reads expected",
		DefaultOps:  10_000_000,
		Run:         UnprotectedRace,
	},
	{
		Name:        "protected-transaction",
		Description: "cell writer and reader under one mutex; no torn reads",
		DefaultOps:  1_000_000,
		Run:         ProtectedTransaction,
	},
	{
		Name:        "swap-and-fetch-add",
		Description: "atomic add racing atomic swap-to-zero",
		DefaultOps:  10_000_000,
		Run:         SwapAndFetchAdd,
	},
	{
		Name:        "fetch-and-or-xor",
		Description: "atomic and/or/xor on one word from three threads",
		DefaultOps:  3_000_000,
		Run:         FetchAndOrXor,
	},
}

// Scenarios returns every registered scenario in registration order.
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Lookup returns the scenario registered under name.
func Lookup(name string) (Scenario, error) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: scenario %q (have %v)", ErrUnknown, name, names(scenarios, func(s Scenario) string { return s.Name }))
}

// Select resolves names to scenarios, or returns every scenario when
// names is empty.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Scenarios(), nil
	}
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		s, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	sort.Strings(out)
	return out
}
