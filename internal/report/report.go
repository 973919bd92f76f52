// Package report formats the results of a conctest run.
//
// The output is a banner-delimited text report:
//
//	==================
//	conctest run 6f1c2a9e-8e0b-4a57-9c51-0e8e3f2b7d44
//	host: linux/amd64 go1.24.0, 8 cpus (4 physical), GOMAXPROCS=8
//	==================
//	✓ unprotected-race: 10000000 writes, 48213 of 9817340 reads torn (0.491%), skew 21µs, 1204 ms
//	✓ protected-transaction: 1000000 writes, 0 of 511203 reads torn, skew 17µs, 96 ms
//	==================
//	✓ All 2 checks passed.
//	==================
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kolkov/conctest/harness"
	"github.com/kolkov/conctest/internal/stress"
	"github.com/kolkov/conctest/internal/sysinfo"
)

const banner = "=================="

// Glyphs marks passing and failing lines.
type Glyphs struct {
	Pass, Fail string
}

var (
	// Unicode is used on terminals.
	Unicode = Glyphs{Pass: "✓", Fail: "✗"}

	// ASCII is used when writing to files and pipes.
	ASCII = Glyphs{Pass: "ok", Fail: "FAIL"}
)

// Printer writes a report. It is safe for concurrent use; each call writes
// its lines without interleaving.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	glyphs Glyphs
	runID  uuid.UUID

	stacks bool

	passed, failed int
}

// Option configures a Printer.
type Option func(*Printer)

// WithGlyphs selects the pass/fail markers.
func WithGlyphs(g Glyphs) Option {
	return func(p *Printer) { p.glyphs = g }
}

// WithRunID fixes the run id instead of generating a random one.
func WithRunID(id uuid.UUID) Option {
	return func(p *Printer) { p.runID = id }
}

// WithStacks includes the stack of a panicking participant in failures.
func WithStacks(on bool) Option {
	return func(p *Printer) { p.stacks = on }
}

// New returns a Printer writing to w.
func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, glyphs: Unicode}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == uuid.Nil {
		p.runID = uuid.New()
	}
	return p
}

// RunID identifies this run in logs and reports.
func (p *Printer) RunID() uuid.UUID {
	return p.runID
}

// Header writes the opening banner with the run id and host description,
// followed by any host warnings.
//
//nolint:errcheck // Report output
func (p *Printer) Header(h sysinfo.Host) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, banner)
	fmt.Fprintf(p.w, "conctest run %s\n", p.runID)
	fmt.Fprintf(p.w, "host: %s\n", h)
	for _, w := range h.Warnings() {
		fmt.Fprintf(p.w, "WARNING: %s\n", w)
	}
	fmt.Fprintln(p.w, banner)
}

// Scenario writes one line for a finished scenario, and the failure
// details when err is non-nil.
//
//nolint:errcheck // Report output
func (p *Printer) Scenario(res stress.Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	glyph := p.record(err)
	fmt.Fprintf(p.w, "%s %s: %s\n", glyph, res.Scenario, describe(res))
	if err != nil {
		p.writeFailure(err)
	}
}

// Bench writes one line for a finished benchmark.
//
//nolint:errcheck // Report output
func (p *Printer) Bench(name string, r harness.Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	glyph := p.record(err)
	fmt.Fprintf(p.w, "%s %s: %s\n", glyph, name, r)
	if err != nil {
		p.writeFailure(err)
	}
}

// Footer writes the closing summary and returns the number of failures
// recorded so far.
//
//nolint:errcheck // Report output
func (p *Printer) Footer() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.passed + p.failed
	fmt.Fprintln(p.w, banner)
	if p.failed == 0 {
		fmt.Fprintf(p.w, "%s All %d %s passed.\n", p.glyphs.Pass, total, plural(total, "check", "checks"))
	} else {
		fmt.Fprintf(p.w, "WARNING: %d of %d %s failed!\n", p.failed, total, plural(total, "check", "checks"))
	}
	fmt.Fprintln(p.w, banner)
	return p.failed
}

// Failed returns the number of failures recorded so far.
func (p *Printer) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *Printer) record(err error) string {
	if err != nil {
		p.failed++
		return p.glyphs.Fail
	}
	p.passed++
	return p.glyphs.Pass
}

//nolint:errcheck // Report output
func (p *Printer) writeFailure(err error) {
	fmt.Fprintf(p.w, "    %v\n", err)
	if !p.stacks {
		return
	}
	var perr *harness.ParticipantError
	if errors.As(err, &perr) && perr.Stack != "" {
		fmt.Fprint(p.w, perr.Stack)
	}
}

// describe summarizes what a scenario observed. Cell scenarios report
// reads; atomic ones report operations and violations.
func describe(res stress.Result) string {
	var s string
	if res.Reads > 0 {
		s = fmt.Sprintf("%d writes, %d of %d reads torn", res.Ops, res.Inconsistent, res.Reads)
		if res.Inconsistent > 0 {
			s += fmt.Sprintf(" (%.3f%%)", 100*res.InconsistentRatio())
		}
	} else {
		s = fmt.Sprintf("%d ops, %d violations", res.Ops, res.Violations)
	}
	return fmt.Sprintf("%s, skew %v, %d ms", s, res.Skew.Round(time.Microsecond), res.Elapsed.Milliseconds())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
