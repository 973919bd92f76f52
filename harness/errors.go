package harness

import (
	"fmt"

	"github.com/kolkov/conctest/internal/stack"
	"github.com/kolkov/conctest/noinline"
)

// Participant roles reported in a ParticipantError.
const (
	RoleParticipant = "participant"
	RoleAntagonist  = "antagonist"
	RoleMeasured    = "measured"
)

// ParticipantError reports an operation run by the harness that did not
// return normally.
//
// Fields:
//   - Role: RoleParticipant, RoleAntagonist or RoleMeasured
//   - Index: position of the operation in the harness call (0-based)
//   - Value: the recovered panic value, nil when Goexit is true
//   - Goexit: the operation called runtime.Goexit (t.FailNow, t.SkipNow)
//   - Stack: formatted stack of the panicking goroutine
//
// Use errors.As to extract it from the error returned by the harness:
//
//	var perr *harness.ParticipantError
//	if errors.As(err, &perr) {
//	    t.Fatalf("participant %d failed: %v\n%s", perr.Index, perr.Value, perr.Stack)
//	}
type ParticipantError struct {
	Role   string
	Index  int
	Value  any
	Goexit bool
	Stack  string
}

// Error implements the error interface.
func (e *ParticipantError) Error() string {
	who := e.Role
	if e.Role == RoleParticipant {
		who = fmt.Sprintf("%s %d", e.Role, e.Index)
	}
	if e.Goexit {
		return fmt.Sprintf("harness: %s exited its goroutine", who)
	}
	return fmt.Sprintf("harness: %s panicked: %v", who, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *ParticipantError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// invoke calls f behind an inlining barrier and stores a ParticipantError
// in *errp if f panics or exits the goroutine.
//
// errp is written from a deferred function so that the failure is recorded
// even when runtime.Goexit unwinds past invoke's caller.
func invoke(role string, index int, f func(), errp *error) {
	completed := false
	defer func() {
		if completed {
			return
		}
		if r := recover(); r != nil {
			*errp = &ParticipantError{
				Role:  role,
				Index: index,
				Value: r,
				Stack: stack.Capture(1).Format(),
			}
			return
		}
		*errp = &ParticipantError{Role: role, Index: index, Goexit: true}
	}()

	noinline.Call(f)
	completed = true
}
