package edicttest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/edict"
)

// Handler answers one matched effect. It receives the intent's resolved
// fields and returns the value the computation under test will see.
type Handler func(ctx context.Context, args edict.Args) (any, error)

// Step pairs an expected effect with the handler that answers it. Build
// steps with Expect or ExpectType.
type Step struct {
	intent *edict.Intent
	itype  *edict.IntentType
	handle Handler
}

// Expect builds a step that matches one exact intent: same intent type and
// equal field values.
func Expect(in *edict.Intent, handle Handler) Step {
	return Step{intent: in, handle: handle}
}

// ExpectType builds a step that matches any intent of the given type,
// regardless of field values. The handler can inspect the fields it is
// given.
func ExpectType(it *edict.IntentType, handle Handler) Step {
	return Step{itype: it, handle: handle}
}

func (s Step) describe() string {
	if s.intent != nil {
		return s.intent.String()
	}

	if s.itype != nil {
		return "any " + s.itype.String()
	}

	return "invalid step"
}

// Sequence consumes performed effects in declared order. Every effect must
// match the next unconsumed step; anything else fails with a
// *SequenceError. A Sequence is not safe for concurrent use, matching the
// synchronous perform model.
type Sequence struct {
	steps    []Step
	next     int
	consumed []string
}

// NewSequence builds a sequence over the given steps.
func NewSequence(steps ...Step) *Sequence {
	return &Sequence{steps: steps}
}

// Perform matches eff against the next step and runs its handler. It has
// the same shape as edict.Perform with the table bound in, so computations
// can take it as their perform callback.
func (s *Sequence) Perform(ctx context.Context, eff edict.Effect) (any, error) {
	in := eff.Intent()
	if in == nil {
		return nil, &SequenceError{
			Type:     "sequence_mismatch",
			Expected: s.expectedNow(),
			Actual:   "empty effect",
			Trace:    s.Consumed(),
		}
	}

	if s.next >= len(s.steps) {
		return nil, &SequenceError{
			Type:     "sequence_overrun",
			Expected: "no more effects",
			Actual:   in.String(),
			Trace:    s.Consumed(),
		}
	}

	step := s.steps[s.next]
	if !step.matches(in) {
		return nil, &SequenceError{
			Type:     "sequence_mismatch",
			Expected: step.describe(),
			Actual:   in.String(),
			Trace:    s.Consumed(),
		}
	}

	s.next++
	s.consumed = append(s.consumed, in.String())

	if step.handle == nil {
		return nil, nil
	}

	return step.handle(ctx, in.Fields())
}

func (s Step) matches(in *edict.Intent) bool {
	if s.intent != nil {
		return s.intent.Equal(in)
	}

	return s.itype != nil && s.itype == in.Type()
}

func (s *Sequence) expectedNow() string {
	if s.next >= len(s.steps) {
		return "no more effects"
	}

	return s.steps[s.next].describe()
}

// Verify fails if any step was never consumed. Call it after the
// computation finishes; PerformSequence does this automatically.
func (s *Sequence) Verify() error {
	if s.next >= len(s.steps) {
		return nil
	}

	return &SequenceError{
		Type:     "sequence_incomplete",
		Expected: fmt.Sprintf("%d more effect(s), next %s", len(s.steps)-s.next, s.steps[s.next].describe()),
		Actual:   "computation finished",
		Trace:    s.Consumed(),
	}
}

// Remaining reports how many steps are still unconsumed.
func (s *Sequence) Remaining() int {
	return len(s.steps) - s.next
}

// Consumed returns the rendered intents matched so far, in order.
func (s *Sequence) Consumed() []string {
	out := make([]string, len(s.consumed))
	copy(out, s.consumed)
	return out
}

// Dispatcher exposes the sequence as a dispatch table for code that
// performs through edict.Perform rather than a callback. Steps sharing an
// intent type share one performer; order is still enforced per effect.
func (s *Sequence) Dispatcher() (*edict.DispatchTable, error) {
	table := edict.NewDispatchTable()
	seen := make(map[*edict.IntentType]bool)

	for _, step := range s.steps {
		it := step.itype
		if step.intent != nil {
			it = step.intent.Type()
		}

		if it == nil || seen[it] {
			continue
		}
		seen[it] = true

		err := table.Register(it, func(ctx context.Context, in *edict.Intent) (any, error) {
			return s.Perform(ctx, edict.NewEffect(in))
		})
		if err != nil {
			return nil, err
		}
	}

	return table, nil
}

// PerformFunc executes one effect. Sequence.Perform satisfies it, as does
// a closure over edict.Perform and a dispatch table.
type PerformFunc func(ctx context.Context, eff edict.Effect) (any, error)

// PerformSequence runs computation with a perform callback that enforces
// the step order, then verifies every step was consumed. The computation's
// own error wins over an incomplete-sequence error.
func PerformSequence(ctx context.Context, steps []Step, computation func(ctx context.Context, perform PerformFunc) error) error {
	seq := NewSequence(steps...)

	if err := computation(ctx, seq.Perform); err != nil {
		return err
	}

	return seq.Verify()
}

// SequenceError reports an out-of-order, unexpected, or missing effect.
type SequenceError struct {
	// Type is one of sequence_mismatch, sequence_overrun, or
	// sequence_incomplete.
	Type string

	// Expected describes what the sequence was waiting for.
	Expected string

	// Actual describes what arrived instead.
	Actual string

	// Trace lists the effects consumed before the failure, in order.
	Trace []string
}

func (e *SequenceError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s:\n", e.Type)
	fmt.Fprintf(&b, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&b, "  actual:   %s\n", e.Actual)

	if len(e.Trace) > 0 {
		b.WriteString("  consumed so far:\n")
		for i, line := range e.Trace {
			fmt.Fprintf(&b, "    [%d] %s\n", i, line)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// AsSequenceError unwraps err as a *SequenceError.
func AsSequenceError(err error) (*SequenceError, bool) {
	var se *SequenceError
	ok := errors.As(err, &se)
	return se, ok
}
