package edicttest

import (
	"fmt"
	"strings"
)

// AssertionError reports a failed trace assertion. It renders the expected
// and actual findings plus the full call trace, so a failing run can be
// diagnosed from the message alone.
type AssertionError struct {
	// Type is the assertion type that failed.
	Type string

	// Expected describes what the assertion required.
	Expected string

	// Actual describes what the trace contained.
	Actual string

	// Trace holds the call events the assertion ran over.
	Trace []TraceEvent
}

func (e *AssertionError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s failed:\n", e.Type)
	fmt.Fprintf(&b, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&b, "  actual:   %s\n", e.Actual)

	if len(e.Trace) > 0 {
		b.WriteString("  trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&b, "    [%d] %s %s\n", ev.Seq, ev.Call, renderValue(map[string]any(ev.Args)))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// evaluateAssertion checks one assertion against the call events of a
// trace. The scenario validator has already rejected unknown types.
func evaluateAssertion(a Assertion, calls []TraceEvent) error {
	switch a.Type {
	case "trace_contains":
		return assertTraceContains(a, calls)
	case "trace_order":
		return assertTraceOrder(a, calls)
	case "trace_count":
		return assertTraceCount(a, calls)
	}

	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertTraceContains passes when at least one call matches the name and
// the argument subset.
func assertTraceContains(a Assertion, calls []TraceEvent) error {
	for _, ev := range calls {
		if ev.Call == a.Call && matchArgs(a.Args, ev.Args) {
			return nil
		}
	}

	expected := fmt.Sprintf("a call to %s", a.Call)
	if len(a.Args) > 0 {
		expected += " with args " + renderValue(a.Args)
	}

	return &AssertionError{
		Type:     "trace_contains",
		Expected: expected,
		Actual:   "no matching call in trace",
		Trace:    calls,
	}
}

// assertTraceOrder passes when the named calls appear in the trace in the
// given relative order. Other calls may be interleaved.
func assertTraceOrder(a Assertion, calls []TraceEvent) error {
	next := 0

	for _, ev := range calls {
		if next < len(a.Calls) && ev.Call == a.Calls[next] {
			next++
		}
	}

	if next == len(a.Calls) {
		return nil
	}

	return &AssertionError{
		Type:     "trace_order",
		Expected: fmt.Sprintf("calls in order %v", a.Calls),
		Actual:   fmt.Sprintf("matched %d of %d, stuck at %q", next, len(a.Calls), a.Calls[next]),
		Trace:    calls,
	}
}

// assertTraceCount passes when exactly Count calls match the name and the
// argument subset.
func assertTraceCount(a Assertion, calls []TraceEvent) error {
	count := 0

	for _, ev := range calls {
		if ev.Call == a.Call && matchArgs(a.Args, ev.Args) {
			count++
		}
	}

	if count == a.Count {
		return nil
	}

	return &AssertionError{
		Type:     "trace_count",
		Expected: fmt.Sprintf("%d call(s) to %s", a.Count, a.Call),
		Actual:   fmt.Sprintf("%d call(s)", count),
		Trace:    calls,
	}
}

// matchArgs reports whether every wanted argument appears in got with an
// equal value. Extra arguments in got are ignored, so assertions can pin
// just the fields they care about.
func matchArgs(want map[string]any, got map[string]any) bool {
	for k, v := range want {
		actual, ok := got[k]
		if !ok || !canonicalEqual(v, actual) {
			return false
		}
	}

	return true
}
