package edicttest

import "github.com/roach88/edict"

// TraceEvent is one entry in a scenario's execution trace. Every flow step
// emits a call event when its effect is dispatched and a result event when
// the performer returns.
type TraceEvent struct {
	// Type is "call" or "result".
	Type string `json:"type"`

	// Call is the qualified operation name, e.g. "Utils.add".
	Call string `json:"call"`

	// Args holds the intent's resolved fields. Only set on call events.
	Args edict.Args `json:"args,omitempty"`

	// Result is the performer's return value. Only set on result events
	// that succeeded.
	Result any `json:"result,omitempty"`

	// Error carries the performer's error text when the step failed.
	Error string `json:"error,omitempty"`

	// Seq orders events across the run.
	Seq int64 `json:"seq"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every step and assertion succeeded.
	Pass bool `json:"pass"`

	// Trace lists the events in dispatch order.
	Trace []TraceEvent `json:"trace"`

	// Errors collects step failures and assertion failures, in the order
	// they occurred.
	Errors []string `json:"errors,omitempty"`
}

// NewResult returns a passing result with an empty trace.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

// AddCall appends a call event.
func (r *Result) AddCall(call string, args edict.Args, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: "call",
		Call: call,
		Args: args,
		Seq:  seq,
	})
}

// AddResult appends a result event for a step that succeeded.
func (r *Result) AddResult(call string, value any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "result",
		Call:   call,
		Result: value,
		Seq:    seq,
	})
}

// AddFailure appends a result event for a step whose performer errored.
func (r *Result) AddFailure(call string, err error, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:  "result",
		Call:  call,
		Error: err.Error(),
		Seq:   seq,
	})
}

// CallEvents filters the trace down to call events.
func (r *Result) CallEvents() []TraceEvent {
	var out []TraceEvent

	for _, ev := range r.Trace {
		if ev.Type == "call" {
			out = append(out, ev)
		}
	}

	return out
}
