package edicttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/edict"
	"github.com/roach88/edict/internal/canon"
)

// Call records one dispatched operation.
type Call struct {
	// Interface is the declaring interface's name.
	Interface string

	// Op is the operation name.
	Op string

	// Args holds the intent's resolved fields, defaults included.
	Args edict.Args

	// Seq orders calls across every table built from the same Recorder.
	Seq int64
}

// Name returns the qualified operation name, e.g. "docs.put".
func (c Call) Name() string {
	return c.Interface + "." + c.Op
}

// Recorder captures every call dispatched through the tables it builds.
// One recorder can back several interfaces; the shared clock keeps a
// single ordering across all of them.
type Recorder struct {
	mu    sync.Mutex
	clock *Clock
	calls []Call
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{clock: NewClock()}
}

// Table builds a dispatch table covering every public operation of iface.
// Each performer records the call and returns results[op] with a nil
// error. Operations absent from results return nil.
func (r *Recorder) Table(iface *edict.Interface, results map[string]any) (*edict.DispatchTable, error) {
	if iface == nil {
		return nil, fmt.Errorf("edicttest: nil interface")
	}

	table := edict.NewDispatchTable()

	for _, op := range iface.Ops() {
		it, ok := iface.IntentType(op)
		if !ok {
			return nil, fmt.Errorf("edicttest: interface %s has no intent type for %q", iface.Name(), op)
		}

		canned := results[op]
		err := table.Register(it, func(ctx context.Context, in *edict.Intent) (any, error) {
			r.record(in)
			return canned, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return table, nil
}

func (r *Recorder) record(in *edict.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{
		Interface: in.Type().Interface(),
		Op:        in.Type().Op(),
		Args:      in.Fields(),
		Seq:       r.clock.Next(),
	})
}

// Calls returns every recorded call in dispatch order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the recorded calls for one qualified operation name,
// e.g. "Utils.add".
func (r *Recorder) CallsTo(name string) []Call {
	var out []Call

	for _, c := range r.Calls() {
		if c.Name() == name {
			out = append(out, c)
		}
	}

	return out
}

// Reset discards recorded calls and rewinds the clock.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
	r.clock.Reset()
}

// Transcript renders the recorded calls as canonical JSON, one event per
// line. Equal call sequences always produce byte-identical transcripts,
// which makes them suitable for golden files.
func (r *Recorder) Transcript() ([]byte, error) {
	var out []byte

	for _, c := range r.Calls() {
		line, err := canon.Marshal(map[string]any{
			"interface": c.Interface,
			"op":        c.Op,
			"args":      map[string]any(c.Args),
			"seq":       c.Seq,
		})
		if err != nil {
			return nil, fmt.Errorf("edicttest: render transcript: %w", err)
		}

		out = append(out, line...)
		out = append(out, '\n')
	}

	return out, nil
}
