package edicttest

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/edict/internal/canon"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()

	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// Snapshot renders a run's trace as canonical JSON. Equal runs always
// produce byte-identical snapshots, which is what makes golden comparison
// meaningful.
func Snapshot(sc *Scenario, result *Result) ([]byte, error) {
	events := make([]any, 0, len(result.Trace))
	for _, ev := range result.Trace {
		events = append(events, eventMap(ev))
	}

	snapshot := map[string]any{
		"scenario_name": sc.Name,
		"trace":         events,
	}

	if len(result.Errors) > 0 {
		snapshot["errors"] = result.Errors
	}

	return canon.Marshal(snapshot)
}

// eventMap converts a trace event to a map, omitting empty fields to keep
// the rendering minimal.
func eventMap(ev TraceEvent) map[string]any {
	m := map[string]any{
		"type": ev.Type,
		"call": ev.Call,
		"seq":  ev.Seq,
	}

	if len(ev.Args) > 0 {
		m["args"] = map[string]any(ev.Args)
	}

	if ev.Result != nil {
		m["result"] = ev.Result
	}

	if ev.Error != "" {
		m["error"] = ev.Error
	}

	return m
}

// RunGolden runs the scenario and compares its snapshot against
// testdata/golden/<name>.golden. Run tests with -update to refresh
// fixtures.
func RunGolden(ctx context.Context, t *testing.T, sc *Scenario, env Env) *Result {
	t.Helper()

	result, err := Run(ctx, sc, env)
	if err != nil {
		t.Fatalf("failed to run scenario %s: %v", sc.Name, err)
	}

	data, err := Snapshot(sc, result)
	if err != nil {
		t.Fatalf("failed to render snapshot for %s: %v", sc.Name, err)
	}

	newGoldie(t).Assert(t, sc.Name, data)

	return result
}

// AssertTranscript compares a recorder's transcript against
// testdata/golden/<name>.golden.
func AssertTranscript(t *testing.T, r *Recorder, name string) {
	t.Helper()

	data, err := r.Transcript()
	if err != nil {
		t.Fatalf("failed to render transcript: %v", err)
	}

	newGoldie(t).Assert(t, name, data)
}
