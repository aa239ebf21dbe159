// Package edicttest drives effect pipelines in tests.
//
// Three styles are supported, from strictest to loosest:
//
// Sequence matching pins the exact order of performed effects. Each step
// names the intent it expects and the handler that answers it; any
// mismatch, overrun, or leftover step fails loudly with a *SequenceError:
//
//	err := edicttest.PerformSequence(ctx, []edicttest.Step{
//		edicttest.Expect(addIntent, func(ctx context.Context, args edict.Args) (any, error) {
//			return 35, nil
//		}),
//	}, computation)
//
// A Recorder builds dispatch tables whose performers log every call and
// return canned results, for after-the-fact assertions and golden
// transcripts.
//
// Scenario files describe flows in YAML, run against live providers, and
// check trace assertions or golden snapshots.
//
// Clock, UUIDs, FixedIDs, and SeededIDs keep runs deterministic.
package edicttest
