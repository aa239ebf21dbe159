// Package edict turns declared service interfaces into effects-as-data
// plumbing: validated intent records, pure effect factories, and type-keyed
// dispatch to provider methods.
//
// The pipeline has three stages. Declare an interface as data:
//
//	utils := edict.Declare("Utils",
//		edict.Op("add", edict.Arg[int]("a"), edict.Arg[int]("b")),
//		edict.Op("concat", edict.Arg[string]("a"), edict.Arg[string]("b")),
//	)
//
// Compile it. Compilation validates the declaration atomically and mints a
// fresh intent type per public operation; the *IntentType pointer is the
// dispatch key, so separate compilations never collide:
//
//	iface, err := edict.Compile(utils)
//
// Build effects with the operation factories and route them through a
// dispatch table bound to a live provider:
//
//	table, err := edict.NewDispatcher(edict.Bind(iface, &utilsProvider{}))
//	eff, err := iface.MustFactory("add").New(edict.Args{"a": 12, "b": 23})
//	sum, err := edict.Perform(ctx, table, eff)
//
// Effects are inert values until performed, so computations can build and
// return them without touching the outside world; only Perform reaches the
// provider. Everything is synchronous and single-goroutine: compiled
// interfaces and finished dispatch tables are read-only and safe to share,
// while table construction is not.
package edict
