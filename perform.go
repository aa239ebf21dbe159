package edict

import "context"

// Perform routes an effect through a dispatch table and runs its performer
// synchronously, returning the performer's result. An effect whose intent
// type has no route fails with *UnhandledEffectError; the zero Effect is
// always unhandled.
func Perform(ctx context.Context, table *DispatchTable, eff Effect) (any, error) {
	in := eff.intent
	if in == nil {
		return nil, &UnhandledEffectError{}
	}
	if table == nil {
		return nil, &UnhandledEffectError{IntentType: in.itype}
	}
	p, ok := table.performers[in.itype]
	if !ok {
		return nil, &UnhandledEffectError{IntentType: in.itype}
	}
	return p(ctx, in)
}
