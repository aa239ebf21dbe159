package edict

// Effect is an opaque envelope around one intent, fit for handing to a
// runtime. Consumers route effects by intent type and otherwise leave the
// payload alone. The zero Effect wraps nothing and cannot be performed.
type Effect struct {
	intent *Intent
}

// NewEffect wraps an already-built intent.
func NewEffect(in *Intent) Effect {
	return Effect{intent: in}
}

// Intent returns the wrapped intent, nil for the zero Effect.
func (e Effect) Intent() *Intent { return e.intent }

// Type returns the wrapped intent's type, nil for the zero Effect.
func (e Effect) Type() *IntentType {
	if e.intent == nil {
		return nil
	}
	return e.intent.itype
}

// String implements fmt.Stringer.
func (e Effect) String() string {
	if e.intent == nil {
		return "Effect<empty>"
	}
	return "Effect<" + e.intent.String() + ">"
}

// Factory builds effects for one public operation. Factories are pure: each
// call validates its arguments against the operation's specs and returns a
// fresh effect, touching nothing else.
//
// The zero Factory is unusable; obtain factories from a compiled Interface.
type Factory struct {
	it *IntentType
}

// IntentType returns the operation's intent type.
func (f Factory) IntentType() *IntentType { return f.it }

// New validates args and returns the operation's effect. Failures surface
// the underlying *FieldError from intent construction.
func (f Factory) New(args Args) (Effect, error) {
	in, err := f.it.New(args)
	if err != nil {
		return Effect{}, err
	}
	return Effect{intent: in}, nil
}

// Must is New, panicking on error.
func (f Factory) Must(args Args) Effect {
	eff, err := f.New(args)
	if err != nil {
		panic(err)
	}
	return eff
}
