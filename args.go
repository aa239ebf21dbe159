package edict

import "reflect"

// Args carries the named argument values of one operation call. Keys are
// declared argument names.
type Args map[string]any

// clone returns a shallow copy.
func (a Args) clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ArgSpec describes one declared argument: its name, its Go type, and an
// optional default applied when the argument is omitted at construction.
type ArgSpec struct {
	// Name is the argument name. Required, unique within an operation.
	Name string

	// Type is the declared Go type. Values must be assignable to it.
	Type reflect.Type

	// HasDefault marks the argument optional.
	HasDefault bool

	// Default is the value applied when the argument is omitted.
	// Only meaningful when HasDefault is true.
	Default any
}

// Arg declares a required argument of type T.
func Arg[T any](name string) ArgSpec {
	return ArgSpec{Name: name, Type: reflect.TypeFor[T]()}
}

// Optional declares an argument of type T with a default value applied when
// the caller omits it.
func Optional[T any](name string, def T) ArgSpec {
	return ArgSpec{
		Name:       name,
		Type:       reflect.TypeFor[T](),
		HasDefault: true,
		Default:    def,
	}
}

// copyArgSpecs copies a spec slice. Nil stays nil.
func copyArgSpecs(specs []ArgSpec) []ArgSpec {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ArgSpec, len(specs))
	copy(out, specs)
	return out
}
