package edict

import (
	"fmt"
	"reflect"

	"github.com/roach88/edict/internal/canon"
)

// IntentType is the synthesized record type for one public operation. It is
// the dispatch key: routing matches on the *IntentType pointer itself, never
// on names. Compiling the same declaration twice yields distinct pointers,
// so intents from one compilation are strangers to another's dispatch table.
type IntentType struct {
	iface string
	op    string
	specs []ArgSpec
	index map[string]int
}

// newIntentType builds the descriptor for one operation. Specs are copied;
// the declaration stays free to mutate its own slices afterwards.
func newIntentType(iface string, op OpDecl) *IntentType {
	specs := copyArgSpecs(op.Args)
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}
	return &IntentType{iface: iface, op: op.Name, specs: specs, index: index}
}

// Interface returns the declaring interface name.
func (it *IntentType) Interface() string { return it.iface }

// Op returns the operation name.
func (it *IntentType) Op() string { return it.op }

// Name returns the diagnostic name "Interface.op". Two live intent types may
// share a Name; only the pointer is identity.
func (it *IntentType) Name() string { return it.iface + "." + it.op }

// ArgSpecs returns a copy of the declared argument specifications.
func (it *IntentType) ArgSpecs() []ArgSpec { return copyArgSpecs(it.specs) }

// String implements fmt.Stringer.
func (it *IntentType) String() string { return "IntentType(" + it.Name() + ")" }

// New validates args against the declared specs and returns a bound intent.
//
// Every declared name must be present or defaulted, every supplied name must
// be declared, and every supplied value must be assignable to its declared
// type. Failures return a *FieldError naming the first offending field.
func (it *IntentType) New(args Args) (*Intent, error) {
	for _, s := range it.specs {
		v, ok := args[s.Name]
		if !ok {
			continue
		}
		if !assignable(v, s.Type) {
			return nil, &FieldError{
				Intent: it.Name(),
				Field:  s.Name,
				Code:   FieldTypeMismatch,
				Want:   s.Type.String(),
				Got:    valueTypeName(v),
			}
		}
	}
	for name := range args {
		if _, ok := it.index[name]; !ok {
			return nil, &FieldError{Intent: it.Name(), Field: name, Code: FieldUnknown}
		}
	}
	fields := make(Args, len(it.specs))
	for _, s := range it.specs {
		if v, ok := args[s.Name]; ok {
			fields[s.Name] = v
			continue
		}
		if !s.HasDefault {
			return nil, &FieldError{
				Intent: it.Name(),
				Field:  s.Name,
				Code:   FieldMissing,
				Want:   s.Type.String(),
			}
		}
		fields[s.Name] = s.Default
	}
	return &Intent{itype: it, fields: fields}, nil
}

// Must is New, panicking on error. For tests and fixed wiring.
func (it *IntentType) Must(args Args) *Intent {
	in, err := it.New(args)
	if err != nil {
		panic(err)
	}
	return in
}

// assignable reports whether v can be stored in an argument of type t.
// Untyped nil is accepted only by nilable kinds.
func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface,
			reflect.Map, reflect.Pointer, reflect.Slice:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

// valueTypeName names a value's dynamic type for diagnostics.
func valueTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// Intent is one validated, fully-bound call record: an intent type plus a
// complete field set. Intents are inert data; nothing happens until one is
// wrapped in an Effect and performed.
type Intent struct {
	itype  *IntentType
	fields Args
}

// Type returns the intent's type descriptor.
func (in *Intent) Type() *IntentType { return in.itype }

// Field returns the named field value and whether it is declared.
func (in *Intent) Field(name string) (any, bool) {
	v, ok := in.fields[name]
	return v, ok
}

// Fields returns a copy of the complete field set, defaults included.
func (in *Intent) Fields() Args { return in.fields.clone() }

// Equal reports whether two intents share an intent type pointer and carry
// deeply equal fields.
func (in *Intent) Equal(other *Intent) bool {
	if in == nil || other == nil {
		return in == other
	}
	return in.itype == other.itype && reflect.DeepEqual(in.fields, other.fields)
}

// String renders the intent as "Interface.op" plus its fields in canonical
// JSON, so equal intents render identically.
func (in *Intent) String() string {
	b, err := canon.Marshal(map[string]any(in.fields))
	if err != nil {
		return fmt.Sprintf("%s<unprintable fields: %v>", in.itype.Name(), err)
	}
	return in.itype.Name() + string(b)
}
