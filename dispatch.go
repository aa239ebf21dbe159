package edict

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Performer executes intents of one type against live collaborators and
// returns the operation's result.
type Performer func(ctx context.Context, in *Intent) (any, error)

// Binding pairs a compiled interface with the provider implementing it.
type Binding struct {
	// Iface is the compiled interface to bind.
	Iface *Interface

	// Provider is the value whose methods perform the operations.
	Provider any
}

// Bind pairs an interface with its provider for NewDispatcher.
func Bind(iface *Interface, provider any) Binding {
	return Binding{Iface: iface, Provider: provider}
}

// DispatchTable routes intent types to performers. Keys are *IntentType
// pointers, so only intents minted by the bound compilation are routable.
// Tables are built once and read-only afterwards; lookups never mutate.
type DispatchTable struct {
	performers map[*IntentType]Performer
}

// NewDispatchTable returns an empty table for manual registration.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{performers: make(map[*IntentType]Performer)}
}

// Register routes an intent type to a performer. Registering a type that is
// already routed fails with *DuplicateRegistrationError; nothing is replaced.
func (t *DispatchTable) Register(it *IntentType, p Performer) error {
	if it == nil {
		return fmt.Errorf("edict: nil intent type")
	}
	if p == nil {
		return fmt.Errorf("edict: nil performer for %s", it.Name())
	}
	if _, ok := t.performers[it]; ok {
		return &DuplicateRegistrationError{IntentType: it}
	}
	t.performers[it] = p
	return nil
}

// Performer returns the performer routed for an intent type.
func (t *DispatchTable) Performer(it *IntentType) (Performer, bool) {
	p, ok := t.performers[it]
	return p, ok
}

// Len returns the number of routed intent types.
func (t *DispatchTable) Len() int { return len(t.performers) }

// Types returns the routed intent types, sorted by diagnostic name.
func (t *DispatchTable) Types() []*IntentType {
	out := make([]*IntentType, 0, len(t.performers))
	for it := range t.performers {
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Merge combines tables into a new one. A type routed by more than one input
// fails with *DuplicateRegistrationError. Inputs are left untouched.
func Merge(tables ...*DispatchTable) (*DispatchTable, error) {
	merged := NewDispatchTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for it, p := range t.performers {
			if err := merged.Register(it, p); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// NewDispatcher builds a dispatch table from interface/provider bindings.
// Every public operation of every bound interface must resolve to a provider
// method with a callable shape; the first binding fault aborts the build.
// No provider method is invoked while binding.
func NewDispatcher(bindings ...Binding) (*DispatchTable, error) {
	table := NewDispatchTable()
	for i, b := range bindings {
		if b.Iface == nil {
			return nil, fmt.Errorf("edict: binding %d has no interface", i)
		}
		for _, op := range b.Iface.Ops() {
			p, err := bindPerformer(b.Iface, op, b.Provider)
			if err != nil {
				return nil, err
			}
			it, _ := b.Iface.IntentType(op)
			if err := table.Register(it, p); err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}

// VerifyProvider checks that a provider can bind every public operation of
// an interface, without building a table. Returns the first *BindError.
func VerifyProvider(iface *Interface, provider any) error {
	if iface == nil {
		return fmt.Errorf("edict: nil interface")
	}
	for _, op := range iface.Ops() {
		if _, err := bindPerformer(iface, op, provider); err != nil {
			return err
		}
	}
	return nil
}

var (
	ctxType       = reflect.TypeFor[context.Context]()
	errType       = reflect.TypeFor[error]()
	argsType      = reflect.TypeFor[Args]()
	intentPtrType = reflect.TypeFor[*Intent]()
)

// bindPerformer resolves one operation to a provider method and wraps it as
// a Performer.
//
// The method is the operation name with its first rune upper-cased. Allowed
// shapes, with an optional leading context.Context and an optional trailing
// error:
//
//	func (p P) Add(ctx context.Context, args AddParams) (int, error)
//	func (p P) Add(args AddParams) int
//	func (p P) Drop(ctx context.Context) error
//	func (p P) Log(args edict.Args)
//	func (p P) Trace(in *edict.Intent) (any, error)
//
// A params struct binds by name: each declared argument must match exactly
// one exported field (case-insensitively) whose type can hold it, and every
// exported field must match a declared argument.
func bindPerformer(iface *Interface, op string, provider any) (Performer, error) {
	it, _ := iface.IntentType(op)
	specs, _ := iface.ArgSpecs(op)

	rv := reflect.ValueOf(provider)
	if !rv.IsValid() {
		return nil, bindErr(iface, op, provider, ErrBindMissingMethod, "provider is nil")
	}
	m := rv.MethodByName(methodName(op))
	if !m.IsValid() {
		return nil, bindErr(iface, op, provider, ErrBindMissingMethod,
			fmt.Sprintf("no method %s", methodName(op)))
	}
	mt := m.Type()
	if mt.IsVariadic() {
		return nil, bindErr(iface, op, provider, ErrBindBadSignature,
			"variadic methods cannot be bound")
	}

	first := 0
	wantsCtx := mt.NumIn() > 0 && mt.In(0) == ctxType
	if wantsCtx {
		first = 1
	}

	var build func(in *Intent) reflect.Value
	switch mt.NumIn() - first {
	case 0:
		if len(specs) > 0 {
			return nil, bindErr(iface, op, provider, ErrBindUnmatchedArg,
				fmt.Sprintf("argument %q has nowhere to go", specs[0].Name))
		}
	case 1:
		pt := mt.In(first)
		switch pt {
		case argsType:
			build = func(in *Intent) reflect.Value { return reflect.ValueOf(in.Fields()) }
		case intentPtrType:
			build = func(in *Intent) reflect.Value { return reflect.ValueOf(in) }
		default:
			plan, err := planParams(iface, op, provider, pt, specs)
			if err != nil {
				return nil, err
			}
			build = plan.build
		}
	default:
		return nil, bindErr(iface, op, provider, ErrBindBadSignature,
			"methods take at most a context and one params value")
	}

	result, shapeErr := resultShape(mt)
	if shapeErr != "" {
		return nil, bindErr(iface, op, provider, ErrBindBadSignature, shapeErr)
	}

	return func(ctx context.Context, in *Intent) (any, error) {
		if in == nil || in.Type() != it {
			return nil, fmt.Errorf("edict: performer for %s received a foreign intent", it.Name())
		}
		if ctx == nil {
			ctx = context.Background()
		}
		args := make([]reflect.Value, 0, mt.NumIn())
		if wantsCtx {
			args = append(args, reflect.ValueOf(ctx))
		}
		if build != nil {
			args = append(args, build(in))
		}
		return result(m.Call(args))
	}, nil
}

// methodName upper-cases the first rune of an operation name.
func methodName(op string) string {
	r, size := utf8.DecodeRuneInString(op)
	return string(unicode.ToUpper(r)) + op[size:]
}

// paramsPlan maps declared arguments onto the fields of a params struct.
type paramsPlan struct {
	typ    reflect.Type
	ptr    bool
	fields []paramField
}

type paramField struct {
	name  string
	index []int
}

// planParams builds the argument-to-field mapping for a params struct, or
// explains why the struct cannot carry the operation's arguments.
func planParams(iface *Interface, op string, provider any, pt reflect.Type, specs []ArgSpec) (*paramsPlan, error) {
	st := pt
	ptr := false
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
		ptr = true
	}
	if st.Kind() != reflect.Struct {
		return nil, bindErr(iface, op, provider, ErrBindBadSignature,
			fmt.Sprintf("parameter type %s is not a params struct, edict.Args, or *edict.Intent", pt))
	}

	type fieldInfo struct {
		field   reflect.StructField
		matched bool
	}
	var exported []*fieldInfo
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.IsExported() {
			exported = append(exported, &fieldInfo{field: f})
		}
	}

	plan := &paramsPlan{typ: st, ptr: ptr}
	for _, spec := range specs {
		exact, fold, folds := -1, -1, 0
		for i, fi := range exported {
			if fi.matched {
				continue
			}
			if fi.field.Name == spec.Name {
				exact = i
				break
			}
			if strings.EqualFold(fi.field.Name, spec.Name) {
				fold = i
				folds++
			}
		}
		use := exact
		switch {
		case exact >= 0:
		case folds == 1:
			use = fold
		case folds == 0:
			return nil, bindErr(iface, op, provider, ErrBindUnmatchedArg,
				fmt.Sprintf("argument %q has no field in %s", spec.Name, st))
		default:
			return nil, bindErr(iface, op, provider, ErrBindBadSignature,
				fmt.Sprintf("argument %q matches multiple fields in %s", spec.Name, st))
		}
		f := exported[use].field
		if !spec.Type.AssignableTo(f.Type) {
			return nil, bindErr(iface, op, provider, ErrBindArgType,
				fmt.Sprintf("field %s.%s is %s, argument %q is %s", st, f.Name, f.Type, spec.Name, spec.Type))
		}
		exported[use].matched = true
		plan.fields = append(plan.fields, paramField{name: spec.Name, index: f.Index})
	}
	for _, fi := range exported {
		if !fi.matched {
			return nil, bindErr(iface, op, provider, ErrBindUnmatchedField,
				fmt.Sprintf("field %s.%s matches no declared argument", st, fi.field.Name))
		}
	}
	return plan, nil
}

// build populates a params value from an intent's fields.
func (p *paramsPlan) build(in *Intent) reflect.Value {
	pv := reflect.New(p.typ)
	ev := pv.Elem()
	for _, fb := range p.fields {
		v, _ := in.Field(fb.name)
		if v == nil {
			continue
		}
		ev.FieldByIndex(fb.index).Set(reflect.ValueOf(v))
	}
	if p.ptr {
		return pv
	}
	return ev
}

// resultShape normalizes a method's return values to (any, error).
func resultShape(mt reflect.Type) (func([]reflect.Value) (any, error), string) {
	switch mt.NumOut() {
	case 0:
		return func([]reflect.Value) (any, error) { return nil, nil }, ""
	case 1:
		if mt.Out(0) == errType {
			return func(rets []reflect.Value) (any, error) { return nil, retErr(rets[0]) }, ""
		}
		return func(rets []reflect.Value) (any, error) { return rets[0].Interface(), nil }, ""
	case 2:
		if mt.Out(1) != errType {
			return nil, "second return value must be error"
		}
		return func(rets []reflect.Value) (any, error) {
			return rets[0].Interface(), retErr(rets[1])
		}, ""
	}
	return nil, "methods return at most one value and an error"
}

func retErr(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func bindErr(iface *Interface, op string, provider any, code BindErrorCode, msg string) *BindError {
	return &BindError{
		Interface: iface.Name(),
		Op:        op,
		Provider:  valueTypeName(provider),
		Code:      code,
		Message:   msg,
	}
}
