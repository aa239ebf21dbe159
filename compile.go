package edict

import (
	"fmt"
	"sort"
)

// OperationSpec is the compiled description of one public operation.
type OperationSpec struct {
	// Name is the operation name.
	Name string

	// Doc is the declared documentation, possibly empty.
	Doc string

	// Args are the declared argument specifications, in declaration order.
	Args []ArgSpec
}

// Interface is the result of compiling a Decl: a named, immutable bundle of
// operation specs, freshly synthesized intent types, and effect factories.
// All lookups are read-only; an Interface is safe to share once built.
type Interface struct {
	name      string
	doc       string
	public    []string
	internal  []string
	specs     map[string]OperationSpec
	types     map[string]*IntentType
	factories map[string]Factory
}

// Compile validates a declaration and synthesizes its intent types and
// factories. Compilation is atomic: on any declaration fault it returns a
// *SpecError and no Interface. Each call mints new intent types, even for a
// declaration compiled before.
func Compile(d Decl) (*Interface, error) {
	if err := validateDecl(d); err != nil {
		return nil, err
	}
	iface := &Interface{
		name:      d.Name,
		doc:       d.Doc,
		specs:     make(map[string]OperationSpec),
		types:     make(map[string]*IntentType),
		factories: make(map[string]Factory),
	}
	for _, op := range d.Ops {
		if op.Internal {
			iface.internal = append(iface.internal, op.Name)
			continue
		}
		it := newIntentType(d.Name, op)
		iface.public = append(iface.public, op.Name)
		iface.specs[op.Name] = OperationSpec{Name: op.Name, Doc: op.Doc, Args: it.specs}
		iface.types[op.Name] = it
		iface.factories[op.Name] = Factory{it: it}
	}
	sort.Strings(iface.public)
	sort.Strings(iface.internal)
	return iface, nil
}

// MustCompile is Compile, panicking on error. For package-level interface
// variables whose declarations are fixed at build time.
func MustCompile(d Decl) *Interface {
	iface, err := Compile(d)
	if err != nil {
		panic(fmt.Sprintf("edict: compile %s: %v", d.Name, err))
	}
	return iface
}

// validateDecl checks a whole declaration before anything is synthesized.
func validateDecl(d Decl) error {
	if d.Name == "" {
		return &SpecError{Message: "interface name is required"}
	}
	seenOps := make(map[string]bool, len(d.Ops))
	for _, op := range d.Ops {
		if op.Name == "" {
			return &SpecError{Interface: d.Name, Message: "operation name is required"}
		}
		if seenOps[op.Name] {
			return &SpecError{Interface: d.Name, Op: op.Name, Message: "duplicate operation name"}
		}
		seenOps[op.Name] = true
		seenArgs := make(map[string]bool, len(op.Args))
		for _, a := range op.Args {
			if a.Name == "" {
				return &SpecError{Interface: d.Name, Op: op.Name, Message: "argument name is required"}
			}
			if seenArgs[a.Name] {
				return &SpecError{Interface: d.Name, Op: op.Name, Arg: a.Name, Message: "duplicate argument name"}
			}
			seenArgs[a.Name] = true
			if a.Type == nil {
				return &SpecError{Interface: d.Name, Op: op.Name, Arg: a.Name, Message: "argument has no declared type"}
			}
			if a.HasDefault && !assignable(a.Default, a.Type) {
				return &SpecError{
					Interface: d.Name,
					Op:        op.Name,
					Arg:       a.Name,
					Message: fmt.Sprintf("default value of type %s is not assignable to %s",
						valueTypeName(a.Default), a.Type),
				}
			}
		}
	}
	return nil
}

// Name returns the interface name.
func (f *Interface) Name() string { return f.name }

// Doc returns the interface documentation, possibly empty.
func (f *Interface) Doc() string { return f.doc }

// Ops returns the public operation names, sorted.
func (f *Interface) Ops() []string {
	out := make([]string, len(f.public))
	copy(out, f.public)
	return out
}

// InternalOps returns the internal operation names, sorted. Internal
// operations exist only as documentation; they have no intent types.
func (f *Interface) InternalOps() []string {
	out := make([]string, len(f.internal))
	copy(out, f.internal)
	return out
}

// Operation returns the compiled spec for a public operation.
func (f *Interface) Operation(op string) (OperationSpec, bool) {
	spec, ok := f.specs[op]
	if !ok {
		return OperationSpec{}, false
	}
	spec.Args = copyArgSpecs(spec.Args)
	return spec, true
}

// ArgSpecs returns the declared argument specs of a public operation.
func (f *Interface) ArgSpecs(op string) ([]ArgSpec, bool) {
	spec, ok := f.specs[op]
	if !ok {
		return nil, false
	}
	return copyArgSpecs(spec.Args), true
}

// IntentType returns the synthesized type of a public operation.
func (f *Interface) IntentType(op string) (*IntentType, bool) {
	it, ok := f.types[op]
	return it, ok
}

// Factory returns the effect factory of a public operation.
func (f *Interface) Factory(op string) (Factory, bool) {
	fac, ok := f.factories[op]
	return fac, ok
}

// MustFactory is Factory, panicking when the operation is unknown.
func (f *Interface) MustFactory(op string) Factory {
	fac, ok := f.factories[op]
	if !ok {
		panic(fmt.Sprintf("edict: interface %s has no public operation %q", f.name, op))
	}
	return fac
}
