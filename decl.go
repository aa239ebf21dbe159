package edict

// Decl is a raw interface declaration: a named set of operations submitted
// to Compile. A Decl carries no synthesized state; two compilations of the
// same Decl yield unrelated intent types.
type Decl struct {
	// Name is the interface name ("Utils"). Required.
	Name string

	// Doc is optional interface documentation.
	Doc string

	// Ops are the declared operations, public and internal.
	Ops []OpDecl
}

// OpDecl declares one operation: its name, its arguments, and whether it is
// internal. Internal operations are visible on the compiled interface for
// documentation but get no intent type, no factory, and no dispatch entry.
type OpDecl struct {
	// Name is the operation name ("add"). Required, unique within the Decl.
	Name string

	// Doc is optional operation documentation.
	Doc string

	// Args are the declared arguments, in declaration order.
	Args []ArgSpec

	// Internal excludes the operation from synthesis and binding.
	Internal bool
}

// Declare assembles a Decl from operation declarations.
func Declare(name string, ops ...OpDecl) Decl {
	return Decl{Name: name, Ops: ops}
}

// Op declares a public operation.
func Op(name string, args ...ArgSpec) OpDecl {
	return OpDecl{Name: name, Args: args}
}

// Internal marks an operation declaration internal. Visibility is explicit:
// nothing is inferred from the operation's name.
func Internal(op OpDecl) OpDecl {
	op.Internal = true
	return op
}

// WithDoc attaches documentation to a Decl.
func (d Decl) WithDoc(doc string) Decl {
	d.Doc = doc
	return d
}

// WithDoc attaches documentation to an OpDecl.
func (o OpDecl) WithDoc(doc string) OpDecl {
	o.Doc = doc
	return o
}
