// Package cueload reads interface declarations from CUE files and turns
// them into edict declarations.
package cueload

import (
	"fmt"
	"os"
	"reflect"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/edict"
)

// Load reads one CUE file of interface declarations.
//
// The file declares interfaces under a top-level "interfaces" struct:
//
//	interfaces: Utils: {
//		doc: "arithmetic and string helpers"
//		ops: {
//			add:     {args: {a: "int", b: "int"}}
//			concat:  {args: {a: "string", b: "string"}}
//			scratch: {internal: true}
//		}
//	}
//
// Arguments are either a kind shorthand (`a: "int"`) or a struct with an
// optional default (`width: {type: "int", default: 8}`). Kinds are string,
// int, bool, bytes, array, and object.
func Load(path string) ([]edict.Decl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cueload: read %s: %w", path, err)
	}
	return LoadBytes(path, data)
}

// LoadBytes parses declarations from an in-memory CUE source. The name is
// used in error positions.
func LoadBytes(name string, data []byte) ([]edict.Decl, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(name, err)
	}

	root := v.LookupPath(cue.ParsePath("interfaces"))
	if !root.Exists() {
		return nil, &LoadError{
			File:    name,
			Path:    "interfaces",
			Message: "top-level interfaces struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(name, err)
	}

	var decls []edict.Decl
	for iter.Next() {
		decl, err := parseInterface(name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls, nil
}

// CompileAll compiles a batch of declarations, keyed by interface name.
// Duplicate names and declaration faults abort the whole batch.
func CompileAll(decls []edict.Decl) (map[string]*edict.Interface, error) {
	out := make(map[string]*edict.Interface, len(decls))
	for _, d := range decls {
		if _, ok := out[d.Name]; ok {
			return nil, &LoadError{Path: d.Name, Message: "duplicate interface name"}
		}
		iface, err := edict.Compile(d)
		if err != nil {
			return nil, err
		}
		out[d.Name] = iface
	}
	return out, nil
}

func parseInterface(file, name string, v cue.Value) (edict.Decl, error) {
	decl := edict.Decl{Name: name}

	if docVal := v.LookupPath(cue.ParsePath("doc")); docVal.Exists() {
		doc, err := docVal.String()
		if err != nil {
			return decl, formatCUEError(file, err)
		}
		decl.Doc = doc
	}

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return decl, &LoadError{
			File:    file,
			Path:    name + ".ops",
			Message: "at least one op is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := opsVal.Fields()
	if err != nil {
		return decl, formatCUEError(file, err)
	}
	for iter.Next() {
		op, err := parseOp(file, name, iter.Label(), iter.Value())
		if err != nil {
			return decl, err
		}
		decl.Ops = append(decl.Ops, op)
	}
	if len(decl.Ops) == 0 {
		return decl, &LoadError{
			File:    file,
			Path:    name + ".ops",
			Message: "at least one op is required",
			Pos:     opsVal.Pos(),
		}
	}
	return decl, nil
}

func parseOp(file, iface, name string, v cue.Value) (edict.OpDecl, error) {
	op := edict.OpDecl{Name: name}
	path := iface + ".ops." + name

	if docVal := v.LookupPath(cue.ParsePath("doc")); docVal.Exists() {
		doc, err := docVal.String()
		if err != nil {
			return op, formatCUEError(file, err)
		}
		op.Doc = doc
	}

	if internalVal := v.LookupPath(cue.ParsePath("internal")); internalVal.Exists() {
		internal, err := internalVal.Bool()
		if err != nil {
			return op, formatCUEError(file, err)
		}
		op.Internal = internal
	}

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return op, nil
	}
	iter, err := argsVal.Fields()
	if err != nil {
		return op, formatCUEError(file, err)
	}
	for iter.Next() {
		spec, err := parseArg(file, path, iter.Label(), iter.Value())
		if err != nil {
			return op, err
		}
		op.Args = append(op.Args, spec)
	}
	return op, nil
}

func parseArg(file, path, name string, v cue.Value) (edict.ArgSpec, error) {
	argPath := path + ".args." + name

	// Shorthand form: name: "kind".
	if kind, err := v.String(); err == nil {
		typ, err := kindType(file, argPath, kind, v.Pos())
		if err != nil {
			return edict.ArgSpec{}, err
		}
		return edict.ArgSpec{Name: name, Type: typ}, nil
	}

	// Structured form: name: {type: "kind", default: <value>}.
	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return edict.ArgSpec{}, &LoadError{
			File:    file,
			Path:    argPath,
			Message: `argument must be a kind string or {type: "kind", default: ...}`,
			Pos:     v.Pos(),
		}
	}
	kind, err := typeVal.String()
	if err != nil {
		return edict.ArgSpec{}, formatCUEError(file, err)
	}
	typ, err := kindType(file, argPath, kind, typeVal.Pos())
	if err != nil {
		return edict.ArgSpec{}, err
	}
	spec := edict.ArgSpec{Name: name, Type: typ}

	defVal := v.LookupPath(cue.ParsePath("default"))
	if defVal.Exists() {
		def, err := decodeDefault(file, argPath, kind, defVal)
		if err != nil {
			return edict.ArgSpec{}, err
		}
		spec.HasDefault = true
		spec.Default = def
	}
	return spec, nil
}

// kindType maps a declared kind to its Go type.
func kindType(file, path, kind string, pos token.Pos) (reflect.Type, error) {
	switch kind {
	case "string":
		return reflect.TypeFor[string](), nil
	case "int":
		return reflect.TypeFor[int](), nil
	case "bool":
		return reflect.TypeFor[bool](), nil
	case "bytes":
		return reflect.TypeFor[[]byte](), nil
	case "array":
		return reflect.TypeFor[[]any](), nil
	case "object":
		return reflect.TypeFor[map[string]any](), nil
	case "float", "number":
		return nil, &LoadError{
			File:    file,
			Path:    path,
			Message: "float kinds are not supported, use int",
			Pos:     pos,
		}
	}
	return nil, &LoadError{
		File:    file,
		Path:    path,
		Message: fmt.Sprintf("unsupported kind %q", kind),
		Pos:     pos,
	}
}

// decodeDefault reads a default value as its declared kind.
func decodeDefault(file, path, kind string, v cue.Value) (any, error) {
	switch kind {
	case "string":
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(file, err)
		}
		return s, nil
	case "int":
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(file, err)
		}
		return int(i), nil
	case "bool":
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(file, err)
		}
		return b, nil
	case "bytes":
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(file, err)
		}
		return b, nil
	case "array":
		var out []any
		if err := v.Decode(&out); err != nil {
			return nil, formatCUEError(file, err)
		}
		return out, nil
	case "object":
		var out map[string]any
		if err := v.Decode(&out); err != nil {
			return nil, formatCUEError(file, err)
		}
		return out, nil
	}
	return nil, &LoadError{File: file, Path: path, Message: fmt.Sprintf("unsupported kind %q", kind)}
}

// LoadError reports a malformed declaration file with source position.
type LoadError struct {
	File    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(file string, err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &LoadError{
			File:    file,
			Path:    "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
