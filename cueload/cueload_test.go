package cueload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edict"
)

func TestLoadBytesBasic(t *testing.T) {
	decls, err := LoadBytes("utils.cue", []byte(`
		interfaces: Utils: {
			doc: "arithmetic and string helpers"
			ops: {
				add: {
					doc: "Sums two integers."
					args: {a: "int", b: "int"}
				}
				concat: {args: {a: "string", b: "string"}}
			}
		}
	`))
	require.NoError(t, err)
	require.Len(t, decls, 1)

	decl := decls[0]
	assert.Equal(t, "Utils", decl.Name)
	assert.Equal(t, "arithmetic and string helpers", decl.Doc)
	require.Len(t, decl.Ops, 2)

	add := decl.Ops[0]
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "Sums two integers.", add.Doc)
	require.Len(t, add.Args, 2)
	assert.Equal(t, "a", add.Args[0].Name)
	assert.Equal(t, "int", add.Args[0].Type.String())
	assert.False(t, add.Args[0].HasDefault)
}

func TestLoadBytesStructuredDefault(t *testing.T) {
	decls, err := LoadBytes("render.cue", []byte(`
		interfaces: Render: {
			ops: pad: {
				args: {
					text: "string"
					width: {type: "int", default: 8}
				}
			}
		}
	`))
	require.NoError(t, err)
	require.Len(t, decls, 1)

	args := decls[0].Ops[0].Args
	require.Len(t, args, 2)
	assert.Equal(t, "width", args[1].Name)
	assert.True(t, args[1].HasDefault)
	assert.Equal(t, 8, args[1].Default)
}

func TestLoadBytesInternalOp(t *testing.T) {
	decls, err := LoadBytes("store.cue", []byte(`
		interfaces: Store: {
			ops: {
				get: {args: {id: "string"}}
				compact: {internal: true}
			}
		}
	`))
	require.NoError(t, err)

	iface, err := edict.Compile(decls[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"get"}, iface.Ops())
	assert.Equal(t, []string{"compact"}, iface.InternalOps())
}

func TestLoadBytesInterfacesSorted(t *testing.T) {
	decls, err := LoadBytes("multi.cue", []byte(`
		interfaces: {
			Zeta: {ops: z: {}}
			Alpha: {ops: a: {}}
		}
	`))
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "Alpha", decls[0].Name)
	assert.Equal(t, "Zeta", decls[1].Name)
}

func TestLoadBytesAllKinds(t *testing.T) {
	decls, err := LoadBytes("kinds.cue", []byte(`
		interfaces: Kinds: {
			ops: mix: {
				args: {
					s: "string"
					i: "int"
					b: "bool"
					raw: "bytes"
					list: "array"
					doc: "object"
				}
			}
		}
	`))
	require.NoError(t, err)

	want := map[string]string{
		"s":    "string",
		"i":    "int",
		"b":    "bool",
		"raw":  "[]uint8",
		"list": "[]interface {}",
		"doc":  "map[string]interface {}",
	}
	args := decls[0].Ops[0].Args
	require.Len(t, args, len(want))
	for _, a := range args {
		assert.Equal(t, want[a.Name], a.Type.String(), a.Name)
	}
}

func TestLoadBytesMissingInterfaces(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`utils: {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interfaces")
	assert.Contains(t, err.Error(), "required")
}

func TestLoadBytesMissingOps(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`
		interfaces: Empty: {doc: "does nothing"}
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op")
	assert.Contains(t, err.Error(), "required")
}

func TestLoadBytesRejectsFloat(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`
		interfaces: Bad: {
			ops: weigh: {args: {kg: "float"}}
		}
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
	assert.Contains(t, err.Error(), "use int")
}

func TestLoadBytesUnsupportedKind(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`
		interfaces: Bad: {
			ops: tag: {args: {id: "uuid"}}
		}
	`))
	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Contains(t, le.Message, `unsupported kind "uuid"`)
	assert.Equal(t, "Bad.ops.tag.args.id", le.Path)
}

func TestLoadBytesBadArgForm(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`
		interfaces: Bad: {
			ops: add: {args: {a: 5}}
		}
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind string")
}

func TestLoadBytesSyntaxError(t *testing.T) {
	_, err := LoadBytes("bad.cue", []byte(`interfaces: Utils: {`))
	require.Error(t, err)
}

func TestCompileAll(t *testing.T) {
	decls, err := LoadBytes("multi.cue", []byte(`
		interfaces: {
			Utils: {ops: add: {args: {a: "int", b: "int"}}}
			Store: {ops: get: {args: {id: "string"}}}
		}
	`))
	require.NoError(t, err)

	ifaces, err := CompileAll(decls)
	require.NoError(t, err)
	require.Len(t, ifaces, 2)
	assert.Equal(t, []string{"add"}, ifaces["Utils"].Ops())
	assert.Equal(t, []string{"get"}, ifaces["Store"].Ops())
}

func TestCompileAllDuplicate(t *testing.T) {
	decls := []edict.Decl{
		edict.Declare("Utils", edict.Op("add", edict.Arg[int]("a"))),
		edict.Declare("Utils", edict.Op("concat", edict.Arg[string]("a"))),
	}
	_, err := CompileAll(decls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate interface")
}

func TestLoadFile(t *testing.T) {
	decls, err := Load("testdata/utils.cue")
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "Render", decls[0].Name)
	assert.Equal(t, "Utils", decls[1].Name)

	ifaces, err := CompileAll(decls)
	require.NoError(t, err)

	pad, ok := ifaces["Render"].ArgSpecs("pad")
	require.True(t, ok)
	require.Len(t, pad, 2)
	assert.True(t, pad[1].HasDefault)
	assert.Equal(t, 8, pad[1].Default)
}

type calcProvider struct{}

func (calcProvider) Add(p struct{ A, B int }) int {
	return p.A + p.B
}

func (calcProvider) Concat(p struct{ A, B string }) string {
	return p.A + p.B
}

func TestLoadedDeclarationsDispatch(t *testing.T) {
	decls, err := Load("testdata/utils.cue")
	require.NoError(t, err)
	ifaces, err := CompileAll(decls)
	require.NoError(t, err)

	utils := ifaces["Utils"]
	table, err := edict.NewDispatcher(edict.Bind(utils, calcProvider{}))
	require.NoError(t, err)

	eff, err := utils.MustFactory("add").New(edict.Args{"a": 12, "b": 23})
	require.NoError(t, err)
	got, err := edict.Perform(context.Background(), table, eff)
	require.NoError(t, err)
	assert.Equal(t, 35, got)
}
