//go:build property

package edict

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Run with: go test -tags property ./...

func TestIntentProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	iface := MustCompile(utilsDecl())
	table, err := NewDispatcher(Bind(iface, &recordingUtils{}))
	if err != nil {
		t.Fatal(err)
	}

	properties.Property("add performs the sum for any int pair", prop.ForAll(
		func(a, b int) bool {
			eff, err := iface.MustFactory("add").New(Args{"a": a, "b": b})
			if err != nil {
				return false
			}
			got, err := Perform(context.Background(), table, eff)
			return err == nil && got == a+b
		},
		gen.Int(), gen.Int(),
	))

	properties.Property("concat performs the join for any string pair", prop.ForAll(
		func(a, b string) bool {
			eff, err := iface.MustFactory("concat").New(Args{"a": a, "b": b})
			if err != nil {
				return false
			}
			got, err := Perform(context.Background(), table, eff)
			return err == nil && got == a+b
		},
		gen.AnyString(), gen.AnyString(),
	))

	properties.Property("intents round-trip their fields", prop.ForAll(
		func(a, b int) bool {
			eff, err := iface.MustFactory("add").New(Args{"a": a, "b": b})
			if err != nil {
				return false
			}
			fields := eff.Intent().Fields()
			return fields["a"] == a && fields["b"] == b
		},
		gen.Int(), gen.Int(),
	))

	properties.Property("equal args render equal strings", prop.ForAll(
		func(a, b int) bool {
			x := iface.MustFactory("add").Must(Args{"a": a, "b": b})
			y := iface.MustFactory("add").Must(Args{"b": b, "a": a})
			return x.Intent().String() == y.Intent().String()
		},
		gen.Int(), gen.Int(),
	))

	properties.TestingRun(t)
}

func TestCompileProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties := gopter.NewProperties(params)

	properties.Property("recompilation mints distinct intent types", prop.ForAll(
		func(name string) bool {
			decl := Declare("Props", Op(name, Arg[int]("n")))
			first, err := Compile(decl)
			if err != nil {
				return false
			}
			second, err := Compile(decl)
			if err != nil {
				return false
			}
			a, _ := first.IntentType(name)
			b, _ := second.IntentType(name)
			return a != b && a.Name() == b.Name()
		},
		gen.Identifier(),
	))

	properties.Property("unknown keys are always rejected", prop.ForAll(
		func(key string) bool {
			if key == "a" || key == "b" {
				return true
			}
			iface := MustCompile(utilsDecl())
			_, err := iface.MustFactory("add").New(Args{"a": 1, "b": 2, key: 3})
			fe, ok := AsFieldError(err)
			return ok && fe.Code == FieldUnknown && fe.Field == key
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
