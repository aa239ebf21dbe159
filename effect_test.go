package edict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryNew(t *testing.T) {
	iface := MustCompile(utilsDecl())
	add := iface.MustFactory("add")

	eff, err := add.New(Args{"a": 12, "b": 23})
	require.NoError(t, err)
	require.NotNil(t, eff.Intent())

	it, _ := iface.IntentType("add")
	assert.Same(t, it, eff.Type())
	assert.Same(t, it, add.IntentType())

	a, _ := eff.Intent().Field("a")
	assert.Equal(t, 12, a)
}

func TestFactoryPropagatesFieldError(t *testing.T) {
	iface := MustCompile(utilsDecl())
	add := iface.MustFactory("add")

	_, err := add.New(Args{"a": 12})
	require.Error(t, err)
	fe, ok := AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, FieldMissing, fe.Code)
}

func TestFactoryMustPanics(t *testing.T) {
	iface := MustCompile(utilsDecl())
	add := iface.MustFactory("add")
	assert.Panics(t, func() { add.Must(Args{"a": "wrong"}) })
}

func TestFactoryIsPure(t *testing.T) {
	iface := MustCompile(utilsDecl())
	add := iface.MustFactory("add")

	first := add.Must(Args{"a": 1, "b": 2})
	second := add.Must(Args{"a": 1, "b": 2})

	assert.NotSame(t, first.Intent(), second.Intent(), "each call builds a fresh intent")
	assert.True(t, first.Intent().Equal(second.Intent()))
}

func TestZeroEffect(t *testing.T) {
	var eff Effect
	assert.Nil(t, eff.Intent())
	assert.Nil(t, eff.Type())
	assert.Equal(t, "Effect<empty>", eff.String())
}

func TestEffectString(t *testing.T) {
	iface := MustCompile(utilsDecl())
	eff := iface.MustFactory("concat").Must(Args{"a": "me", "b": "ow"})
	assert.Equal(t, `Effect<Utils.concat{"a":"me","b":"ow"}>`, eff.String())
}

func TestNewEffectWrapsIntent(t *testing.T) {
	iface := MustCompile(utilsDecl())
	it, _ := iface.IntentType("add")
	in := it.Must(Args{"a": 1, "b": 2})

	eff := NewEffect(in)
	assert.Same(t, in, eff.Intent())
}
