package edicttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edict"
)

func notesInterface(t *testing.T) *edict.Interface {
	t.Helper()

	iface, err := edict.Compile(edict.Declare("notes",
		edict.Op("put", edict.Arg[string]("id"), edict.Arg[any]("doc")),
	))
	require.NoError(t, err)

	return iface
}

func TestRecorderTableRecordsCalls(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, map[string]any{"add": 35, "concat": "meow"})
	require.NoError(t, err)

	ctx := context.Background()

	out, err := edict.Perform(ctx, table, mustEffect(t, iface, "add", edict.Args{"a": 12, "b": 23}))
	require.NoError(t, err)
	assert.Equal(t, 35, out)

	out, err = edict.Perform(ctx, table, mustEffect(t, iface, "concat", edict.Args{"a": "me", "b": "ow"}))
	require.NoError(t, err)
	assert.Equal(t, "meow", out)

	calls := r.Calls()
	require.Len(t, calls, 2)

	assert.Equal(t, "Utils.add", calls[0].Name())
	assert.Equal(t, edict.Args{"a": 12, "b": 23}, calls[0].Args)
	assert.Equal(t, int64(1), calls[0].Seq)

	assert.Equal(t, "Utils.concat", calls[1].Name())
	assert.Equal(t, int64(2), calls[1].Seq)
}

func TestRecorderCapturesResolvedDefaults(t *testing.T) {
	iface, err := edict.Compile(edict.Declare("Render",
		edict.Op("pad", edict.Arg[string]("text"), edict.Optional("width", 8)),
	))
	require.NoError(t, err)

	r := NewRecorder()

	table, err := r.Table(iface, map[string]any{"pad": "name    "})
	require.NoError(t, err)

	_, err = edict.Perform(context.Background(), table, mustEffect(t, iface, "pad", edict.Args{"text": "name"}))
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, edict.Args{"text": "name", "width": 8}, calls[0].Args)
}

func TestRecorderCallsTo(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, map[string]any{"add": 0})
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err = edict.Perform(ctx, table, mustEffect(t, iface, "add", edict.Args{"a": i, "b": i}))
		require.NoError(t, err)
	}

	_, err = edict.Perform(ctx, table, mustEffect(t, iface, "concat", edict.Args{"a": "x", "b": "y"}))
	require.NoError(t, err)

	adds := r.CallsTo("Utils.add")
	require.Len(t, adds, 3)
	assert.Equal(t, edict.Args{"a": 2, "b": 2}, adds[2].Args)

	assert.Empty(t, r.CallsTo("Utils.scratch"))
}

func TestRecorderUnconfiguredOpReturnsNil(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, nil)
	require.NoError(t, err)

	out, err := edict.Perform(context.Background(), table, mustEffect(t, iface, "add", edict.Args{"a": 1, "b": 2}))
	require.NoError(t, err)
	assert.Nil(t, out)

	require.Len(t, r.Calls(), 1)
}

func TestRecorderNilInterface(t *testing.T) {
	r := NewRecorder()

	_, err := r.Table(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil interface")
}

func TestRecorderOrdersCallsAcrossInterfaces(t *testing.T) {
	utils := utilsInterface(t)
	notes := notesInterface(t)
	r := NewRecorder()

	utilsTable, err := r.Table(utils, map[string]any{"add": 1})
	require.NoError(t, err)

	notesTable, err := r.Table(notes, map[string]any{"put": "OK"})
	require.NoError(t, err)

	table, err := edict.Merge(utilsTable, notesTable)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = edict.Perform(ctx, table, mustEffect(t, utils, "add", edict.Args{"a": 1, "b": 2}))
	require.NoError(t, err)

	_, err = edict.Perform(ctx, table, mustEffect(t, notes, "put", edict.Args{"id": "d1", "doc": "x"}))
	require.NoError(t, err)

	_, err = edict.Perform(ctx, table, mustEffect(t, utils, "add", edict.Args{"a": 3, "b": 4}))
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"Utils.add", "notes.put", "Utils.add"},
		[]string{calls[0].Name(), calls[1].Name(), calls[2].Name()})
	assert.Equal(t, int64(1), calls[0].Seq)
	assert.Equal(t, int64(2), calls[1].Seq)
	assert.Equal(t, int64(3), calls[2].Seq)
}

func TestRecorderReset(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, nil)
	require.NoError(t, err)

	_, err = edict.Perform(context.Background(), table, mustEffect(t, iface, "add", edict.Args{"a": 1, "b": 2}))
	require.NoError(t, err)
	require.Len(t, r.Calls(), 1)

	r.Reset()
	assert.Empty(t, r.Calls())

	_, err = edict.Perform(context.Background(), table, mustEffect(t, iface, "add", edict.Args{"a": 1, "b": 2}))
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(1), calls[0].Seq)
}

func TestRecorderCallsDetached(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, nil)
	require.NoError(t, err)

	_, err = edict.Perform(context.Background(), table, mustEffect(t, iface, "add", edict.Args{"a": 1, "b": 2}))
	require.NoError(t, err)

	calls := r.Calls()
	calls[0].Op = "mutated"

	assert.Equal(t, "add", r.Calls()[0].Op)
}

func TestRecorderTranscriptGolden(t *testing.T) {
	iface := utilsInterface(t)
	r := NewRecorder()

	table, err := r.Table(iface, map[string]any{"add": 35, "concat": "meow"})
	require.NoError(t, err)

	ctx := context.Background()

	_, err = edict.Perform(ctx, table, mustEffect(t, iface, "add", edict.Args{"a": 12, "b": 23}))
	require.NoError(t, err)

	_, err = edict.Perform(ctx, table, mustEffect(t, iface, "concat", edict.Args{"a": "me", "b": "ow"}))
	require.NoError(t, err)

	AssertTranscript(t, r, "utils_transcript")
}
