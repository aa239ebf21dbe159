package docstore

import (
	"context"
	"testing"

	"github.com/roach88/edict"
)

func dispatchTable(t *testing.T, s *Store) *edict.DispatchTable {
	t.Helper()
	table, err := edict.NewDispatcher(edict.Bind(Contract, NewProvider(s)))
	if err != nil {
		t.Fatalf("NewDispatcher() failed: %v", err)
	}
	return table
}

func performDocs(t *testing.T, table *edict.DispatchTable, op string, args edict.Args) Response {
	t.Helper()
	eff, err := Contract.MustFactory(op).New(args)
	if err != nil {
		t.Fatalf("build %s effect: %v", op, err)
	}
	res, err := edict.Perform(context.Background(), table, eff)
	if err != nil {
		t.Fatalf("perform %s: %v", op, err)
	}
	resp, ok := res.(Response)
	if !ok {
		t.Fatalf("perform %s returned %T, want Response", op, res)
	}
	return resp
}

func TestProvider_SatisfiesContract(t *testing.T) {
	s := openTestStore(t)
	if err := edict.VerifyProvider(Contract, NewProvider(s)); err != nil {
		t.Fatalf("VerifyProvider() failed: %v", err)
	}
}

func TestProvider_PutGetEndToEnd(t *testing.T) {
	s := openTestStore(t)
	table := dispatchTable(t, s)

	put := performDocs(t, table, "put", edict.Args{
		"id":  "book1",
		"rev": 0,
		"doc": map[string]any{"title": "Huckleberry Finn"},
	})
	if put.Status != OK {
		t.Fatalf("put status = %s, want %s", put.Status, OK)
	}

	got := performDocs(t, table, "get", edict.Args{"id": "book1", "rev": 0})
	if got.Status != OK {
		t.Fatalf("get status = %s, want %s", got.Status, OK)
	}
	doc, ok := got.Doc.(map[string]any)
	if !ok {
		t.Fatalf("doc is %T", got.Doc)
	}
	if doc["title"] != "Huckleberry Finn" {
		t.Errorf("title = %v", doc["title"])
	}
}

func TestProvider_GetDefaultsToLatest(t *testing.T) {
	s := openTestStore(t)
	table := dispatchTable(t, s)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Put(ctx, "d1", i, map[string]any{"rev": RenderRev(i)}); err != nil {
			t.Fatalf("Put(rev=%d) failed: %v", i, err)
		}
	}

	// No rev argument: the declared default kicks in.
	got := performDocs(t, table, "get", edict.Args{"id": "d1"})
	if got.Status != OK {
		t.Fatalf("get status = %s, want %s", got.Status, OK)
	}
	if got.Rev != 1 {
		t.Errorf("rev = %d, want 1", got.Rev)
	}
}

func TestProvider_ConflictIsAResponse(t *testing.T) {
	s := openTestStore(t)
	table := dispatchTable(t, s)

	performDocs(t, table, "put", edict.Args{"id": "d1", "rev": 0, "doc": map[string]any{}})
	resp := performDocs(t, table, "put", edict.Args{"id": "d1", "rev": 0, "doc": map[string]any{}})
	if resp.Status != Conflict {
		t.Errorf("status = %s, want %s", resp.Status, Conflict)
	}
}

func TestProvider_CreateEndToEnd(t *testing.T) {
	s := openTestStore(t)
	table := dispatchTable(t, s)

	created := performDocs(t, table, "create", edict.Args{"doc": map[string]any{"k": "v"}})
	if created.Status != OK {
		t.Fatalf("create status = %s, want %s", created.Status, OK)
	}
	if created.ID == "" {
		t.Fatal("create returned empty id")
	}

	got := performDocs(t, table, "get", edict.Args{"id": created.ID})
	if got.Status != OK {
		t.Errorf("get status = %s, want %s", got.Status, OK)
	}
}

func TestProvider_StorageFaultIsNetworkError(t *testing.T) {
	s := openTestStore(t)
	table := dispatchTable(t, s)
	s.Close()

	resp := performDocs(t, table, "get", edict.Args{"id": "d1"})
	if resp.Status != NetworkError {
		t.Errorf("status = %s, want %s", resp.Status, NetworkError)
	}
}

func TestProvider_UnknownArgRejectedBeforeDispatch(t *testing.T) {
	_, err := Contract.MustFactory("get").New(edict.Args{"id": "d1", "revision": 2})
	if err == nil {
		t.Fatal("expected field error, got nil")
	}
	fe, ok := edict.AsFieldError(err)
	if !ok {
		t.Fatalf("error is %T, want *edict.FieldError", err)
	}
	if fe.Code != edict.FieldUnknown {
		t.Errorf("code = %s, want %s", fe.Code, edict.FieldUnknown)
	}
}
