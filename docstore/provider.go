package docstore

import (
	"context"

	"github.com/roach88/edict"
)

// Contract is the store's compiled edict interface. Bind it to a *Provider
// to dispatch document operations as effects:
//
//	table, err := edict.NewDispatcher(edict.Bind(docstore.Contract, docstore.NewProvider(store)))
//	eff, err := docstore.Contract.MustFactory("get").New(edict.Args{"id": "d1"})
//
// The get revision defaults to Latest when omitted.
var Contract = edict.MustCompile(edict.Declare("docs",
	edict.Op("get",
		edict.Arg[string]("id"),
		edict.Optional("rev", Latest),
	).WithDoc("Reads one revision of a document."),
	edict.Op("put",
		edict.Arg[string]("id"),
		edict.Arg[int]("rev"),
		edict.Arg[any]("doc"),
	).WithDoc("Appends the next revision of a document."),
	edict.Op("create",
		edict.Arg[any]("doc"),
	).WithDoc("Writes revision 0 under a server-assigned ID."),
).WithDoc("Append-only revisioned document storage."))

// GetArgs carries the get operation's arguments.
type GetArgs struct {
	ID  string
	Rev int
}

// PutArgs carries the put operation's arguments.
type PutArgs struct {
	ID  string
	Rev int
	Doc any
}

// CreateArgs carries the create operation's arguments.
type CreateArgs struct {
	Doc any
}

// Provider adapts a *Store to the Contract interface. Storage faults are
// folded into NETWORK_ERROR responses, so performed effects always yield a
// Response.
type Provider struct {
	store *Store
}

// NewProvider wraps a store for dispatch.
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Get performs docs.get.
func (p *Provider) Get(ctx context.Context, a GetArgs) Response {
	resp, err := p.store.Get(ctx, a.ID, a.Rev)
	if err != nil {
		return Response{Status: NetworkError, ID: a.ID, Rev: a.Rev}
	}
	return resp
}

// Put performs docs.put.
func (p *Provider) Put(ctx context.Context, a PutArgs) Response {
	resp, err := p.store.Put(ctx, a.ID, a.Rev, a.Doc)
	if err != nil {
		return Response{Status: NetworkError, ID: a.ID, Rev: a.Rev}
	}
	return resp
}

// Create performs docs.create.
func (p *Provider) Create(ctx context.Context, a CreateArgs) Response {
	resp, err := p.store.Create(ctx, a.Doc)
	if err != nil {
		return Response{Status: NetworkError}
	}
	return resp
}
