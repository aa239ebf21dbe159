package docstore

import (
	"fmt"
	"strconv"

	"github.com/roach88/edict/internal/canon"
)

// Status classifies the outcome of a store operation.
type Status string

const (
	// OK means the operation succeeded.
	OK Status = "OK"

	// NotFound means the document or requested revision does not exist.
	NotFound Status = "NOT_FOUND"

	// Conflict means a put named a revision other than the next one.
	Conflict Status = "CONFLICT"

	// BadRequest means the requested revision is below Latest.
	BadRequest Status = "BAD_REQUEST"

	// NetworkError means the provider could not reach the store. Raw store
	// methods return Go errors instead; this status is minted by the
	// provider adapter.
	NetworkError Status = "NETWORK_ERROR"
)

// Response is the outcome of one store operation. Failure responses echo
// the requested revision; OK responses carry the resolved one.
type Response struct {
	Status Status
	ID     string
	Rev    int
	Doc    any
}

// String renders the response deterministically, with the document body in
// canonical JSON.
func (r Response) String() string {
	out := "Response<" + string(r.Status)
	if r.ID != "" {
		out += " id=" + r.ID
	}
	out += " rev=" + RenderRev(r.Rev)
	if r.Doc != nil {
		b, err := canon.Marshal(r.Doc)
		if err != nil {
			out += fmt.Sprintf(" <unprintable doc: %v>", err)
		} else {
			out += " " + string(b)
		}
	}
	return out + ">"
}

// RenderRev renders Latest as "LATEST" and any other revision numerically.
func RenderRev(rev int) string {
	if rev == Latest {
		return "LATEST"
	}
	return strconv.Itoa(rev)
}
