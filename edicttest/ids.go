package edicttest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDs yields identifier strings for documents and runs.
type IDs interface {
	Next() string
}

// UUIDs generates time-ordered UUIDv7 identifiers. It is stateless and
// safe for concurrent use.
type UUIDs struct{}

// Next returns a new UUIDv7 string.
func (UUIDs) Next() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDs returns a predetermined list of identifiers in order. Useful in
// tests that assert on specific values.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator that will return the given identifiers
// in order.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Next returns the next predetermined identifier. It panics when the list
// is exhausted, which indicates a test expecting fewer IDs than the code
// under test requested.
func (g *FixedIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDs: all identifiers exhausted")
	}

	id := g.ids[g.idx]
	g.idx++
	return id
}

// SeededIDs derives a reproducible stream of UUIDs from a seed string.
// The same seed always yields the same sequence, so golden files stay
// stable across runs while still containing valid UUIDs.
type SeededIDs struct {
	mu   sync.Mutex
	seed string
	n    int
}

// NewSeededIDs creates a generator keyed by seed.
func NewSeededIDs(seed string) *SeededIDs {
	return &SeededIDs{seed: seed}
}

// Next returns the next UUID in the seeded sequence.
func (g *SeededIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", g.seed, g.n))).String()
}
