// Package idgen produces the lexicographically sortable identifiers used for
// records and comments.
package idgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
)

// Generator produces unique, time-ordered string ids.
type Generator interface {
	NewID() string
}

// ULIDGenerator hands out monotonic ULIDs. Ids generated by one generator sort
// in generation order, even within the same millisecond or if the wall clock
// steps backwards. It is safe for concurrent use.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	lastMs  uint64
	now     func() time.Time
}

// NewULIDGenerator returns a generator seeded from crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return newULIDGenerator(rand.Reader, time.Now)
}

func newULIDGenerator(source io.Reader, now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(source, 0),
		now:     now,
	}
}

// NewID returns a fresh ULID in its canonical 26 character form.
func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now())
	if ms < g.lastMs {
		ms = g.lastMs
	}

	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		// Entropy for this millisecond is exhausted; move on to the next one.
		ms++
		id = ulid.MustNew(ms, g.entropy)
	}
	g.lastMs = ms
	return id.String()
}

// Valid reports whether s is a well-formed ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// UUID reinterprets the 128 bits of a ULID as a UUID, for systems that only
// accept UUID keys.
func UUID(s string) (uuid.UUID, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse ulid %q: %w", s, err)
	}
	return uuid.UUID(id), nil
}
