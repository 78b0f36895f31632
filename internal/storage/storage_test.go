package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
)

// newTestStore opens an in-memory store that is closed when the test ends.
func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	store, err := kv.OpenBadger(kv.InMemoryBadgerConfig())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// newTestRepo wires a RecordRepo and DecadeIndex over a fresh store.
func newTestRepo(t *testing.T) (*RecordRepo, *DecadeIndex) {
	t.Helper()
	store := newTestStore(t)
	index := NewDecadeIndex(store)
	return NewRecordRepo(store, index, idgen.NewULIDGenerator(), DefaultMaxRetries), index
}

// sequentialIDs hands out "id-0001", "id-0002", ...
type sequentialIDs struct {
	n int
}

func (s *sequentialIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

func mustPut(t *testing.T, repo *RecordRepo, record *Record) string {
	t.Helper()
	id, err := repo.Put(context.Background(), record)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return id
}
