package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_index.go -package=mocks github.com/jigintern/2025-summer-c/internal/service SearchIndex

import (
	"context"

	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// SearchIndex is an optional external index mirroring stored records.
// When configured it replaces the decade index as the query candidate source.
// Candidates may be a superset of the true matches; every candidate is
// re-checked against the stored record.
type SearchIndex interface {
	// Upsert mirrors a stored record.
	Upsert(ctx context.Context, record *storage.Record) error
	// Delete removes a mirrored record.
	Delete(ctx context.Context, id string) error
	// Clear removes every mirrored record.
	Clear(ctx context.Context) error
	// Candidates returns ids of records that may match year and box.
	// year may be storage.AllYears.
	Candidates(ctx context.Context, year int, box geo.Box) ([]string, error)
}
