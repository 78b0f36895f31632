package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_decade_index.go -package=mocks github.com/jigintern/2025-summer-c/internal/storage DecadeIndexStore

import (
	"context"
	"fmt"

	"github.com/jigintern/2025-summer-c/internal/kv"
)

// DecadeIndexStore defines the interface for the year -> record id index.
type DecadeIndexStore interface {
	// IndexRecord writes one entry per year of d. Writing the same entries
	// again is a no-op.
	IndexRecord(ctx context.Context, id string, d *Decade) error
	// Query returns the ids bucketed under year, or under every year when
	// year is AllYears. Ids may repeat across buckets.
	Query(ctx context.Context, year int) ([]string, error)
	// Unindex removes the entries written for id and d.
	Unindex(ctx context.Context, id string, d *Decade) error
	// Entries calls fn for every index entry in (year, id) order.
	Entries(ctx context.Context, fn func(year int, id string) error) error
	// Clear removes every index entry.
	Clear(ctx context.Context) error
}

// DecadeIndex keeps one key per (year, record id) pair.
// It implements the DecadeIndexStore interface.
type DecadeIndex struct {
	store kv.Store
}

// NewDecadeIndex creates a new DecadeIndex.
func NewDecadeIndex(store kv.Store) *DecadeIndex {
	return &DecadeIndex{store: store}
}

// IndexRecord writes one entry per year of d. A nil decade writes nothing.
func (ix *DecadeIndex) IndexRecord(ctx context.Context, id string, d *Decade) error {
	for _, year := range d.Years() {
		if err := ix.store.Set(ctx, decadeKey(year, id), []byte(id)); err != nil {
			return fmt.Errorf("failed to index %s under %d: %w", id, year, err)
		}
	}
	return nil
}

// Query returns the ids bucketed under year in id order.
func (ix *DecadeIndex) Query(ctx context.Context, year int) ([]string, error) {
	prefix := []byte(decadePrefix)
	if year != AllYears {
		prefix = decadeYearPrefix(year)
	}

	var ids []string
	err := kv.ScanPrefix(ctx, ix.store, prefix, func(item *kv.Item) error {
		ids = append(ids, string(item.Value))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query decade index: %w", err)
	}
	return ids, nil
}

// Unindex removes the entries for id under every year of d.
func (ix *DecadeIndex) Unindex(ctx context.Context, id string, d *Decade) error {
	for _, year := range d.Years() {
		if err := ix.store.Delete(ctx, decadeKey(year, id)); err != nil {
			return fmt.Errorf("failed to unindex %s under %d: %w", id, year, err)
		}
	}
	return nil
}

// Entries walks the whole index.
func (ix *DecadeIndex) Entries(ctx context.Context, fn func(year int, id string) error) error {
	return kv.ScanPrefix(ctx, ix.store, []byte(decadePrefix), func(item *kv.Item) error {
		year, id, ok := parseDecadeKey(item.Key)
		if !ok {
			return fmt.Errorf("malformed decade index key %q", item.Key)
		}
		return fn(year, id)
	})
}

// Clear removes every index entry.
func (ix *DecadeIndex) Clear(ctx context.Context) error {
	if err := ix.store.DeletePrefix(ctx, []byte(decadePrefix)); err != nil {
		return fmt.Errorf("failed to clear decade index: %w", err)
	}
	return nil
}
