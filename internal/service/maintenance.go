package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// IndexEntry is one (year, record id) pair of the decade index.
type IndexEntry struct {
	Year int    `json:"year"`
	ID   string `json:"id"`
}

// ReindexStats summarises a Reindex run.
type ReindexStats struct {
	Records  int `json:"records"`
	Entries  int `json:"entries"`
	Mirrored int `json:"mirrored"`
}

// CheckReport lists the differences between the decade index and the
// entries the stored records call for.
type CheckReport struct {
	Records      int          `json:"records"`
	IndexEntries int          `json:"index_entries"`
	Stale        []IndexEntry `json:"stale"`
	Missing      []IndexEntry `json:"missing"`
}

// Consistent reports whether the index matches the records exactly.
func (r CheckReport) Consistent() bool {
	return len(r.Stale) == 0 && len(r.Missing) == 0
}

// Maintenance runs bulk operations over the record store and its indexes.
type Maintenance struct {
	records storage.RecordStore
	index   storage.DecadeIndexStore
	mirror  SearchIndex
	gate    *Gate
	limits  Limits
	now     func() time.Time
}

// NewMaintenance creates a new Maintenance. mirror may be nil.
func NewMaintenance(records storage.RecordStore, index storage.DecadeIndexStore, mirror SearchIndex, gate *Gate, limits Limits) *Maintenance {
	if gate == nil {
		gate = NewGate()
	}
	return &Maintenance{
		records: records,
		index:   index,
		mirror:  mirror,
		gate:    gate,
		limits:  limits.withDefaults(),
		now:     time.Now,
	}
}

// Reset deletes every record and index entry. It waits for in-flight writes
// and blocks new ones until done.
func (m *Maintenance) Reset(ctx context.Context) error {
	release, err := m.gate.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := m.index.Clear(ctx); err != nil {
		return WrapError(err, "failed to clear decade index")
	}
	if err := m.records.Clear(ctx); err != nil {
		return WrapError(err, "failed to clear records")
	}
	if m.mirror != nil {
		if err := m.mirror.Clear(ctx); err != nil {
			return fmt.Errorf("%w: clear search index: %v", ErrExternalService, err)
		}
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "store reset")
	return nil
}

// Reindex rebuilds the decade index, and the mirror when configured, from
// the stored records.
func (m *Maintenance) Reindex(ctx context.Context) (ReindexStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var stats ReindexStats
	release, err := m.gate.Exclusive(ctx)
	if err != nil {
		return stats, err
	}
	defer release()

	if err := m.index.Clear(ctx); err != nil {
		return stats, WrapError(err, "failed to clear decade index")
	}
	if m.mirror != nil {
		if err := m.mirror.Clear(ctx); err != nil {
			return stats, fmt.Errorf("%w: clear search index: %v", ErrExternalService, err)
		}
	}

	for record, err := range m.records.List(ctx) {
		if err != nil {
			return stats, WrapError(err, "failed to list records")
		}
		if err := m.index.IndexRecord(ctx, record.ID, record.Decade); err != nil {
			return stats, WrapError(err, "failed to index record")
		}
		stats.Records++
		stats.Entries += len(record.Decade.Years())

		if m.mirror != nil {
			if err := m.mirror.Upsert(ctx, record); err != nil {
				return stats, fmt.Errorf("%w: mirror %s: %v", ErrExternalService, record.ID, err)
			}
			stats.Mirrored++
		}
	}

	logger.InfoContext(ctx, "reindex complete", "records", stats.Records, "entries", stats.Entries, "mirrored", stats.Mirrored)
	return stats, nil
}

// Check compares the decade index with the records without changing either.
func (m *Maintenance) Check(ctx context.Context) (CheckReport, error) {
	report := CheckReport{Stale: []IndexEntry{}, Missing: []IndexEntry{}}

	// read only, so the write budget is not applied
	_, release, err := m.gate.Shared(ctx)
	if err != nil {
		return report, err
	}
	defer release()

	expected := make(map[IndexEntry]struct{})
	for record, err := range m.records.List(ctx) {
		if err != nil {
			return report, WrapError(err, "failed to list records")
		}
		report.Records++
		for _, y := range record.Decade.Years() {
			expected[IndexEntry{Year: y, ID: record.ID}] = struct{}{}
		}
	}

	seen := make(map[IndexEntry]struct{})
	err = m.index.Entries(ctx, func(year int, id string) error {
		entry := IndexEntry{Year: year, ID: id}
		report.IndexEntries++
		seen[entry] = struct{}{}
		if _, ok := expected[entry]; !ok {
			report.Stale = append(report.Stale, entry)
		}
		return nil
	})
	if err != nil {
		return report, WrapError(err, "failed to walk decade index")
	}

	for entry := range expected {
		if _, ok := seen[entry]; !ok {
			report.Missing = append(report.Missing, entry)
		}
	}
	sortEntries(report.Missing)

	return report, nil
}

// Seed stores records as given, keeping their ids and threads. Records are
// validated like submissions. Each record is admitted through the gate on its
// own. It stops at the first failure and returns how many were stored before
// it.
func (m *Maintenance) Seed(ctx context.Context, reqs []SubmitRequest) (int, error) {
	for i, req := range reqs {
		record, err := buildRecord(req, m.limits, m.now)
		if err != nil {
			return i, fmt.Errorf("seed record %d: %w", i, err)
		}
		record.ID = req.ID
		if req.Thread != nil {
			record.Thread = req.Thread
		}

		if err := m.seedOne(ctx, i, record); err != nil {
			return i, err
		}
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "seeded records", "count", len(reqs))
	return len(reqs), nil
}

func (m *Maintenance) seedOne(ctx context.Context, i int, record *storage.Record) error {
	ctx, release, err := m.gate.Shared(ctx)
	if err != nil {
		return fmt.Errorf("seed record %d: %w", i, err)
	}
	defer release()

	if _, err := m.records.Put(ctx, record); err != nil {
		return mapStorageError(err, fmt.Sprintf("seed record %d", i))
	}
	if m.mirror != nil {
		if err := m.mirror.Upsert(ctx, record); err != nil {
			return fmt.Errorf("%w: mirror seed record %d: %v", ErrExternalService, i, err)
		}
	}
	return nil
}

// Delete removes one record with its index entries and mirror point.
func (m *Maintenance) Delete(ctx context.Context, id string) error {
	ctx, release, err := m.gate.Shared(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := m.records.Delete(ctx, id); err != nil {
		return mapStorageError(err, fmt.Sprintf("failed to delete record %s", id))
	}
	if m.mirror != nil {
		if err := m.mirror.Delete(ctx, id); err != nil {
			return fmt.Errorf("%w: delete %s from search index: %v", ErrExternalService, id, err)
		}
	}
	return nil
}

func sortEntries(entries []IndexEntry) {
	slices.SortFunc(entries, func(a, b IndexEntry) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
