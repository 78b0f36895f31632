package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_store.go -package=mocks github.com/jigintern/2025-summer-c/internal/storage RecordStore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update keeps losing to
	// concurrent writers.
	ErrConflict = errors.New("record modified concurrently")
)

// DefaultMaxRetries is the number of compare-and-swap attempts AppendComment
// makes before giving up with ErrConflict.
const DefaultMaxRetries = 5

// RecordStore defines the interface for record storage operations.
type RecordStore interface {
	// Put stores record, assigning an id when record.ID is empty, and
	// indexes its decade. Returns the id.
	Put(ctx context.Context, record *Record) (string, error)
	// Get gets a record by id.
	// Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, id string) (*Record, error)
	// List yields every record in id order.
	List(ctx context.Context) iter.Seq2[*Record, error]
	// AppendComment appends comment to the record's thread.
	// Returns ErrNotFound if the record does not exist.
	AppendComment(ctx context.Context, id string, comment Comment) (*Record, error)
	// Delete removes a record and its index entries.
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Clear removes every record. Index entries are left alone.
	Clear(ctx context.Context) error
}

// RecordRepo provides methods for record operations.
// It implements the RecordStore interface.
type RecordRepo struct {
	store      kv.Store
	index      DecadeIndexStore
	ids        idgen.Generator
	maxRetries int
}

// NewRecordRepo creates a new RecordRepo. A maxRetries below 1 uses
// DefaultMaxRetries.
func NewRecordRepo(store kv.Store, index DecadeIndexStore, ids idgen.Generator, maxRetries int) *RecordRepo {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &RecordRepo{
		store:      store,
		index:      index,
		ids:        ids,
		maxRetries: maxRetries,
	}
}

// Put writes the decade index entries before the record. A failure in
// between leaves index entries without a record, which queries skip.
func (r *RecordRepo) Put(ctx context.Context, record *Record) (string, error) {
	if record.ID == "" {
		record.ID = r.ids.NewID()
	}
	if record.SchemaVersion == 0 {
		record.SchemaVersion = CurrentSchemaVersion
	}
	if record.Thread == nil {
		record.Thread = []Comment{}
	}
	if record.Photos == nil {
		record.Photos = []string{}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	if err := r.index.IndexRecord(ctx, record.ID, record.Decade); err != nil {
		return "", err
	}

	if err := r.store.Set(ctx, recordKey(record.ID), data); err != nil {
		return "", fmt.Errorf("failed to store record %s: %w", record.ID, err)
	}

	return record.ID, nil
}

// Get gets a record by id.
// Returns nil and ErrNotFound if not found.
func (r *RecordRepo) Get(ctx context.Context, id string) (*Record, error) {
	item, err := r.store.Get(ctx, recordKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return decodeRecord(item)
}

func decodeRecord(item *kv.Item) (*Record, error) {
	var record Record
	if err := json.Unmarshal(item.Value, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", recordIDFromKey(item.Key), err)
	}
	if record.Thread == nil {
		record.Thread = []Comment{}
	}
	record.Version = item.Version
	return &record, nil
}

// List yields every record in id order, which for generated ids is
// insertion order. Iteration stops at the first error, which is yielded
// with a nil record.
func (r *RecordRepo) List(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		err := kv.ScanPrefix(ctx, r.store, []byte(recordPrefix), func(item *kv.Item) error {
			record, err := decodeRecord(item)
			if err != nil {
				return err
			}
			if !yield(record, nil) {
				return kv.ErrStopScan
			}
			return nil
		})
		if err != nil {
			yield(nil, fmt.Errorf("failed to list records: %w", err))
		}
	}
}

// AppendComment performs a read-modify-write of the record guarded by a
// compare-and-swap on its version stamp.
func (r *RecordRepo) AppendComment(ctx context.Context, id string, comment Comment) (*Record, error) {
	key := recordKey(id)

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		record, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		record.Thread = append(record.Thread, comment)
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}

		err = r.store.CompareAndSwap(ctx, key, data, record.Version)
		if errors.Is(err, kv.ErrVersionMismatch) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update record %s: %w", id, err)
		}

		record.Version = 0
		return record, nil
	}

	return nil, fmt.Errorf("append comment to %s after %d attempts: %w", id, r.maxRetries, ErrConflict)
}

// Delete removes a record and its index entries.
// Returns ErrNotFound if the record does not exist.
func (r *RecordRepo) Delete(ctx context.Context, id string) error {
	record, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return r.index.Unindex(ctx, id, record.Decade)
}

// Count returns the number of stored records.
func (r *RecordRepo) Count(ctx context.Context) (int, error) {
	count := 0
	err := kv.ScanPrefix(ctx, r.store, []byte(recordPrefix), func(*kv.Item) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Clear removes every record.
func (r *RecordRepo) Clear(ctx context.Context) error {
	if err := r.store.DeletePrefix(ctx, []byte(recordPrefix)); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}
