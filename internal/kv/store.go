// Package kv defines the ordered key-value store the record layer is built on
// and provides its backends.
//
// Every backend offers point get/set/delete, a compare-and-swap on a per-key
// version stamp, and ordered range scans over byte keys. There are no
// multi-key transactions.
package kv

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks github.com/jigintern/2025-summer-c/internal/kv Store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrVersionMismatch is returned by CompareAndSwap when the stored version
	// differs from the expected one.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrStopScan can be returned from a scan callback to end the scan early
	// without an error.
	ErrStopScan = errors.New("stop scan")
)

// Item is a stored key/value pair with its version stamp.
// Version is never 0 for an existing key, and a key that is deleted and
// written again never gets back a version it had before.
type Item struct {
	Key     []byte
	Value   []byte
	Version uint64
}

// Store is an ordered key-value store.
type Store interface {
	// Get returns the item stored under key, or ErrNotFound.
	Get(ctx context.Context, key []byte) (*Item, error)
	// Set stores value under key unconditionally.
	Set(ctx context.Context, key, value []byte) error
	// CompareAndSwap stores value only if the current version equals version.
	// A version of 0 means the key must not exist yet.
	CompareAndSwap(ctx context.Context, key, value []byte, version uint64) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error
	// Scan calls fn for every item with start <= key < end in ascending key
	// order. A nil end means no upper bound.
	Scan(ctx context.Context, start, end []byte, fn func(*Item) error) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix []byte) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the store's resources.
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// ScanPrefix scans every item whose key starts with prefix.
func ScanPrefix(ctx context.Context, s Store, prefix []byte, fn func(*Item) error) error {
	return s.Scan(ctx, prefix, PrefixEnd(prefix), fn)
}
