package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jigintern/2025-summer-c/internal/kv"
)

// ErrLocked is returned when the maintenance lock is held by someone else.
var ErrLocked = errors.New("maintenance lock held")

// DefaultLockTTL is how long a maintenance lock lives before another owner
// may take it over.
const DefaultLockTTL = 15 * time.Minute

// LockInfo is the value stored under the maintenance lock key.
type LockInfo struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// MaintenanceLock is a single lock key in the shared store. Every process
// opening the same store sees the same lock, so bulk maintenance run from
// one process is visible to writers in another.
type MaintenanceLock struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewMaintenanceLock creates a lock over store. A ttl of zero or less uses
// DefaultLockTTL.
func NewMaintenanceLock(store kv.Store, ttl time.Duration) *MaintenanceLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &MaintenanceLock{store: store, ttl: ttl, now: time.Now}
}

// Acquire takes the lock for owner. An expired lock is taken over with a
// compare-and-swap on its version, so two contenders cannot both win.
// Returns ErrLocked while another owner holds a live lock.
func (l *MaintenanceLock) Acquire(ctx context.Context, owner string) error {
	now := l.now().UTC()
	data, err := json.Marshal(LockInfo{Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(l.ttl)})
	if err != nil {
		return fmt.Errorf("failed to encode lock: %w", err)
	}

	var version uint64
	current, held, err := l.read(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		if held {
			return fmt.Errorf("%w by %s since %s", ErrLocked, current.info.Owner, current.info.AcquiredAt.Format(time.RFC3339))
		}
		version = current.version
	}

	err = l.store.CompareAndSwap(ctx, []byte(lockKey), data, version)
	if errors.Is(err, kv.ErrVersionMismatch) {
		return ErrLocked
	}
	if err != nil {
		return fmt.Errorf("failed to acquire maintenance lock: %w", err)
	}
	return nil
}

// Release drops the lock if owner still holds it.
func (l *MaintenanceLock) Release(ctx context.Context, owner string) error {
	current, _, err := l.read(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.info.Owner != owner {
		return nil
	}
	if err := l.store.Delete(ctx, []byte(lockKey)); err != nil {
		return fmt.Errorf("failed to release maintenance lock: %w", err)
	}
	return nil
}

// Held returns the live lock, or nil when the lock is free or expired.
func (l *MaintenanceLock) Held(ctx context.Context) (*LockInfo, error) {
	current, held, err := l.read(ctx)
	if err != nil || !held {
		return nil, err
	}
	return &current.info, nil
}

type storedLock struct {
	info    LockInfo
	version uint64
}

// read returns the stored lock, if any, and whether it is still live.
func (l *MaintenanceLock) read(ctx context.Context) (*storedLock, bool, error) {
	item, err := l.store.Get(ctx, []byte(lockKey))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read maintenance lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(item.Value, &info); err != nil {
		// an unreadable lock is treated as expired so it can be replaced
		return &storedLock{version: item.Version}, false, nil
	}
	return &storedLock{info: info, version: item.Version}, l.now().Before(info.ExpiresAt), nil
}
