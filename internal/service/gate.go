package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// DefaultDrain is how long bulk maintenance waits after taking the store lock
// before it starts. Writes admitted before the lock was visible are cut off
// after the same duration, so none of them is still running once the wait
// ends.
const DefaultDrain = 5 * time.Second

// Gate orders bulk maintenance against normal writes. Writes hold it shared;
// reset and reindex hold it exclusively.
//
// Within one process a RWMutex does the ordering. With a store lock the gate
// also covers other processes sharing the store: Exclusive takes the lock and
// waits out the drain window, and Shared refuses with ErrUnavailable while
// the lock is held.
type Gate struct {
	mu    sync.RWMutex
	lock  *storage.MaintenanceLock
	owner string
	drain time.Duration
}

// NewGate returns an in-process gate.
func NewGate() *Gate {
	return &Gate{}
}

// NewStoreGate returns a gate backed by lock. A drain below zero uses
// DefaultDrain.
func NewStoreGate(lock *storage.MaintenanceLock, drain time.Duration) *Gate {
	if drain < 0 {
		drain = DefaultDrain
	}
	host, _ := os.Hostname()
	return &Gate{
		lock:  lock,
		owner: fmt.Sprintf("%s/%d", host, os.Getpid()),
		drain: drain,
	}
}

// Shared admits a normal write. The returned context must be used for the
// write; with a store lock it expires after the drain window. Returns
// ErrUnavailable while bulk maintenance holds the store lock.
func (g *Gate) Shared(ctx context.Context) (context.Context, func(), error) {
	g.mu.RLock()
	if g.lock == nil {
		return ctx, g.mu.RUnlock, nil
	}

	// the budget starts before the lock is read
	writeCtx, cancel := ctx, context.CancelFunc(func() {})
	if g.drain > 0 {
		writeCtx, cancel = context.WithTimeout(ctx, g.drain)
	}
	release := func() {
		cancel()
		g.mu.RUnlock()
	}

	info, err := g.lock.Held(ctx)
	if err != nil {
		release()
		return nil, nil, WrapError(err, "failed to check maintenance lock")
	}
	if info != nil {
		release()
		return nil, nil, fmt.Errorf("%w: maintenance by %s in progress", ErrUnavailable, info.Owner)
	}
	return writeCtx, release, nil
}

// Exclusive admits a bulk operation. It waits for this process's writes,
// takes the store lock and waits out the drain window. Returns
// ErrUnavailable when another owner holds the store lock.
func (g *Gate) Exclusive(ctx context.Context) (func(), error) {
	g.mu.Lock()
	if g.lock == nil {
		return g.mu.Unlock, nil
	}

	if err := g.lock.Acquire(ctx, g.owner); err != nil {
		g.mu.Unlock()
		if errors.Is(err, storage.ErrLocked) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, WrapError(err, "failed to take maintenance lock")
	}

	release := func() {
		// released with a fresh context so a cancelled caller still frees it
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.lock.Release(releaseCtx, g.owner); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to release maintenance lock", "error", err)
		}
		g.mu.Unlock()
	}

	if err := sleep(ctx, g.drain); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
