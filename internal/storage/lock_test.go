package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMaintenanceLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	admin := NewMaintenanceLock(store, time.Minute)
	other := NewMaintenanceLock(store, time.Minute)

	if info, err := other.Held(ctx); err != nil || info != nil {
		t.Fatalf("Held() on a fresh store = %+v, %v, want nil, nil", info, err)
	}

	if err := admin.Acquire(ctx, "admin-1"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// a second process over the same store sees the lock
	info, err := other.Held(ctx)
	if err != nil {
		t.Fatalf("Held() error = %v", err)
	}
	if info == nil || info.Owner != "admin-1" {
		t.Fatalf("Held() = %+v, want owner admin-1", info)
	}
	if err := other.Acquire(ctx, "admin-2"); !errors.Is(err, ErrLocked) {
		t.Errorf("Acquire() while held error = %v, want ErrLocked", err)
	}

	// releasing someone else's lock is a no-op
	if err := other.Release(ctx, "admin-2"); err != nil {
		t.Fatalf("Release(other owner) error = %v", err)
	}
	if info, _ := other.Held(ctx); info == nil {
		t.Fatal("lock dropped by a non-owner")
	}

	if err := admin.Release(ctx, "admin-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if info, _ := other.Held(ctx); info != nil {
		t.Errorf("Held() after release = %+v, want nil", info)
	}
	if err := other.Acquire(ctx, "admin-2"); err != nil {
		t.Errorf("Acquire() after release error = %v", err)
	}
}

func TestMaintenanceLock_ExpiredLockIsTakenOver(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	crashed := NewMaintenanceLock(store, time.Minute)
	crashed.now = func() time.Time { return now }
	if err := crashed.Acquire(ctx, "crashed"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	later := NewMaintenanceLock(store, time.Minute)
	later.now = func() time.Time { return now.Add(2 * time.Minute) }
	if info, err := later.Held(ctx); err != nil || info != nil {
		t.Fatalf("Held() past expiry = %+v, %v, want nil, nil", info, err)
	}
	if err := later.Acquire(ctx, "next"); err != nil {
		t.Fatalf("Acquire() over an expired lock error = %v", err)
	}

	// the crashed owner cannot release the new holder's lock
	if err := crashed.Release(ctx, "crashed"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	info, err := later.Held(ctx)
	if err != nil || info == nil || info.Owner != "next" {
		t.Errorf("Held() = %+v, %v, want owner next", info, err)
	}
}

func TestMaintenanceLock_SurvivesRecordClear(t *testing.T) {
	ctx := context.Background()
	repo, index := newTestRepo(t)
	lock := NewMaintenanceLock(repo.store, 0)

	if err := lock.Acquire(ctx, "admin"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := index.Clear(ctx); err != nil {
		t.Fatalf("index Clear() error = %v", err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if info, _ := lock.Held(ctx); info == nil {
		t.Error("lock removed by clearing records and index")
	}
	if n, err := repo.Count(ctx); err != nil || n != 0 {
		t.Errorf("Count() = %d, %v, want 0, nil", n, err)
	}
}
