package service_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/service/mocks"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

func seedRequests(t *testing.T) []service.SubmitRequest {
	return []service.SubmitRequest{
		{
			ID:        "6b86b273ff34fce19d6b804eff5a3f5747ada4e4f1a1a1a1a1a1a1a1a1a1a1a1",
			Name:      "generated 1",
			Geometry:  json.RawMessage(`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[1,1],[3,1],[2,4]]]}}`),
			Decade:    decade(1990, 1993),
			Comment:   "a",
			Photos:    []string{},
			Thread:    []storage.Comment{{ID: "c1", Comment: "seeded", CreatedAt: "2020-01-01"}},
			CreatedAt: "2020-01-01",
		},
		{
			Name:     "generated 2",
			Geometry: boxAt(t, 50, 50),
			Decade:   decade(2000, 2001),
		},
	}
}

func TestMaintenance_SeedKeepsIDsAndThreads(t *testing.T) {
	stack := newTestStack(t)
	reqs := seedRequests(t)

	n, err := stack.maintenance().Seed(testContext(), reqs)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != len(reqs) {
		t.Errorf("Seed() = %d, want %d", n, len(reqs))
	}

	record, err := stack.records.Get(testContext(), reqs[0].ID)
	if err != nil {
		t.Fatalf("Get(seeded id) error = %v", err)
	}
	if !reflect.DeepEqual(record.Thread, reqs[0].Thread) {
		t.Errorf("Thread = %+v, want %+v", record.Thread, reqs[0].Thread)
	}

	got, err := stack.queries().Query(testContext(), service.QueryRequest{Year: 1992, Box: mustBox(t, 0, 0, 5, 5)})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{reqs[0].ID}) {
		t.Errorf("Query() = %v, want [%s]", ids(got), reqs[0].ID)
	}

	count, err := stack.records.Count(testContext())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestMaintenance_SeedStopsAtInvalidRecord(t *testing.T) {
	stack := newTestStack(t)
	reqs := seedRequests(t)
	reqs[1].Decade = decade(2001, 2000)

	n, err := stack.maintenance().Seed(testContext(), reqs)
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("Seed() error = %v, want ErrInvalidInput", err)
	}
	if n != 1 {
		t.Errorf("Seed() stored %d records, want 1", n)
	}
}

func TestMaintenance_Reset(t *testing.T) {
	stack := newTestStack(t)
	if _, err := stack.maintenance().Seed(testContext(), seedRequests(t)); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if err := stack.maintenance().Reset(testContext()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count, err := stack.records.Count(testContext())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after reset = %d, want 0", count)
	}
	report, err := stack.maintenance().Check(testContext())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.IndexEntries != 0 {
		t.Errorf("index entries after reset = %d, want 0", report.IndexEntries)
	}
}

func TestMaintenance_CheckAndReindex(t *testing.T) {
	stack := newTestStack(t)
	m := stack.maintenance()
	reqs := seedRequests(t)
	if _, err := m.Seed(testContext(), reqs); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	report, err := m.Check(testContext())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Consistent() || report.Records != 2 || report.IndexEntries != 4 {
		t.Fatalf("Check() on fresh seed = %+v, want consistent with 2 records and 4 entries", report)
	}

	// damage the index: one stale entry, one missing entry
	ctx := testContext()
	if err := stack.index.IndexRecord(ctx, "ghost", &storage.Decade{GT: 1500, LTE: 1501}); err != nil {
		t.Fatalf("IndexRecord() error = %v", err)
	}
	if err := stack.index.Unindex(ctx, reqs[0].ID, &storage.Decade{GT: 1991, LTE: 1992}); err != nil {
		t.Fatalf("Unindex() error = %v", err)
	}

	report, err = m.Check(ctx)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	wantStale := []service.IndexEntry{{Year: 1500, ID: "ghost"}}
	wantMissing := []service.IndexEntry{{Year: 1991, ID: reqs[0].ID}}
	if !reflect.DeepEqual(report.Stale, wantStale) {
		t.Errorf("Stale = %+v, want %+v", report.Stale, wantStale)
	}
	if !reflect.DeepEqual(report.Missing, wantMissing) {
		t.Errorf("Missing = %+v, want %+v", report.Missing, wantMissing)
	}

	stats, err := m.Reindex(ctx)
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if stats.Records != 2 || stats.Entries != 4 || stats.Mirrored != 0 {
		t.Errorf("Reindex() = %+v, want 2 records and 4 entries", stats)
	}

	report, err = m.Check(ctx)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Consistent() {
		t.Errorf("Check() after reindex = %+v, want consistent", report)
	}
}

func TestMaintenance_MirrorsIntoSearchIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stack := newTestStack(t)
	mirror := mocks.NewMockSearchIndex(ctrl)
	m := service.NewMaintenance(stack.records, stack.index, mirror, stack.gate, service.Limits{})
	reqs := seedRequests(t)

	mirror.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	if _, err := m.Seed(testContext(), reqs); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	gomock.InOrder(
		mirror.EXPECT().Clear(gomock.Any()).Return(nil),
		mirror.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2),
	)
	stats, err := m.Reindex(testContext())
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if stats.Mirrored != 2 {
		t.Errorf("Mirrored = %d, want 2", stats.Mirrored)
	}

	mirror.EXPECT().Delete(gomock.Any(), reqs[0].ID).Return(nil)
	if err := m.Delete(testContext(), reqs[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := stack.records.Get(testContext(), reqs[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	mirror.EXPECT().Clear(gomock.Any()).Return(errors.New("timeout"))
	if err := m.Reset(testContext()); !errors.Is(err, service.ErrExternalService) {
		t.Errorf("Reset() error = %v, want ErrExternalService", err)
	}
}

func TestMaintenance_DeleteUnknown(t *testing.T) {
	err := newTestStack(t).maintenance().Delete(testContext(), "missing")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
