package service_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
func testContext() context.Context {
	return context.Background()
}

// testStack is a record store and decade index over an in-memory badger store.
type testStack struct {
	store   kv.Store
	index   *storage.DecadeIndex
	records *storage.RecordRepo
	gate    *service.Gate
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	store, err := kv.OpenBadger(kv.InMemoryBadgerConfig())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	index := storage.NewDecadeIndex(store)
	return &testStack{
		store:   store,
		index:   index,
		records: storage.NewRecordRepo(store, index, idgen.NewULIDGenerator(), storage.DefaultMaxRetries),
		gate:    service.NewGate(),
	}
}

func (s *testStack) submissions() service.SubmissionService {
	return service.NewSubmissionService(s.records, nil, s.gate, service.Limits{})
}

func (s *testStack) queries() service.QueryService {
	return service.NewQueryService(s.records, s.index, nil)
}

func (s *testStack) threads() service.ThreadService {
	return service.NewThreadService(s.records, idgen.NewULIDGenerator(), s.gate)
}

func (s *testStack) maintenance() *service.Maintenance {
	return service.NewMaintenance(s.records, s.index, nil, s.gate, service.Limits{})
}

func intp(v int) *int { return &v }

func decade(gt, lte int) *service.DecadeInput {
	return &service.DecadeInput{GT: intp(gt), LTE: intp(lte)}
}

func geometryJSON(t *testing.T, g geo.Geometry) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal geometry: %v", err)
	}
	return data
}

// boxAt is a 1x1 box geometry with its origin at (x, y).
func boxAt(t *testing.T, x, y float64) json.RawMessage {
	return geometryJSON(t, geo.NewBoxGeometry(geo.BoxShape{X: x, Y: y, H: 1, W: 1}))
}

func mustSubmit(t *testing.T, svc service.SubmissionService, req service.SubmitRequest) *storage.Record {
	t.Helper()
	record, err := svc.Submit(testContext(), req)
	if err != nil {
		t.Fatalf("Submit(%q) error = %v", req.Name, err)
	}
	return record
}

func ids(records []*storage.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func mustBox(t *testing.T, xMin, yMin, xMax, yMax float64) geo.Box {
	t.Helper()
	b, err := geo.NewBox(xMin, yMin, xMax, yMax)
	if err != nil {
		t.Fatalf("NewBox() error = %v", err)
	}
	return b
}
