package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/service/mocks"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

func mockDeps(ctrl *gomock.Controller) *Deps {
	return &Deps{
		Submissions: mocks.NewMockSubmissionService(ctrl),
		Queries:     mocks.NewMockQueryService(ctrl),
		Threads:     mocks.NewMockThreadService(ctrl),
		IndexHTML:   "<html><body>Test</body></html>",
	}
}

// newTestServer wires the real services over an in-memory badger store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := kv.OpenBadger(kv.InMemoryBadgerConfig())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	index := storage.NewDecadeIndex(store)
	records := storage.NewRecordRepo(store, index, idgen.NewULIDGenerator(), storage.DefaultMaxRetries)
	gate := service.NewGate()

	srv := httptest.NewServer(NewRouter(&Deps{
		Submissions: service.NewSubmissionService(records, nil, gate, service.Limits{}),
		Queries:     service.NewQueryService(records, index, nil),
		Threads:     service.NewThreadService(records, idgen.NewULIDGenerator(), gate),
		Store:       store,
		Records:     records,
		IndexHTML:   "<html></html>",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(mockDeps(ctrl))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "GET root serves HTML",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /post-json exists",
			method:     http.MethodPost,
			path:       "/post-json",
			wantStatus: http.StatusBadRequest, // Bad request due to empty body, but route exists
		},
		{
			name:       "POST /post-comments exists",
			method:     http.MethodPost,
			path:       "/post-comments",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET /query-json validates parameters",
			method:     http.MethodGet,
			path:       "/query-json?year=2000",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET /post-json method not allowed",
			method:     http.MethodGet,
			path:       "/post-json",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "POST /query-json method not allowed",
			method:     http.MethodPost,
			path:       "/query-json",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "GET /metrics",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_RootServesHTML(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps := mockDeps(ctrl)
	deps.IndexHTML = "<html><body>Test HTML</body></html>"
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Router GET / status = %v, want %v", w.Code, http.StatusOK)
	}

	if w.Body.String() != deps.IndexHTML {
		t.Errorf("Router GET / body = %v, want %v", w.Body.String(), deps.IndexHTML)
	}

	if w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Errorf("Router GET / Content-Type = %v, want text/html; charset=utf-8", w.Header().Get("Content-Type"))
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(mockDeps(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/post-json", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestRouter_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	var created storage.Record
	status := doJSON(t, http.MethodPost, srv.URL+"/post-json",
		`{"name":"castle","geometry":{"type":"Box","x":10,"y":10,"h":2,"w":2},"decade":{"gt":1990,"lte":2000},"comment":"old","photos":[]}`,
		&created)
	if status != http.StatusCreated {
		t.Fatalf("POST /post-json status = %v, want %v", status, http.StatusCreated)
	}
	if !idgen.Valid(created.ID) {
		t.Fatalf("created id %q is not a ULID", created.ID)
	}

	var all []storage.Record
	if status := doJSON(t, http.MethodGet, srv.URL+"/get-json", "", &all); status != http.StatusOK || len(all) != 1 {
		t.Fatalf("GET /get-json = %v with %d records", status, len(all))
	}

	var hits []storage.Record
	doJSON(t, http.MethodGet, srv.URL+"/query-json?year=1995&x=0&y=0&x2=20&y2=20", "", &hits)
	if len(hits) != 1 || hits[0].ID != created.ID {
		t.Errorf("query inside decade and box = %v, want [%s]", hits, created.ID)
	}
	hits = nil
	doJSON(t, http.MethodGet, srv.URL+"/query-json?year=2000&x=0&y=0&x2=20&y2=20", "", &hits)
	if len(hits) != 0 {
		t.Errorf("query outside decade returned %d records", len(hits))
	}

	var comment storage.Comment
	body, _ := json.Marshal(map[string]string{"id": created.ID, "comment": "still there"})
	if status := doJSON(t, http.MethodPost, srv.URL+"/post-comments", string(body), &comment); status != http.StatusCreated {
		t.Fatalf("POST /post-comments status = %v", status)
	}

	var thread []storage.Comment
	doJSON(t, http.MethodGet, srv.URL+"/api/items/"+created.ID+"/comments", "", &thread)
	if len(thread) != 1 || thread[0].ID != comment.ID {
		t.Errorf("thread = %+v, want [%s]", thread, comment.ID)
	}

	resp, err := http.Get(srv.URL + "/items/" + created.ID)
	if err != nil {
		t.Fatalf("GET note page: %v", err)
	}
	var page bytes.Buffer
	_, _ = page.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(page.String(), "still there") {
		t.Errorf("note page status = %v, missing comment text", resp.StatusCode)
	}

	var health struct {
		Status  string `json:"status"`
		Records *int   `json:"records"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", &health); status != http.StatusOK {
		t.Fatalf("GET /api/health status = %v", status)
	}
	if health.Status != "healthy" || health.Records == nil || *health.Records != 1 {
		t.Errorf("health = %+v", health)
	}
}
