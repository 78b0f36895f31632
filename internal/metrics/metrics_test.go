package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStaleIndexEntriesTotal(t *testing.T) {
	before := testutil.ToFloat64(StaleIndexEntriesTotal)
	StaleIndexEntriesTotal.Inc()
	if got := testutil.ToFloat64(StaleIndexEntriesTotal); got != before+1 {
		t.Errorf("StaleIndexEntriesTotal = %v, want %v", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	QueriesTotal.WithLabelValues("index").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Handler() status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"mapnotes_queries_total", "mapnotes_stale_index_entries_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("Handler() output missing %s", name)
		}
	}
}
