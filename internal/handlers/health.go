package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecordCounter reports how many records are stored.
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
}

// CollectionChecker reports whether the search collection exists.
type CollectionChecker interface {
	CollectionExists(ctx context.Context) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              Pinger
	records            RecordCounter
	search             CollectionChecker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. search may be nil when no
// search index is configured.
func NewHealthHandler(store Pinger, records RecordCounter, search CollectionChecker) *HealthHandler {
	return &HealthHandler{
		store:              store,
		records:            records,
		search:             search,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of stored records, when the store could count them
	Records *int `json:"records,omitempty"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP checks the store and, when configured, the search index.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	response := HealthResponse{}

	if err := h.store.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "store health check failed", "error", err)
		checks["store"] = "error"
		issues = append(issues, "store_unavailable")
	} else {
		checks["store"] = "ok"
		if n, err := h.records.Count(checkCtx); err != nil {
			logger.WarnContext(ctx, "record count failed", "error", err)
		} else {
			response.Records = &n
		}
	}

	if h.search != nil {
		if h.checkSearch(checkCtx, logger) {
			checks["search_index"] = "ok"
		} else {
			checks["search_index"] = "error"
			issues = append(issues, "search_index_unavailable")
		}
	}

	response.Status = "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		response.Status = "unhealthy"
		response.Issues = issues
		httpStatus = http.StatusServiceUnavailable
	}
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)
	response.Checks = checks

	writeJSON(ctx, w, httpStatus, response)
}

// checkSearch checks if the search collection is accessible.
func (h *HealthHandler) checkSearch(ctx context.Context, logger *slog.Logger) bool {
	exists, err := h.search.CollectionExists(ctx)
	if err != nil {
		logger.WarnContext(ctx, "search index health check failed", "error", err)
		return false
	}
	if !exists {
		logger.WarnContext(ctx, "search index collection does not exist")
		return false
	}
	return true
}
