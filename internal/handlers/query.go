package handlers

import (
	"net/http"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/service"
)

// QueryHandler handles spatial-temporal queries.
type QueryHandler struct {
	queries service.QueryService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries service.QueryService) *QueryHandler {
	return &QueryHandler{
		queries: queries,
	}
}

// ServeHTTP answers GET ?year=&x=&y=&x2=&y2= with the matching notes.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := service.ParseQuery(r.URL.Query())
	if err != nil {
		handleServiceError(ctx, w, err, "Invalid query")
		return
	}

	records, err := h.queries.Query(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to run query")
		return
	}

	writeJSON(ctx, w, http.StatusOK, records)
}
