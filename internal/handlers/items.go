package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/service"
)

// ItemsHandler handles HTTP requests for map notes.
type ItemsHandler struct {
	submissions service.SubmissionService
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(submissions service.SubmissionService) *ItemsHandler {
	return &ItemsHandler{
		submissions: submissions,
	}
}

// Create stores a submitted note and returns the stored record.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req service.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// ids and threads are server assigned
	req.ID = ""
	req.Thread = nil

	record, err := h.submissions.Submit(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to store note")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, record)
}

// List returns every stored note.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.submissions.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list notes")
		return
	}

	writeJSON(ctx, w, http.StatusOK, records)
}

// Get returns the note named by the {id} URL parameter.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := contextutil.With(r.Context(), "record_id", id)

	record, err := h.submissions.Get(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get note")
		return
	}

	writeJSON(ctx, w, http.StatusOK, record)
}
