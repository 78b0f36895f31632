package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/service"
)

// CommentsHandler handles HTTP requests for comment threads.
type CommentsHandler struct {
	threads service.ThreadService
}

// NewCommentsHandler creates a new CommentsHandler.
func NewCommentsHandler(threads service.ThreadService) *CommentsHandler {
	return &CommentsHandler{
		threads: threads,
	}
}

// AddCommentRequest is the body of a new comment. ID may be omitted when
// the record id is part of the URL.
type AddCommentRequest struct {
	ID        string `json:"id"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// recordID prefers the {id} URL parameter over the ?id= query parameter.
func recordID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return r.URL.Query().Get("id")
}

// List returns the thread of a record.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := recordID(r)
	ctx := contextutil.With(r.Context(), "record_id", id)

	thread, err := h.threads.GetThread(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get comments")
		return
	}

	writeJSON(ctx, w, http.StatusOK, thread)
}

// Add appends a comment and returns it.
func (h *CommentsHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AddCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		id = req.ID
	}
	ctx = contextutil.With(ctx, "record_id", id)

	comment, err := h.threads.AddComment(ctx, service.AddCommentRequest{
		RecordID:  id,
		Comment:   req.Comment,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to add comment")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, comment)
}
