package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_thread_service.go -package=mocks -mock_names=ThreadService=MockThreadService github.com/jigintern/2025-summer-c/internal/service ThreadService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/metrics"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// MaxCommentLength bounds a single comment in bytes.
const MaxCommentLength = 4000

// AddCommentRequest represents a new thread entry in the domain layer.
type AddCommentRequest struct {
	RecordID  string
	Comment   string
	CreatedAt string
}

// ThreadService manages the comment threads of records.
type ThreadService interface {
	// AddComment appends a comment to a record's thread.
	AddComment(ctx context.Context, req AddCommentRequest) (storage.Comment, error)
	// GetThread returns a record's comments in insertion order.
	GetThread(ctx context.Context, recordID string) ([]storage.Comment, error)
}

// threadService implements ThreadService.
type threadService struct {
	records storage.RecordStore
	ids     idgen.Generator
	gate    *Gate
	now     func() time.Time
}

// NewThreadService creates a new ThreadService.
func NewThreadService(records storage.RecordStore, ids idgen.Generator, gate *Gate) ThreadService {
	if gate == nil {
		gate = NewGate()
	}
	return &threadService{
		records: records,
		ids:     ids,
		gate:    gate,
		now:     time.Now,
	}
}

// AddComment validates and appends a comment.
func (s *threadService) AddComment(ctx context.Context, req AddCommentRequest) (storage.Comment, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.RecordID == "" {
		return storage.Comment{}, &ValidationError{Field: "id", Message: "is required"}
	}
	if strings.TrimSpace(req.Comment) == "" {
		logger.WarnContext(ctx, "empty comment", "id", req.RecordID)
		return storage.Comment{}, &ValidationError{Field: "comment", Message: "cannot be empty"}
	}
	if len(req.Comment) > MaxCommentLength {
		return storage.Comment{}, &ValidationError{Field: "comment", Message: fmt.Sprintf("must be at most %d bytes", MaxCommentLength)}
	}

	createdAt, err := resolveCreatedAt(req.CreatedAt, s.now)
	if err != nil {
		return storage.Comment{}, err
	}

	comment := storage.Comment{
		ID:        s.ids.NewID(),
		Comment:   req.Comment,
		CreatedAt: createdAt,
	}

	writeCtx, release, err := s.gate.Shared(ctx)
	if err != nil {
		logger.WarnContext(ctx, "comment refused", "id", req.RecordID, "error", err)
		return storage.Comment{}, err
	}
	defer release()

	if _, err := s.records.AppendComment(writeCtx, req.RecordID, comment); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			logger.WarnContext(ctx, "comment for unknown record", "id", req.RecordID)
		case errors.Is(err, storage.ErrConflict):
			metrics.CommentConflictsTotal.Inc()
			logger.WarnContext(ctx, "comment lost to concurrent writers", "id", req.RecordID, "error", err)
		default:
			logger.ErrorContext(ctx, "failed to append comment", "id", req.RecordID, "error", err)
		}
		return storage.Comment{}, mapStorageError(err, "failed to append comment")
	}

	metrics.CommentsAddedTotal.Inc()
	logger.InfoContext(ctx, "comment added", "id", req.RecordID, "comment_id", comment.ID)
	return comment, nil
}

// GetThread returns an empty, non-nil slice for a record without comments.
func (s *threadService) GetThread(ctx context.Context, recordID string) ([]storage.Comment, error) {
	if recordID == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, mapStorageError(err, fmt.Sprintf("failed to get thread of %s", recordID))
	}
	if record.Thread == nil {
		return []storage.Comment{}, nil
	}
	return record.Thread, nil
}
