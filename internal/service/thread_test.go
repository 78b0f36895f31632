package service_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
	storage_mocks "github.com/jigintern/2025-summer-c/internal/storage/mocks"
)

func TestThreadService_FreshRecordHasEmptyThread(t *testing.T) {
	stack := newTestStack(t)
	record := mustSubmit(t, stack.submissions(), service.SubmitRequest{Name: "A", Geometry: boxAt(t, 0, 0)})

	thread, err := stack.threads().GetThread(testContext(), record.ID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if thread == nil || len(thread) != 0 {
		t.Errorf("GetThread() = %v, want empty non-nil slice", thread)
	}
}

func TestThreadService_AddComment(t *testing.T) {
	stack := newTestStack(t)
	record := mustSubmit(t, stack.submissions(), service.SubmitRequest{Name: "A", Geometry: boxAt(t, 0, 0)})
	threads := stack.threads()

	first, err := threads.AddComment(testContext(), service.AddCommentRequest{RecordID: record.ID, Comment: "first", CreatedAt: "2024-05-01T10:00:00Z"})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	second, err := threads.AddComment(testContext(), service.AddCommentRequest{RecordID: record.ID, Comment: "second"})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	if !idgen.Valid(first.ID) || !idgen.Valid(second.ID) {
		t.Errorf("comment ids %q, %q are not ULIDs", first.ID, second.ID)
	}
	if first.CreatedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("CreatedAt = %q, want the submitted timestamp", first.CreatedAt)
	}
	if second.CreatedAt == "" {
		t.Error("CreatedAt not filled in")
	}

	thread, err := threads.GetThread(testContext(), record.ID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if len(thread) != 2 || thread[0].ID != first.ID || thread[1].ID != second.ID {
		t.Errorf("GetThread() = %+v, want [first second]", thread)
	}
}

func TestThreadService_AddCommentValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       service.AddCommentRequest
		wantField string
	}{
		{name: "missing id", req: service.AddCommentRequest{Comment: "hi"}, wantField: "id"},
		{name: "empty comment", req: service.AddCommentRequest{RecordID: "r1"}, wantField: "comment"},
		{name: "whitespace comment", req: service.AddCommentRequest{RecordID: "r1", Comment: " \n\t"}, wantField: "comment"},
		{name: "comment too long", req: service.AddCommentRequest{RecordID: "r1", Comment: strings.Repeat("a", service.MaxCommentLength+1)}, wantField: "comment"},
		{name: "bad created_at", req: service.AddCommentRequest{RecordID: "r1", Comment: "hi", CreatedAt: "01/02/2024"}, wantField: "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := service.NewThreadService(storage_mocks.NewMockRecordStore(ctrl), idgen.NewULIDGenerator(), nil)
			_, err := svc.AddComment(testContext(), tt.req)

			var vErr *service.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("AddComment() error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("AddComment() field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestThreadService_StoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "unknown record", err: fmt.Errorf("get items/x: %w", storage.ErrNotFound), wantErr: service.ErrNotFound},
		{name: "retries exhausted", err: fmt.Errorf("append comment: %w", storage.ErrConflict), wantErr: service.ErrConflict},
		{name: "i/o failure", err: errors.New("disk full"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			records := storage_mocks.NewMockRecordStore(ctrl)
			records.EXPECT().AppendComment(gomock.Any(), "x", gomock.Any()).Return(nil, tt.err)

			svc := service.NewThreadService(records, idgen.NewULIDGenerator(), nil)
			_, err := svc.AddComment(testContext(), service.AddCommentRequest{RecordID: "x", Comment: "hi"})
			if err == nil {
				t.Fatal("AddComment() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("AddComment() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !errors.Is(err, tt.err) {
				t.Errorf("AddComment() error = %v, want wrapped %v", err, tt.err)
			}
		})
	}
}

func TestThreadService_GetThreadUnknownRecord(t *testing.T) {
	_, err := newTestStack(t).threads().GetThread(testContext(), "missing")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("GetThread() error = %v, want ErrNotFound", err)
	}
}

func TestThreadService_ConcurrentComments(t *testing.T) {
	stack := newTestStack(t)
	record := mustSubmit(t, stack.submissions(), service.SubmitRequest{Name: "busy", Geometry: boxAt(t, 0, 0)})
	threads := service.NewThreadService(
		storage.NewRecordRepo(stack.store, stack.index, idgen.NewULIDGenerator(), 100),
		idgen.NewULIDGenerator(),
		stack.gate,
	)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := threads.AddComment(testContext(), service.AddCommentRequest{RecordID: record.ID, Comment: fmt.Sprintf("comment %d", i)}); err != nil {
				t.Errorf("AddComment(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	thread, err := threads.GetThread(testContext(), record.ID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if len(thread) != writers {
		t.Errorf("thread has %d comments, want %d", len(thread), writers)
	}
}
