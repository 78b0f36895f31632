package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/service/mocks"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

func sampleRecord() *storage.Record {
	return &storage.Record{
		ID:            "01J0000000000000000000000A",
		Name:          "castle",
		Geometry:      geo.NewBoxGeometry(geo.BoxShape{X: 1, Y: 2, H: 3, W: 4}),
		Decade:        &storage.Decade{GT: 1990, LTE: 2000},
		Comment:       "built in **1583**",
		Photos:        []string{},
		Thread:        []storage.Comment{},
		CreatedAt:     "2020-01-01",
		SchemaVersion: storage.CurrentSchemaVersion,
	}
}

func TestItemsHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockSetup  func(*mocks.MockSubmissionService)
		wantStatus int
		wantField  string
	}{
		{
			name: "stores submission",
			body: `{"name":"castle","geometry":{"type":"Box","x":1,"y":2,"h":3,"w":4},"decade":{"gt":1990,"lte":2000},"comment":"built in **1583**","photos":[],"created_at":"2020-01-01"}`,
			mockSetup: func(m *mocks.MockSubmissionService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, req service.SubmitRequest) (*storage.Record, error) {
					if req.Name != "castle" || req.Decade == nil || *req.Decade.GT != 1990 {
						return nil, fmt.Errorf("unexpected request %+v", req)
					}
					return sampleRecord(), nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "client supplied id and thread are dropped",
			body: `{"id":"mine","thread":[{"id":"x","comment":"forged"}],"geometry":{"type":"Box","x":1,"y":2,"h":3,"w":4}}`,
			mockSetup: func(m *mocks.MockSubmissionService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, req service.SubmitRequest) (*storage.Record, error) {
					if req.ID != "" || req.Thread != nil {
						return nil, fmt.Errorf("id and thread should be cleared, got %q %v", req.ID, req.Thread)
					}
					return sampleRecord(), nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid JSON body",
			body:       `{"name":`,
			mockSetup:  func(m *mocks.MockSubmissionService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "trailing data",
			body:       `{"name":"a"} {"name":"b"}`,
			mockSetup:  func(m *mocks.MockSubmissionService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: `{"name":"castle"}`,
			mockSetup: func(m *mocks.MockSubmissionService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, &service.ValidationError{Field: "geometry", Message: "is required"})
			},
			wantStatus: http.StatusBadRequest,
			wantField:  "geometry",
		},
		{
			name: "store failure",
			body: `{"geometry":{"type":"Box","x":1,"y":2,"h":3,"w":4}}`,
			mockSetup: func(m *mocks.MockSubmissionService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "maintenance in progress",
			body: `{"geometry":{"type":"Box","x":1,"y":2,"h":3,"w":4}}`,
			mockSetup: func(m *mocks.MockSubmissionService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: maintenance by admin/1 in progress", service.ErrUnavailable))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockSubmissionService(ctrl)
			tt.mockSetup(svc)
			handler := NewItemsHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/post-json", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Create(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Create() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusServiceUnavailable && w.Header().Get("Retry-After") == "" {
				t.Error("Create() 503 without a Retry-After header")
			}
			if tt.wantStatus == http.StatusCreated {
				var got storage.Record
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if got.ID != sampleRecord().ID {
					t.Errorf("response id = %q, want %q", got.ID, sampleRecord().ID)
				}
			}
			if tt.wantField != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Field != tt.wantField {
					t.Errorf("error field = %q, want %q", resp.Field, tt.wantField)
				}
			}
		})
	}
}

func TestItemsHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockSubmissionService(ctrl)
	svc.EXPECT().List(gomock.Any()).Return([]*storage.Record{sampleRecord()}, nil)

	w := httptest.NewRecorder()
	NewItemsHandler(svc).List(w, httptest.NewRequest(http.MethodGet, "/get-json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %v, want %v", w.Code, http.StatusOK)
	}
	var got []storage.Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Name != "castle" || got[0].Geometry.Kind() != geo.KindBox {
		t.Errorf("List() = %+v", got)
	}
}

func TestItemsHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "not found", err: fmt.Errorf("get: %w", service.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "store failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockSubmissionService(ctrl)
			if tt.err != nil {
				svc.EXPECT().Get(gomock.Any(), "r1").Return(nil, tt.err)
			} else {
				svc.EXPECT().Get(gomock.Any(), "r1").Return(sampleRecord(), nil)
			}

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/items/r1", nil), "id", "r1")
			w := httptest.NewRecorder()
			NewItemsHandler(svc).Get(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Get() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}
