package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_submission_service.go -package=mocks -mock_names=SubmissionService=MockSubmissionService github.com/jigintern/2025-summer-c/internal/service SubmissionService

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/metrics"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// submitValidate checks the static shape of submissions.
var submitValidate *validator.Validate

func init() {
	submitValidate = validator.New()
	submitValidate.RegisterTagNameFunc(jsonFieldName)
	_ = submitValidate.RegisterValidation("notblank", validators.NotBlank)
}

// jsonFieldName reports fields by their JSON names in validation errors.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Default limits applied when Limits fields are zero.
const (
	DefaultMaxDecadeSpan = 1000
	DefaultMaxPhotos     = 20
)

// Limits bounds what a single submission may contain.
type Limits struct {
	// MaxDecadeSpan is the largest allowed lte - gt.
	MaxDecadeSpan int
	// MaxPhotos is the largest allowed number of photo references.
	MaxPhotos int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDecadeSpan <= 0 {
		l.MaxDecadeSpan = DefaultMaxDecadeSpan
	}
	if l.MaxPhotos <= 0 {
		l.MaxPhotos = DefaultMaxPhotos
	}
	return l
}

// DecadeInput is the submitted time range. Both bounds are required when the
// decade is present at all.
type DecadeInput struct {
	GT  *int `json:"gt" validate:"required"`
	LTE *int `json:"lte" validate:"required"`
}

// SubmitRequest represents a new map note in the domain layer.
type SubmitRequest struct {
	// ID and Thread are only honoured by Maintenance.Seed.
	ID     string            `json:"id"`
	Thread []storage.Comment `json:"thread"`

	Name string `json:"name" validate:"max=200"`
	// Geometry is a GeoJSON Polygon, MultiPolygon or Feature, or a Box object.
	Geometry json.RawMessage `json:"geometry"`
	// Coordinate is the box of schema version 1 submissions. It is used only
	// when Geometry is absent.
	Coordinate *geo.BoxShape `json:"coordinate"`
	Decade     *DecadeInput  `json:"decade"`
	Comment    string        `json:"comment" validate:"max=10000"`
	Photos     []string      `json:"photos" validate:"dive,notblank,max=2048"`
	CreatedAt  string        `json:"created_at"`
}

// SubmissionService stores and reads map notes.
type SubmissionService interface {
	// Submit validates req and stores it as a new record.
	Submit(ctx context.Context, req SubmitRequest) (*storage.Record, error)
	// Get returns a single record.
	Get(ctx context.Context, id string) (*storage.Record, error)
	// List returns every record in insertion order.
	List(ctx context.Context) ([]*storage.Record, error)
}

// submissionService implements SubmissionService.
type submissionService struct {
	records storage.RecordStore
	mirror  SearchIndex
	gate    *Gate
	limits  Limits
	now     func() time.Time
}

// NewSubmissionService creates a new SubmissionService. mirror may be nil.
func NewSubmissionService(records storage.RecordStore, mirror SearchIndex, gate *Gate, limits Limits) SubmissionService {
	return newSubmissionService(records, mirror, gate, limits)
}

func newSubmissionService(records storage.RecordStore, mirror SearchIndex, gate *Gate, limits Limits) *submissionService {
	if gate == nil {
		gate = NewGate()
	}
	return &submissionService{
		records: records,
		mirror:  mirror,
		gate:    gate,
		limits:  limits.withDefaults(),
		now:     time.Now,
	}
}

// Submit processes a new submission.
func (s *submissionService) Submit(ctx context.Context, req SubmitRequest) (*storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	record, err := buildRecord(req, s.limits, s.now)
	if err != nil {
		logger.WarnContext(ctx, "rejected submission", "error", err)
		return nil, err
	}

	if err := s.store(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to store submission", "error", err)
		return nil, err
	}

	metrics.RecordsSubmittedTotal.Inc()
	logger.InfoContext(ctx, "stored submission", "id", record.ID, "kind", record.Geometry.Kind(), "decade", record.Decade)
	return record, nil
}

// store writes a built record and mirrors it. Mirror failures are logged
// and counted; the record store stays the source of truth.
func (s *submissionService) store(ctx context.Context, record *storage.Record) error {
	ctx, release, err := s.gate.Shared(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.records.Put(ctx, record); err != nil {
		return mapStorageError(err, "failed to store record")
	}

	if s.mirror != nil {
		if err := s.mirror.Upsert(ctx, record); err != nil {
			metrics.MirrorFailuresTotal.WithLabelValues("upsert").Inc()
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to mirror record", "id", record.ID, "error", err)
		}
	}
	return nil
}

// Get returns a single record.
func (s *submissionService) Get(ctx context.Context, id string) (*storage.Record, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, mapStorageError(err, fmt.Sprintf("failed to get record %s", id))
	}
	return record, nil
}

// List returns every record.
func (s *submissionService) List(ctx context.Context) ([]*storage.Record, error) {
	records := []*storage.Record{}
	for record, err := range s.records.List(ctx) {
		if err != nil {
			return nil, WrapError(err, "failed to list records")
		}
		records = append(records, record)
	}
	return records, nil
}

// buildRecord validates req and turns it into a record ready to be stored.
func buildRecord(req SubmitRequest, limits Limits, now func() time.Time) (*storage.Record, error) {
	limits = limits.withDefaults()

	if err := submitValidate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}
	if len(req.Photos) > limits.MaxPhotos {
		return nil, &ValidationError{Field: "photos", Message: fmt.Sprintf("at most %d photos allowed", limits.MaxPhotos)}
	}

	geometry, err := resolveGeometry(req)
	if err != nil {
		return nil, err
	}

	decade, err := resolveDecade(req.Decade, limits.MaxDecadeSpan)
	if err != nil {
		return nil, err
	}

	createdAt, err := resolveCreatedAt(req.CreatedAt, now)
	if err != nil {
		return nil, err
	}

	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	return &storage.Record{
		Name:          req.Name,
		Geometry:      geometry,
		Decade:        decade,
		Comment:       req.Comment,
		Photos:        photos,
		Thread:        []storage.Comment{},
		CreatedAt:     createdAt,
		SchemaVersion: storage.CurrentSchemaVersion,
	}, nil
}

func resolveGeometry(req SubmitRequest) (geo.Geometry, error) {
	var g geo.Geometry

	raw := bytes.TrimSpace(req.Geometry)
	switch {
	case len(raw) > 0 && !bytes.Equal(raw, []byte("null")):
		if err := json.Unmarshal(raw, &g); err != nil {
			return geo.Geometry{}, &ValidationError{Field: "geometry", Message: geometryMessage(err)}
		}
	case req.Coordinate != nil:
		g = geo.NewBoxGeometry(*req.Coordinate)
	default:
		return geo.Geometry{}, &ValidationError{Field: "geometry", Message: "is required"}
	}

	if err := g.Validate(); err != nil {
		return geo.Geometry{}, &ValidationError{Field: "geometry", Message: geometryMessage(err)}
	}
	return g, nil
}

func geometryMessage(err error) string {
	if errors.Is(err, geo.ErrInvalidGeometry) {
		return err.Error()
	}
	return "invalid geometry: " + err.Error()
}

// resolveDecade applies the decade rule: both bounds lie in
// [storage.MinYear, storage.MaxYear], gt must not exceed lte and the span
// must stay within maxSpan. A nil decade stays nil (undated record).
func resolveDecade(in *DecadeInput, maxSpan int) (*storage.Decade, error) {
	if in == nil {
		return nil, nil
	}
	gt, lte := *in.GT, *in.LTE
	for _, bound := range []struct {
		field string
		year  int
	}{{"decade.gt", gt}, {"decade.lte", lte}} {
		if bound.year < storage.MinYear || bound.year > storage.MaxYear {
			return nil, &ValidationError{Field: bound.field, Message: fmt.Sprintf("must be between %d and %d", storage.MinYear, storage.MaxYear)}
		}
	}
	if gt > lte {
		return nil, &ValidationError{Field: "decade", Message: fmt.Sprintf("gt (%d) must not exceed lte (%d)", gt, lte)}
	}
	if lte-gt > maxSpan {
		return nil, &ValidationError{Field: "decade", Message: fmt.Sprintf("span of %d years exceeds the maximum of %d", lte-gt, maxSpan)}
	}
	return &storage.Decade{GT: gt, LTE: lte}, nil
}

// createdAtLayouts are the accepted ISO-8601 forms of created_at.
var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func resolveCreatedAt(s string, now func() time.Time) (string, error) {
	if s == "" {
		return now().UTC().Format(time.RFC3339), nil
	}
	for _, layout := range createdAtLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "created_at", Message: "must be an ISO-8601 date or timestamp"}
}
