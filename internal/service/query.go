package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks -mock_names=QueryService=MockQueryService github.com/jigintern/2025-summer-c/internal/service QueryService

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/metrics"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// QueryRequest asks for records covering Year whose geometry intersects Box.
// Year may be storage.AllYears to disable the temporal filter.
type QueryRequest struct {
	Year int
	Box  geo.Box
}

// ParseQuery reads year, x, y, x2 and y2 from query parameters.
// A missing year means storage.AllYears. The box coordinates are required.
func ParseQuery(values url.Values) (QueryRequest, error) {
	req := QueryRequest{Year: storage.AllYears}

	if raw := values.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return QueryRequest{}, &ValidationError{Field: "year", Message: fmt.Sprintf("must be an integer, got %q", raw)}
		}
		if year != storage.AllYears && (year < storage.MinYear || year > storage.MaxYear) {
			return QueryRequest{}, &ValidationError{Field: "year", Message: fmt.Sprintf("must be -1 or a year between %d and %d", storage.MinYear, storage.MaxYear)}
		}
		req.Year = year
	}

	var coords [4]float64
	for i, name := range []string{"x", "y", "x2", "y2"} {
		raw := values.Get(name)
		if raw == "" {
			return QueryRequest{}, &ValidationError{Field: name, Message: "is required"}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return QueryRequest{}, &ValidationError{Field: name, Message: fmt.Sprintf("must be a finite number, got %q", raw)}
		}
		coords[i] = v
	}

	box, err := geo.NewBox(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		return QueryRequest{}, &ValidationError{Field: "box", Message: "x must not exceed x2 and y must not exceed y2"}
	}
	req.Box = box

	return req, nil
}

// QueryService answers spatial-temporal queries.
type QueryService interface {
	// Query returns the matching records in candidate order.
	Query(ctx context.Context, req QueryRequest) ([]*storage.Record, error)
}

// queryService implements QueryService.
type queryService struct {
	records storage.RecordStore
	index   storage.DecadeIndexStore
	search  SearchIndex
}

// NewQueryService creates a new QueryService. When search is non-nil it
// supplies the candidates instead of the decade index.
func NewQueryService(records storage.RecordStore, index storage.DecadeIndexStore, search SearchIndex) QueryService {
	return &queryService{
		records: records,
		index:   index,
		search:  search,
	}
}

// Query narrows by time through the candidate source, resolves each
// candidate and narrows by space.
func (s *queryService) Query(ctx context.Context, req QueryRequest) ([]*storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		candidates []*storage.Record
		source     string
		err        error
	)
	switch {
	case s.search != nil:
		source = "qdrant"
		candidates, err = s.fromSearch(ctx, req)
	case req.Year == storage.AllYears:
		source = "list"
		candidates, err = s.fromList(ctx)
	default:
		source = "index"
		candidates, err = s.fromIndex(ctx, req.Year)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to collect query candidates", "source", source, "error", err)
		return nil, err
	}

	matches := []*storage.Record{}
	for _, record := range candidates {
		if req.Year != storage.AllYears && !record.Decade.Covers(req.Year) {
			continue
		}
		if record.Geometry.Intersects(req.Box) {
			matches = append(matches, record)
		}
	}

	metrics.QueriesTotal.WithLabelValues(source).Inc()
	metrics.QueryCandidates.Observe(float64(len(candidates)))
	metrics.QueryMatches.Observe(float64(len(matches)))
	logger.DebugContext(ctx, "query processed",
		"year", req.Year,
		"source", source,
		"candidates", len(candidates),
		"matches", len(matches),
	)
	return matches, nil
}

func (s *queryService) fromList(ctx context.Context) ([]*storage.Record, error) {
	var records []*storage.Record
	for record, err := range s.records.List(ctx) {
		if err != nil {
			return nil, WrapError(err, "failed to list records")
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *queryService) fromIndex(ctx context.Context, year int) ([]*storage.Record, error) {
	ids, err := s.index.Query(ctx, year)
	if err != nil {
		return nil, WrapError(err, "failed to query decade index")
	}
	return s.resolve(ctx, ids)
}

func (s *queryService) fromSearch(ctx context.Context, req QueryRequest) ([]*storage.Record, error) {
	ids, err := s.search.Candidates(ctx, req.Year, req.Box)
	if err != nil {
		return nil, fmt.Errorf("%w: search index: %v", ErrExternalService, err)
	}
	return s.resolve(ctx, ids)
}

// resolve fetches each distinct id in order. Ids that no longer resolve are
// stale index entries: they are skipped, logged and counted.
func (s *queryService) resolve(ctx context.Context, ids []string) ([]*storage.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	seen := make(map[string]struct{}, len(ids))
	records := make([]*storage.Record, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		record, err := s.records.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			metrics.StaleIndexEntriesTotal.Inc()
			logger.WarnContext(ctx, "skipping stale index entry", "id", id)
			continue
		}
		if err != nil {
			return nil, WrapError(err, fmt.Sprintf("failed to resolve record %s", id))
		}
		records = append(records, record)
	}
	return records, nil
}
