package geoindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/geo"
	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// Payload fields stored with every point.
const (
	fieldRecordID = "record_id"
	fieldYearFrom = "year_from"
	fieldYearTo   = "year_to"
	fieldMinX     = "min_x"
	fieldMinY     = "min_y"
	fieldMaxX     = "max_x"
	fieldMaxY     = "max_y"
)

// vectorSize is the length of the placeholder vector. Points are only ever
// found through payload filters.
const vectorSize = 1

// scrollPageSize is how many points one scroll request returns.
const scrollPageSize = 256

// idNamespace derives point ids for record ids that are not ULIDs.
var idNamespace = uuid.MustParse("5b0c7f0e-3c1a-4f0e-9d8e-6d61706e6f74")

// QdrantIndex mirrors records into a Qdrant collection so time and bounding
// box prefiltering can run server side.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantIndex creates a client for the collection.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantIndex(urlStr, collection string) (*QdrantIndex, error) {
	host, port, err := grpcTarget(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   port,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
	}, nil
}

// grpcTarget returns the gRPC host and port for a Qdrant HTTP URL.
func grpcTarget(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close closes the underlying connection.
func (ix *QdrantIndex) Close() error {
	return ix.client.Close()
}

// Upsert mirrors a record as a single point.
func (ix *QdrantIndex) Upsert(ctx context.Context, record *storage.Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: ix.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(pointID(record.ID)),
			Vectors: qdrant.NewVectors(1),
			Payload: qdrant.NewValueMap(payload(record)),
		}},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert point", "collection", ix.collection, "id", record.ID, "error", err)
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	logger.DebugContext(ctx, "upserted point", "collection", ix.collection, "id", record.ID)
	return nil
}

// Delete removes the point mirroring a record.
func (ix *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ix.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewID(pointID(id))),
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete point", "collection", ix.collection, "id", id, "error", err)
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

// Clear removes every point in the collection.
func (ix *QdrantIndex) Clear(ctx context.Context) error {
	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ix.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
	})
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "cleared collection", "collection", ix.collection)
	return nil
}

// Candidates scrolls through every point whose year range covers year and
// whose bounding box overlaps box.
func (ix *QdrantIndex) Candidates(ctx context.Context, year int, box geo.Box) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req := &qdrant.ScrollPoints{
		CollectionName: ix.collection,
		Filter:         candidateFilter(year, box),
		Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
		WithPayload:    qdrant.NewWithPayloadInclude(fieldRecordID),
	}

	var ids []string
	for {
		points, next, err := ix.client.ScrollAndOffset(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to scroll points", "collection", ix.collection, "error", err)
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}
		for _, p := range points {
			if id := p.GetPayload()[fieldRecordID].GetStringValue(); id != "" {
				ids = append(ids, id)
			}
		}
		if next == nil {
			break
		}
		req.Offset = next
	}

	logger.DebugContext(ctx, "scrolled candidates", "collection", ix.collection, "year", year, "candidates", len(ids))
	return ids, nil
}

// CollectionExists checks if the collection exists.
func (ix *QdrantIndex) CollectionExists(ctx context.Context) (bool, error) {
	exists, err := ix.client.CollectionExists(ctx, ix.collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection creates the collection and its payload indexes when
// missing. An existing collection must have the placeholder vector size.
func (ix *QdrantIndex) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := ix.CollectionExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		info, err := ix.client.GetCollectionInfo(ctx, ix.collection)
		if err != nil {
			return fmt.Errorf("failed to get collection info: %w", err)
		}
		params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
		if params == nil {
			return fmt.Errorf("collection vector params are invalid")
		}
		if params.GetSize() != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, params.GetSize())
		}
		logger.InfoContext(ctx, "collection validated", "collection", ix.collection)
		return nil
	}

	logger.InfoContext(ctx, "creating collection", "collection", ix.collection)
	err = ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Dot,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	for field, fieldType := range payloadIndexes {
		_, err := ix.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: ix.collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      field,
			FieldType:      qdrant.PtrOf(fieldType),
		})
		if err != nil {
			return fmt.Errorf("failed to index payload field %s: %w", field, err)
		}
	}

	logger.InfoContext(ctx, "collection created", "collection", ix.collection)
	return nil
}

var payloadIndexes = map[string]qdrant.FieldType{
	fieldRecordID: qdrant.FieldType_FieldTypeKeyword,
	fieldYearFrom: qdrant.FieldType_FieldTypeInteger,
	fieldYearTo:   qdrant.FieldType_FieldTypeInteger,
	fieldMinX:     qdrant.FieldType_FieldTypeFloat,
	fieldMinY:     qdrant.FieldType_FieldTypeFloat,
	fieldMaxX:     qdrant.FieldType_FieldTypeFloat,
	fieldMaxY:     qdrant.FieldType_FieldTypeFloat,
}

// pointID maps a record id to a Qdrant point UUID. ULIDs keep their 128 bits;
// other ids get a name-based UUID.
func pointID(recordID string) string {
	if u, err := idgen.UUID(recordID); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(idNamespace, []byte(recordID)).String()
}

// payload describes a record's time range and bounding box. Undated records
// carry no year fields and so never match a year filter.
func payload(record *storage.Record) map[string]any {
	bound := record.Geometry.Bound()
	p := map[string]any{
		fieldRecordID: record.ID,
		fieldMinX:     bound.Min.X(),
		fieldMinY:     bound.Min.Y(),
		fieldMaxX:     bound.Max.X(),
		fieldMaxY:     bound.Max.Y(),
	}
	if first, last, ok := record.Decade.Span(); ok {
		p[fieldYearFrom] = first
		p[fieldYearTo] = last
	}
	return p
}

// candidateFilter matches points whose bound overlaps box and, unless year
// is storage.AllYears, whose year range covers year.
func candidateFilter(year int, box geo.Box) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewRange(fieldMinX, &qdrant.Range{Lte: qdrant.PtrOf(box.XMax)}),
		qdrant.NewRange(fieldMaxX, &qdrant.Range{Gte: qdrant.PtrOf(box.XMin)}),
		qdrant.NewRange(fieldMinY, &qdrant.Range{Lte: qdrant.PtrOf(box.YMax)}),
		qdrant.NewRange(fieldMaxY, &qdrant.Range{Gte: qdrant.PtrOf(box.YMin)}),
	}
	if year != storage.AllYears {
		y := float64(year)
		must = append(must,
			qdrant.NewRange(fieldYearFrom, &qdrant.Range{Lte: qdrant.PtrOf(y)}),
			qdrant.NewRange(fieldYearTo, &qdrant.Range{Gte: qdrant.PtrOf(y)}),
		)
	}
	return &qdrant.Filter{Must: must}
}
