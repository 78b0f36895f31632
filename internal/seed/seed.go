// Package seed reads and generates bulk test-case records.
package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// Load decodes a JSON array of records.
func Load(r io.Reader) ([]service.SubmitRequest, error) {
	var reqs []service.SubmitRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}
	return reqs, nil
}

// LoadFile decodes the JSON array of records in path.
func LoadFile(path string) ([]service.SubmitRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test cases: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Options bounds generated records.
type Options struct {
	FirstYear, LastYear int
	MinX, MaxX          float64
	MinY, MaxY          float64
	// MinPoints and MaxPoints bound the vertex count of each polygon.
	MinPoints, MaxPoints int
	CreatedAt            string
}

// DefaultOptions covers the Japanese archipelago from 1900 to 2100.
func DefaultOptions() Options {
	return Options{
		FirstYear: 1900,
		LastYear:  2100,
		MinX:      122,
		MaxX:      148,
		MinY:      24,
		MaxY:      46,
		MinPoints: 3,
		MaxPoints: 20,
		CreatedAt: "2020-01-01",
	}
}

// Generate returns n records with random polygons and decades. Record i
// gets the hex SHA-256 of its decimal index as id and name, so the same
// n always yields the same ids.
func Generate(n int, rng *rand.Rand, opts Options) ([]service.SubmitRequest, error) {
	if opts.MinPoints < 3 || opts.MaxPoints < opts.MinPoints {
		return nil, fmt.Errorf("invalid point range %d..%d", opts.MinPoints, opts.MaxPoints)
	}
	if opts.LastYear < opts.FirstYear {
		return nil, fmt.Errorf("invalid year range %d..%d", opts.FirstYear, opts.LastYear)
	}

	reqs := make([]service.SubmitRequest, 0, n)
	for i := 0; i < n; i++ {
		name := strconv.Itoa(i)
		sum := sha256.Sum256([]byte(name))

		ring := make(orb.Ring, opts.MinPoints+rng.IntN(opts.MaxPoints-opts.MinPoints+1))
		for j := range ring {
			ring[j] = orb.Point{
				opts.MinX + rng.Float64()*(opts.MaxX-opts.MinX),
				opts.MinY + rng.Float64()*(opts.MaxY-opts.MinY),
			}
		}
		feature := geojson.NewFeature(orb.Polygon{ring})
		geometry, err := feature.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode polygon %d: %w", i, err)
		}

		y1 := opts.FirstYear + rng.IntN(opts.LastYear-opts.FirstYear+1)
		y2 := opts.FirstYear + rng.IntN(opts.LastYear-opts.FirstYear+1)
		gt, lte := min(y1, y2), max(y1, y2)+1

		reqs = append(reqs, service.SubmitRequest{
			ID:        hex.EncodeToString(sum[:]),
			Name:      name,
			Geometry:  geometry,
			Decade:    &service.DecadeInput{GT: &gt, LTE: &lte},
			Comment:   "a",
			Photos:    []string{},
			Thread:    []storage.Comment{},
			CreatedAt: opts.CreatedAt,
		})
	}
	return reqs, nil
}

// Write encodes reqs as an indented JSON array.
func Write(w io.Writer, reqs []service.SubmitRequest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reqs)
}
