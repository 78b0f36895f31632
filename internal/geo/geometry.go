// Package geo holds the geometry model of a record and the spatial filter
// that decides whether a geometry intersects a query box.
//
// A Geometry is a tagged variant: either an axis-aligned box shape
// {x, y, h, w, angle} or a (multi-)polygon in map coordinates. The JSON form
// is GeoJSON for polygons and {"type":"Box", ...} for boxes.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidGeometry is returned for geometry input that cannot be used.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Kind tags the variant held by a Geometry.
type Kind string

const (
	KindBox     Kind = "box"
	KindPolygon Kind = "polygon"
)

// BoxShape is the box-coordinate shape: origin (X, Y), height H and width W.
// Angle is stored but not used by the spatial filter.
type BoxShape struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	H     float64 `json:"h"`
	W     float64 `json:"w"`
	Angle float64 `json:"angle"`
}

// Extent returns the unrotated rectangle covered by the shape.
func (s BoxShape) Extent() orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(s.X, s.X+s.W), math.Min(s.Y, s.Y+s.H)},
		Max: orb.Point{math.Max(s.X, s.X+s.W), math.Max(s.Y, s.Y+s.H)},
	}
}

// Geometry is either a BoxShape or a MultiPolygon. The zero value holds
// neither and is reported by IsZero.
type Geometry struct {
	kind     Kind
	box      BoxShape
	polygons orb.MultiPolygon
}

// NewBoxGeometry wraps a box shape.
func NewBoxGeometry(s BoxShape) Geometry {
	return Geometry{kind: KindBox, box: s}
}

// Point is a box shape with zero extent at (x, y).
func Point(x, y float64) Geometry {
	return NewBoxGeometry(BoxShape{X: x, Y: y})
}

// NewPolygonGeometry wraps one or more polygons.
func NewPolygonGeometry(polygons ...orb.Polygon) Geometry {
	return Geometry{kind: KindPolygon, polygons: orb.MultiPolygon(polygons)}
}

// Kind returns the variant tag.
func (g Geometry) Kind() Kind { return g.kind }

// IsZero reports whether g holds no geometry.
func (g Geometry) IsZero() bool { return g.kind == "" }

// Box returns the box shape and whether g is a box.
func (g Geometry) Box() (BoxShape, bool) {
	return g.box, g.kind == KindBox
}

// Polygons returns the polygons and whether g is a polygon geometry.
func (g Geometry) Polygons() (orb.MultiPolygon, bool) {
	return g.polygons, g.kind == KindPolygon
}

// Bound returns the bounding rectangle of the geometry.
func (g Geometry) Bound() orb.Bound {
	switch g.kind {
	case KindBox:
		return g.box.Extent()
	case KindPolygon:
		return g.polygons.Bound()
	default:
		return orb.Bound{}
	}
}

// Validate checks that coordinates are finite and that polygons have usable
// rings.
func (g Geometry) Validate() error {
	switch g.kind {
	case KindBox:
		s := g.box
		for _, v := range []float64{s.X, s.Y, s.H, s.W, s.Angle} {
			if !finite(v) {
				return fmt.Errorf("%w: box coordinates must be finite", ErrInvalidGeometry)
			}
		}
	case KindPolygon:
		if len(g.polygons) == 0 {
			return fmt.Errorf("%w: no polygons", ErrInvalidGeometry)
		}
		for _, p := range g.polygons {
			if len(p) == 0 {
				return fmt.Errorf("%w: polygon without rings", ErrInvalidGeometry)
			}
			for _, r := range p {
				if len(r) < 3 {
					return fmt.Errorf("%w: ring needs at least 3 points, got %d", ErrInvalidGeometry, len(r))
				}
				for _, pt := range r {
					if !finite(pt[0]) || !finite(pt[1]) {
						return fmt.Errorf("%w: polygon coordinates must be finite", ErrInvalidGeometry)
					}
				}
			}
		}
	default:
		return fmt.Errorf("%w: empty geometry", ErrInvalidGeometry)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type boxJSON struct {
	Type string `json:"type"`
	BoxShape
}

// MarshalJSON writes boxes as {"type":"Box",...} and polygons as a GeoJSON
// Polygon, or MultiPolygon when there is more than one.
func (g Geometry) MarshalJSON() ([]byte, error) {
	switch g.kind {
	case KindBox:
		return json.Marshal(boxJSON{Type: "Box", BoxShape: g.box})
	case KindPolygon:
		if len(g.polygons) == 1 {
			return geojson.NewGeometry(g.polygons[0]).MarshalJSON()
		}
		return geojson.NewGeometry(g.polygons).MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a GeoJSON Polygon or MultiPolygon, a GeoJSON Feature
// wrapping one of those, a GeoJSON Point (as a zero-extent box) or a Box
// object.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*g = Geometry{}
		return nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	switch head.Type {
	case "Box", "box":
		var b boxJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		*g = NewBoxGeometry(b.BoxShape)
		return nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return g.fromOrb(f.Geometry)
	case "Polygon", "MultiPolygon", "Point":
		gg, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return g.fromOrb(gg.Geometry())
	case "":
		return fmt.Errorf("%w: missing type", ErrInvalidGeometry)
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidGeometry, head.Type)
	}
}

func (g *Geometry) fromOrb(o orb.Geometry) error {
	switch v := o.(type) {
	case orb.Polygon:
		*g = NewPolygonGeometry(v)
	case orb.MultiPolygon:
		*g = NewPolygonGeometry(v...)
	case orb.Point:
		*g = Point(v[0], v[1])
	case nil:
		return fmt.Errorf("%w: feature has no geometry", ErrInvalidGeometry)
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidGeometry, o.GeoJSONType())
	}
	return nil
}
