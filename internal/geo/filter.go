package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Box is an axis-aligned query rectangle. Edges are inclusive.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// WorldBox covers every finite coordinate pair used by map clients.
var WorldBox = Box{XMin: -180, YMin: -90, XMax: 180, YMax: 90}

// NewBox validates and returns a query box.
func NewBox(xMin, yMin, xMax, yMax float64) (Box, error) {
	for _, v := range []float64{xMin, yMin, xMax, yMax} {
		if !finite(v) {
			return Box{}, fmt.Errorf("%w: box coordinates must be finite", ErrInvalidGeometry)
		}
	}
	if xMin > xMax || yMin > yMax {
		return Box{}, fmt.Errorf("%w: box is inverted", ErrInvalidGeometry)
	}
	return Box{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}, nil
}

// Bound converts the box to an orb.Bound.
func (b Box) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.XMin, b.YMin}, Max: orb.Point{b.XMax, b.YMax}}
}

// Contains reports whether p lies inside the box or on its edge.
func (b Box) Contains(p orb.Point) bool {
	return b.Bound().Contains(p)
}

func (b Box) corners() [4]orb.Point {
	return [4]orb.Point{
		{b.XMin, b.YMin},
		{b.XMax, b.YMin},
		{b.XMax, b.YMax},
		{b.XMin, b.YMax},
	}
}

// Intersects reports whether g touches the query box.
//
// Boxes compare their unrotated extent. Polygons match when any vertex lies
// in the box or any box corner lies in a polygon. A polygon edge that crosses
// the box with neither condition holding is not detected.
func (g Geometry) Intersects(b Box) bool {
	switch g.kind {
	case KindBox:
		return g.box.Extent().Intersects(b.Bound())
	case KindPolygon:
		return polygonsIntersect(g.polygons, b)
	default:
		return false
	}
}

func polygonsIntersect(mp orb.MultiPolygon, b Box) bool {
	bound := b.Bound()
	for _, p := range mp {
		for _, r := range p {
			for _, pt := range r {
				if bound.Contains(pt) {
					return true
				}
			}
		}
	}

	if !mp.Bound().Intersects(bound) {
		return false
	}
	for _, p := range mp {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		for _, c := range b.corners() {
			if planar.PolygonContains(p, c) {
				return true
			}
		}
	}
	return false
}
