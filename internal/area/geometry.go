package area

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/xy"
)

// minRingCoords is the smallest closed ring: three distinct vertices plus the
// closing vertex.
const minRingCoords = 4

// ErrNoGeometry is returned by operations that need a polygon when the area
// has none.
var ErrNoGeometry = eris.New("area: no geometry")

// Corners returns the four corners of the geometry's bounding box in
// south-west, south-east, north-east, north-west order.
func (a *Area) Corners() ([]Point, error) {
	if a.Geometry == nil || a.Geometry.Empty() {
		return nil, eris.Wrapf(ErrNoGeometry, "area: corners of %s", a.ID)
	}
	b := a.Geometry.Bounds()
	minLon, minLat := b.Min(0), b.Min(1)
	maxLon, maxLat := b.Max(0), b.Max(1)
	return []Point{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
	}, nil
}

// CentroidPoint returns the source-provided interior point, or the
// geometric centroid when the source had none.
func (a *Area) CentroidPoint() (Point, error) {
	if a.HasCentroid() {
		return a.Centroid, nil
	}
	if a.Geometry == nil || a.Geometry.Empty() {
		return Point{}, eris.Wrapf(ErrNoGeometry, "area: centroid of %s", a.ID)
	}
	c, err := xy.Centroid(a.Geometry)
	if err != nil {
		return Point{}, eris.Wrapf(err, "area: centroid of %s", a.ID)
	}
	return PointFromCoord(c), nil
}

// SimplifiedVertices simplifies every exterior ring with Douglas-Peucker at
// the given tolerance (degrees) and returns the surviving vertices, without
// the closing duplicate. A ring never drops below four coordinates, so each
// polygon keeps its shape.
func (a *Area) SimplifiedVertices(tolerance float64) ([]Point, error) {
	if a.Geometry == nil || a.Geometry.Empty() {
		return nil, eris.Wrapf(ErrNoGeometry, "area: simplify %s", a.ID)
	}
	var out []Point
	for i := 0; i < a.Geometry.NumPolygons(); i++ {
		p := a.Geometry.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		ring := simplifyRing(p.LinearRing(0).Coords(), tolerance)
		for j := 0; j < len(ring)-1; j++ {
			out = append(out, PointFromCoord(ring[j]))
		}
	}
	return out, nil
}

func simplifyRing(coords []geom.Coord, tolerance float64) []geom.Coord {
	if len(coords) <= minRingCoords || tolerance <= 0 {
		return coords
	}
	idx := xy.SimplifyFlatCoords(flatCoords(coords), tolerance, 2)
	if len(idx) < minRingCoords {
		return coords
	}
	out := make([]geom.Coord, 0, len(idx))
	for _, i := range idx {
		out = append(out, coords[i])
	}
	return out
}

// Contains reports whether p lies inside the geometry (on the boundary
// counts as inside). Holes exclude.
func (a *Area) Contains(p Point) bool {
	if a.Geometry == nil {
		return false
	}
	c := p.Coord()
	for i := 0; i < a.Geometry.NumPolygons(); i++ {
		poly := a.Geometry.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(poly.Layout(), c, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(poly.Layout(), c, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// EncodeEWKB renders the geometry as hex EWKB, the text form PostGIS accepts
// and returns for geometry columns. An area without geometry encodes to "".
func (a *Area) EncodeEWKB() (string, error) {
	if a.Geometry == nil {
		return "", nil
	}
	if a.Geometry.SRID() == 0 {
		a.Geometry.SetSRID(SRID)
	}
	s, err := ewkbhex.Encode(a.Geometry, ewkbhex.NDR)
	if err != nil {
		return "", eris.Wrapf(err, "area: encode %s", a.ID)
	}
	return s, nil
}

// DecodeEWKB parses hex EWKB into a multipolygon. Single polygons are
// promoted; any other geometry type is an error.
func DecodeEWKB(s string) (*geom.MultiPolygon, error) {
	if s == "" {
		return nil, nil
	}
	g, err := ewkbhex.Decode(s)
	if err != nil {
		return nil, eris.Wrap(err, "area: decode ewkb")
	}
	return ToMultiPolygon(g)
}

// ToMultiPolygon promotes polygons to multipolygons with SRID 4326.
func ToMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		if t.SRID() == 0 {
			t.SetSRID(SRID)
		}
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(t.Layout()).SetSRID(SRID)
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "area: promote polygon")
		}
		return mp, nil
	case nil:
		return nil, nil
	default:
		return nil, eris.Errorf("area: unsupported geometry %T", g)
	}
}

// FromRings assembles a multipolygon from raw rings in shapefile order: a
// clockwise ring starts a new polygon, a counter-clockwise ring is a hole of
// the polygon before it.
//
// Push only fails on a layout mismatch. Every ring, polygon and the
// multipolygon here are geom.XY, so its errors are ignored.
func FromRings(rings [][]geom.Coord) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	var current *geom.Polygon
	flush := func() {
		if current != nil {
			_ = mp.Push(current)
		}
	}
	for _, ring := range rings {
		if len(ring) < minRingCoords {
			continue
		}
		flat := flatCoords(ring)
		lr := geom.NewLinearRingFlat(geom.XY, flat)
		if current != nil && xy.IsRingCounterClockwise(geom.XY, flat) {
			_ = current.Push(lr)
			continue
		}
		flush()
		current = geom.NewPolygon(geom.XY)
		_ = current.Push(lr)
	}
	flush()
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
