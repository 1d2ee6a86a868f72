package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(minX, minY, maxX, maxY float64) []geom.Coord {
	// clockwise, as shapefiles store outer rings
	return []geom.Coord{
		{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
	}
}

func TestCorners(t *testing.T) {
	a := &Area{ID: "z", Geometry: FromRings([][]geom.Coord{square(-105, 39, -104, 40)})}

	corners, err := a.Corners()
	require.NoError(t, err)
	assert.Equal(t, []Point{
		{Lat: 39, Lon: -105},
		{Lat: 39, Lon: -104},
		{Lat: 40, Lon: -104},
		{Lat: 40, Lon: -105},
	}, corners)
}

func TestCorners_NoGeometry(t *testing.T) {
	_, err := (&Area{ID: "z"}).Corners()
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestCentroidPoint(t *testing.T) {
	a := &Area{ID: "z", Geometry: FromRings([][]geom.Coord{square(0, 0, 2, 4)})}
	c, err := a.CentroidPoint()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, c.Lat, 1e-9)
	assert.InDelta(t, 1.0, c.Lon, 1e-9)

	a.Centroid = Point{Lat: 3, Lon: 1.5}
	c, err = a.CentroidPoint()
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 3, Lon: 1.5}, c)
}

func TestFromRings_Hole(t *testing.T) {
	hole := []geom.Coord{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
	mp := FromRings([][]geom.Coord{square(0, 0, 10, 10), hole, square(20, 20, 21, 21)})
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())

	a := &Area{Geometry: mp}
	assert.True(t, a.Contains(Point{Lat: 1, Lon: 1}))
	assert.False(t, a.Contains(Point{Lat: 3, Lon: 3}), "inside the hole")
	assert.True(t, a.Contains(Point{Lat: 20.5, Lon: 20.5}))
	assert.False(t, a.Contains(Point{Lat: 15, Lon: 15}))
}

func TestFromRings_LayoutAndStrayRings(t *testing.T) {
	ccw := []geom.Coord{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
	short := []geom.Coord{{0, 0}, {1, 1}}
	mp := FromRings([][]geom.Coord{short, ccw, square(20, 20, 21, 21)})
	require.NotNil(t, mp)
	assert.Equal(t, geom.XY, mp.Layout())
	assert.Equal(t, SRID, mp.SRID())
	assert.Equal(t, 2, mp.NumPolygons(), "a leading counter-clockwise ring starts its own polygon")
	assert.Equal(t, 1, mp.Polygon(0).NumLinearRings())

	assert.Nil(t, FromRings(nil))
	assert.Nil(t, FromRings([][]geom.Coord{short}))
}

func TestSimplifiedVertices(t *testing.T) {
	// a square with a barely-bent edge; the bend disappears at 0.01
	ring := []geom.Coord{
		{0, 0}, {0, 0.5}, {0.001, 1}, {0, 1.5}, {0, 2}, {2, 2}, {2, 0}, {0, 0},
	}
	a := &Area{ID: "z", Geometry: FromRings([][]geom.Coord{ring})}

	v, err := a.SimplifiedVertices(0.01)
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Contains(t, v, Point{Lat: 2, Lon: 2})
	assert.Contains(t, v, Point{Lat: 0, Lon: 2})

	all, err := a.SimplifiedVertices(0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestSimplifyRing_NeverCollapses(t *testing.T) {
	ring := square(0, 0, 0.001, 0.001)
	out := simplifyRing(ring, 1)
	assert.GreaterOrEqual(t, len(out), minRingCoords)
}

func TestEWKB(t *testing.T) {
	a := &Area{ID: "z", Geometry: FromRings([][]geom.Coord{square(0, 0, 1, 1)})}
	hex, err := a.EncodeEWKB()
	require.NoError(t, err)
	require.NotEmpty(t, hex)

	mp, err := DecodeEWKB(hex)
	require.NoError(t, err)
	assert.Equal(t, SRID, mp.SRID())
	assert.Equal(t, a.Geometry.FlatCoords(), mp.FlatCoords())

	empty, err := DecodeEWKB("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestToMultiPolygon_Rejects(t *testing.T) {
	_, err := ToMultiPolygon(geom.NewPointFlat(geom.XY, []float64{1, 2}))
	assert.Error(t, err)
}
