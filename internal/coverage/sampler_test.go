package coverage

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// lookupFunc adapts a function to Lookup and counts calls.
type lookupFunc struct {
	fn    func(p area.Point) ([]string, error)
	calls int
}

func (l *lookupFunc) Name() string { return "func" }

func (l *lookupFunc) Representatives(_ context.Context, p area.Point) ([]string, error) {
	l.calls++
	return l.fn(p)
}

func squareZip(id string, minX, minY, maxX, maxY float64) *area.Area {
	ring := []geom.Coord{{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY}}
	return &area.Area{
		ID:             id,
		Classification: area.Zipcode,
		Geometry:       area.FromRings([][]geom.Coord{ring}),
	}
}

// splitDistricts puts everything west of lon 1.5 in district "west" and the
// rest in "east"; one senator covers both.
func splitDistricts(p area.Point) ([]string, error) {
	if p.Lon < 1.5 {
		return []string{"senator", "west"}, nil
	}
	return []string{"east", "senator"}, nil
}

func TestCoverageFor_SingleDistrict(t *testing.T) {
	l := &lookupFunc{fn: func(area.Point) ([]string, error) { return []string{"rep", "senator"}, nil }}
	s := NewSampler(l, 0)

	cov, err := s.CoverageFor(context.Background(), squareZip("zip:1", 0, 0, 1, 1))
	require.NoError(t, err)
	assert.False(t, cov.CrossDistrict)
	assert.Equal(t, []string{"rep", "senator"}, cov.PersonIDs)
	assert.Equal(t, 5, cov.Points)
	assert.Equal(t, 5, l.calls)
}

func TestCoverageFor_CornersAreNeverAdded(t *testing.T) {
	// Corners fall in water with nobody; they are a subset of the centroid's set.
	l := &lookupFunc{fn: func(p area.Point) ([]string, error) {
		if math.Abs(p.Lat-0.5) < 1e-9 && math.Abs(p.Lon-0.5) < 1e-9 {
			return []string{"rep"}, nil
		}
		return nil, nil
	}}
	cov, err := NewSampler(l, 0).CoverageFor(context.Background(), squareZip("zip:2", 0, 0, 1, 1))
	require.NoError(t, err)
	assert.False(t, cov.CrossDistrict)
	assert.Equal(t, []string{"rep"}, cov.PersonIDs)
}

func TestCoverageFor_CrossDistrictIsStrictSuperset(t *testing.T) {
	zip := squareZip("zip:3", 0, 0, 2, 2)

	centroidOnly, err := splitDistricts(area.Point{Lat: 1, Lon: 1})
	require.NoError(t, err)

	l := &lookupFunc{fn: splitDistricts}
	cov, err := NewSampler(l, 0.01).CoverageFor(context.Background(), zip)
	require.NoError(t, err)

	assert.True(t, cov.CrossDistrict)
	assert.Equal(t, []string{"east", "senator", "west"}, cov.PersonIDs)
	assert.Subset(t, cov.PersonIDs, centroidOnly)
	assert.Greater(t, len(cov.PersonIDs), len(centroidOnly))
	assert.Greater(t, cov.Points, 5)
}

func TestCoverageFor_Idempotent(t *testing.T) {
	zips := []*area.Area{
		squareZip("zip:a", 0, 0, 2, 2),
		squareZip("zip:b", 0, 0, 1, 1),
		squareZip("zip:c", 1.6, 0, 3, 1),
	}
	run := func(order []int, l Lookup) map[string][]string {
		s := NewSampler(l, 0.01)
		out := map[string][]string{}
		for _, i := range order {
			cov, err := s.CoverageFor(context.Background(), zips[i])
			require.NoError(t, err)
			out[cov.ZipID] = cov.PersonIDs
		}
		return out
	}

	first := run([]int{0, 1, 2}, &lookupFunc{fn: splitDistricts})
	second := run([]int{2, 0, 1}, NewCachedLookup(&lookupFunc{fn: splitDistricts}, 0))
	assert.Equal(t, first, second)
}

func TestCoverageFor_LookupErrorNamesZip(t *testing.T) {
	boom := errors.New("boom")
	l := &lookupFunc{fn: func(area.Point) ([]string, error) { return nil, boom }}

	_, err := NewSampler(l, 0).CoverageFor(context.Background(), squareZip("zip:err", 0, 0, 1, 1))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "zip:err")
}

func TestCoverageFor_NoGeometry(t *testing.T) {
	l := &lookupFunc{fn: splitDistricts}
	_, err := NewSampler(l, 0).CoverageFor(context.Background(), &area.Area{ID: "zip:none"})
	assert.ErrorIs(t, err, area.ErrNoGeometry)
	assert.Zero(t, l.calls)
}

func TestCachedLookup(t *testing.T) {
	inner := &lookupFunc{fn: splitDistricts}
	c := NewCachedLookup(inner, 0)

	for i := 0; i < 3; i++ {
		ids, err := c.Representatives(context.Background(), area.Point{Lat: 1, Lon: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"senator", "west"}, ids)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}
