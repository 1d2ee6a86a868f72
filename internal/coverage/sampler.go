package coverage

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// DefaultTolerance is the boundary simplification tolerance in degrees.
const DefaultTolerance = 0.01

// Coverage is the sampled answer for one zip code.
type Coverage struct {
	ZipID string
	// PersonIDs is sorted and free of duplicates.
	PersonIDs []string
	// CrossDistrict is set when a corner saw someone the centroid did not.
	CrossDistrict bool
	// Points is how many lookups the zip cost.
	Points int
}

// Sampler finds the representatives covering a zip code by probing points
// instead of intersecting polygons.
type Sampler struct {
	lookup    Lookup
	tolerance float64
}

func NewSampler(l Lookup, tolerance float64) *Sampler {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Sampler{lookup: l, tolerance: tolerance}
}

type idSet map[string]struct{}

func (s idSet) add(ids []string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s idSet) containsAll(ids []string) bool {
	for _, id := range ids {
		if _, ok := s[id]; !ok {
			return false
		}
	}
	return true
}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CoverageFor samples the zip's centroid, then its bounding-box corners.
// When every corner agrees with the centroid the centroid's set is final;
// corners are never added since they may lie outside the zip. Otherwise the
// zip straddles districts and every vertex of its simplified boundary is
// sampled and unioned in.
func (s *Sampler) CoverageFor(ctx context.Context, zip *area.Area) (Coverage, error) {
	cov := Coverage{ZipID: zip.ID}

	centroid, err := zip.CentroidPoint()
	if err != nil {
		return cov, eris.Wrapf(err, "coverage: centroid of %s", zip.ID)
	}
	corners, err := zip.Corners()
	if err != nil {
		return cov, eris.Wrapf(err, "coverage: corners of %s", zip.ID)
	}

	baseline, err := s.sample(ctx, &cov, centroid)
	if err != nil {
		return cov, err
	}
	result := idSet{}
	result.add(baseline)

	for _, c := range corners {
		ids, err := s.sample(ctx, &cov, c)
		if err != nil {
			return cov, err
		}
		if !result.containsAll(ids) {
			cov.CrossDistrict = true
			break
		}
	}

	if cov.CrossDistrict {
		vertices, err := zip.SimplifiedVertices(s.tolerance)
		if err != nil {
			return cov, eris.Wrapf(err, "coverage: simplify %s", zip.ID)
		}
		zap.L().Info("cross-district zip",
			zap.String("component", "coverage"),
			zap.String("zip", zip.ID),
			zap.Int("vertices", len(vertices)))
		for _, v := range vertices {
			ids, err := s.sample(ctx, &cov, v)
			if err != nil {
				return cov, err
			}
			result.add(ids)
		}
	}

	cov.PersonIDs = result.sorted()
	return cov, nil
}

func (s *Sampler) sample(ctx context.Context, cov *Coverage, p area.Point) ([]string, error) {
	cov.Points++
	ids, err := s.lookup.Representatives(ctx, p)
	if err != nil {
		return nil, eris.Wrapf(err, "coverage: %s at (%f, %f)", cov.ZipID, p.Lat, p.Lon)
	}
	return ids, nil
}
