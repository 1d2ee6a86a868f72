package coverage

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
)

// ErrMissingConstituentArea means a person points at an area that was never
// loaded. Areas must be ingested before coverage runs.
var ErrMissingConstituentArea = eris.New("coverage: constituent area missing")

// IntersectStore is what ConnectByIntersection needs.
type IntersectStore interface {
	PeopleAfter(ctx context.Context, jurisdictionAreaID, afterID string, limit int) ([]essentials.Person, error)
	AreaExists(ctx context.Context, id string) (bool, error)
	ZipIDsIntersecting(ctx context.Context, areaID string) ([]string, error)
	AddPersonAreas(ctx context.Context, rows []essentials.PersonArea) error
}

type IntersectStats struct {
	People int
	Links  int
	Failed int
}

// ConnectByIntersection links each person to every zip code whose geometry
// intersects their constituent area, computed in the database. An empty
// jurisdiction covers everyone. A missing constituent area fails that
// person only.
func ConnectByIntersection(ctx context.Context, s IntersectStore, jurisdictionAreaID string, now time.Time) (IntersectStats, error) {
	var stats IntersectStats
	after := ""
	for {
		people, err := s.PeopleAfter(ctx, jurisdictionAreaID, after, 200)
		if err != nil {
			return stats, err
		}
		if len(people) == 0 {
			return stats, nil
		}
		for _, p := range people {
			after = p.ID
			stats.People++
			n, err := connectPerson(ctx, s, &p, now)
			if errors.Is(err, ErrMissingConstituentArea) {
				stats.Failed++
				zap.L().Error("constituent area missing",
					zap.String("component", "coverage"),
					zap.String("person", p.ID),
					zap.String("area", p.ConstituentAreaID))
				continue
			}
			if err != nil {
				return stats, err
			}
			stats.Links += n
		}
	}
}

func connectPerson(ctx context.Context, s IntersectStore, p *essentials.Person, now time.Time) (int, error) {
	ok, err := s.AreaExists(ctx, p.ConstituentAreaID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, eris.Wrapf(ErrMissingConstituentArea, "coverage: %s for %s", p.ConstituentAreaID, p.ID)
	}
	zips, err := s.ZipIDsIntersecting(ctx, p.ConstituentAreaID)
	if err != nil {
		return 0, err
	}
	rows := make([]essentials.PersonArea, 0, len(zips))
	for _, z := range zips {
		rows = append(rows, essentials.PersonArea{
			PersonID:     p.ID,
			AreaID:       z,
			Relationship: essentials.RelationshipZipCoverage,
			ComputedAt:   now,
		})
	}
	if err := s.AddPersonAreas(ctx, rows); err != nil {
		return 0, err
	}
	zap.L().Debug("person connected",
		zap.String("component", "coverage"),
		zap.String("person", p.ID),
		zap.Int("zips", len(zips)))
	return len(rows), nil
}
