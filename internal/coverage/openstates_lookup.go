package coverage

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/openstates"
)

// GeoClient is the part of the Open States client the lookup needs.
type GeoClient interface {
	PeopleGeo(ctx context.Context, lat, lng float64) ([]openstates.GeoPerson, error)
}

func init() {
	Register(BackendOpenStates, func(cfg Config) (Lookup, error) {
		if cfg.GeoClient == nil {
			return nil, eris.Wrap(ErrBackendConfig, "coverage: openstates backend needs a client")
		}
		return &OpenStatesLookup{client: cfg.GeoClient}, nil
	})
}

// OpenStatesLookup asks the people.geo endpoint. Only federal and state
// legislators count; the client's limiter paces the calls.
type OpenStatesLookup struct {
	client GeoClient
}

func NewOpenStatesLookup(c GeoClient) *OpenStatesLookup {
	return &OpenStatesLookup{client: c}
}

func (l *OpenStatesLookup) Name() string { return string(BackendOpenStates) }

var legislativeOrgs = map[string]bool{"upper": true, "lower": true, "legislature": true}

func (l *OpenStatesLookup) Representatives(ctx context.Context, p area.Point) ([]string, error) {
	people, err := l.client.PeopleGeo(ctx, p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(people))
	for _, person := range people {
		jc := person.Jurisdiction.Classification
		if (jc != "country" && jc != "state") || !legislativeOrgs[person.CurrentRole.OrgClassification] {
			zap.L().Debug("ignoring non-legislator",
				zap.String("component", "coverage"),
				zap.String("person", person.ID),
				zap.String("title", person.CurrentRole.Title))
			continue
		}
		ids = append(ids, person.ID)
	}
	return ids, nil
}
