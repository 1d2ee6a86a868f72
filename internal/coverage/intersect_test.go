package coverage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
)

type intersectStore struct {
	people []essentials.Person
	areas  map[string][]string
	added  []essentials.PersonArea
}

func (s *intersectStore) PeopleAfter(_ context.Context, _ string, afterID string, limit int) ([]essentials.Person, error) {
	var out []essentials.Person
	for _, p := range s.people {
		if p.ID > afterID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *intersectStore) AreaExists(_ context.Context, id string) (bool, error) {
	_, ok := s.areas[id]
	return ok, nil
}

func (s *intersectStore) ZipIDsIntersecting(_ context.Context, id string) ([]string, error) {
	return s.areas[id], nil
}

func (s *intersectStore) AddPersonAreas(_ context.Context, rows []essentials.PersonArea) error {
	s.added = append(s.added, rows...)
	return nil
}

func TestConnectByIntersection(t *testing.T) {
	s := &intersectStore{
		people: []essentials.Person{
			{ID: "ocd-person/a", ConstituentAreaID: "ocd-division/country:us/district:dc/ward:1"},
			{ID: "ocd-person/b", ConstituentAreaID: "ocd-division/country:us/district:dc/ward:9"},
			{ID: "ocd-person/c", ConstituentAreaID: "ocd-division/country:us/district:dc"},
		},
		areas: map[string][]string{
			"ocd-division/country:us/district:dc/ward:1": {"ocd-division/country:us/zipcode:20001", "ocd-division/country:us/zipcode:20009"},
			"ocd-division/country:us/district:dc":        {"ocd-division/country:us/zipcode:20001"},
		},
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	stats, err := ConnectByIntersection(context.Background(), s, "ocd-division/country:us/district:dc", now)
	require.NoError(t, err)

	assert.Equal(t, IntersectStats{People: 3, Links: 3, Failed: 1}, stats)
	require.Len(t, s.added, 3)
	assert.Equal(t, essentials.PersonArea{
		PersonID:     "ocd-person/a",
		AreaID:       "ocd-division/country:us/zipcode:20001",
		Relationship: essentials.RelationshipZipCoverage,
		ComputedAt:   now,
	}, s.added[0])
}

func TestConnectPerson_MissingArea(t *testing.T) {
	s := &intersectStore{areas: map[string][]string{}}
	_, err := connectPerson(context.Background(), s, &essentials.Person{ID: "p", ConstituentAreaID: "nowhere"}, time.Now())
	assert.ErrorIs(t, err, ErrMissingConstituentArea)
}
