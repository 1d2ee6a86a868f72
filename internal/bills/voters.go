package bills

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/votes"
)

// personPrefix marks a voter id that already names a stored person.
const personPrefix = "ocd-person/"

// PeopleSource lists the people of a jurisdiction, the candidate pool for
// voter names.
type PeopleSource interface {
	PeopleByJurisdiction(ctx context.Context, jurisdictionAreaID string) ([]essentials.Person, error)
}

func candidatePool(ctx context.Context, src PeopleSource, jurisdictionAreaID string) ([]votes.PersonStub, error) {
	people, err := src.PeopleByJurisdiction(ctx, jurisdictionAreaID)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: candidates for %s", jurisdictionAreaID)
	}
	pool := make([]votes.PersonStub, 0, len(people))
	for _, p := range people {
		pool = append(pool, votes.NewPersonStub(p.ID, p.Name, p.FirstName, p.LastName, p.Chamber, p.ConstituentAreaID))
	}
	return pool, nil
}

// voterCounts tallies name resolution across a run.
type voterCounts struct {
	Resolved   int
	Unresolved int
}

// resolveVoters rewrites placeholder voter ids in place. Votes already
// linked to a person are left alone.
func resolveVoters(r *votes.Resolver, eventID, chamber string, vs []votes.Vote, pool []votes.PersonStub) voterCounts {
	var idx []int
	var pending []votes.Vote
	for i, v := range vs {
		if strings.HasPrefix(v.VoterID, personPrefix) {
			continue
		}
		idx = append(idx, i)
		pending = append(pending, v)
	}
	n := r.ReplaceVoterIDs(eventID, chamber, pending, pool)
	for j, i := range idx {
		vs[i] = pending[j]
	}
	return voterCounts{Resolved: n, Unresolved: len(pending) - n}
}
