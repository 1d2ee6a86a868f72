package roster

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Role types as they appear in roster files.
const (
	RoleUpper       = "upper"
	RoleLower       = "lower"
	RoleLegislature = "legislature"
	RoleMayor       = "mayor"
)

// ErrNoCurrentRole means none of a person's roles is current.
var ErrNoCurrentRole = eris.New("roster: no current role")

// Role is one position a person held. Zero Start or End means the date was
// absent from the source.
type Role struct {
	Type         string
	Jurisdiction string
	District     string
	Start        time.Time
	End          time.Time
}

func (r Role) HasStart() bool { return !r.Start.IsZero() }
func (r Role) HasEnd() bool   { return !r.End.IsZero() }

// SelectCurrentRole picks the role a person holds as of asOf.
//
// A lone role is returned without looking at dates. Otherwise roles are
// walked in source order, skipping mayoral roles:
//   - start and end present: returned at once when start <= asOf <= end
//   - end only: returned at once when end >= asOf
//   - start only, or no dates: remembered as a potential role
//
// When nothing returned early the last potential role wins. Why the last
// one wins is not documented upstream; keep the order as is.
func SelectCurrentRole(personID string, roles []Role, asOf time.Time) (Role, error) {
	if len(roles) == 1 {
		return roles[0], nil
	}

	day := truncateDay(asOf)
	potential := -1
	for i, r := range roles {
		if strings.EqualFold(r.Type, RoleMayor) {
			continue
		}
		switch {
		case r.HasStart() && r.HasEnd():
			if !day.Before(truncateDay(r.Start)) && !day.After(truncateDay(r.End)) {
				return r, nil
			}
		case r.HasEnd():
			if !truncateDay(r.End).Before(day) {
				return r, nil
			}
		default:
			potential = i
		}
	}

	if potential >= 0 {
		return roles[potential], nil
	}
	return Role{}, eris.Wrapf(ErrNoCurrentRole, "roster: person %s (%d roles)", personID, len(roles))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
