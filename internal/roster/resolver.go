package roster

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
)

// FederalJurisdiction is the roster directory holding members of Congress.
const FederalJurisdiction = "us"

var (
	// ErrUnknownRoleType means a role type has no mapping for its
	// jurisdiction.
	ErrUnknownRoleType = eris.New("roster: unknown role type")
	// ErrUnmappedDistrict means a named district is missing from the
	// district table; the table is incomplete, the district is not absent.
	ErrUnmappedDistrict = eris.New("roster: unmapped district name")
	// ErrMalformedDistrict means a district label lacks its required shape.
	ErrMalformedDistrict = eris.New("roster: malformed district label")
)

// Outcome tags an Assignment.
type Outcome int

const (
	Resolved Outcome = iota + 1
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Assignment is the result of resolving a role to its constituent area:
// either an area id, or a reason the role is a special case the caller
// must skip. Fatal conditions are returned as errors instead.
type Assignment struct {
	Outcome Outcome
	AreaID  string
	Reason  string
}

func resolved(id string) (Assignment, error) {
	return Assignment{Outcome: Resolved, AreaID: id}, nil
}

func skipped(reason string) (Assignment, error) {
	return Assignment{Outcome: Skipped, Reason: reason}, nil
}

// excludedStates lack reliable boundary data for their rosters.
var excludedStates = map[string]string{
	"vt": "vermont districts need a name table",
	"nh": "new hampshire districts need a name table",
	"pr": "no puerto rico district areas",
	"nd": "north dakota house districts postdate the census boundaries",
}

// excludedTerritories elect non-voting delegates with no district areas.
var excludedTerritories = map[string]bool{"AS": true, "PR": true, "GU": true, "VI": true}

// specialSeats are non-voting seats with no district area.
var specialSeats = map[string]map[string]bool{
	"me": {"Passamaquoddy Tribe": true},
}

type stateRule func(r *Resolver, st string, role Role) (Assignment, error)

// stateRules override the general upper/lower mapping per jurisdiction.
var stateRules = map[string]stateRule{
	"dc": resolveDC,
	"ne": resolveNebraska,
	"id": resolveIdaho,
	"ma": resolveNamedDistrict,
}

// Resolver maps a person's current role to the single area they represent.
type Resolver struct {
	states    *reference.States
	districts reference.DistrictTable
}

func NewResolver(states *reference.States, districts reference.DistrictTable) *Resolver {
	if districts == nil {
		districts = reference.DistrictTable{}
	}
	return &Resolver{states: states, districts: districts}
}

// Resolve computes the constituent area for role. jurisdiction is the roster
// directory name: "us" for Congress, otherwise the lower-case state code.
func (r *Resolver) Resolve(jurisdiction string, role Role) (Assignment, error) {
	st := strings.ToLower(jurisdiction)
	if st == FederalJurisdiction {
		return r.resolveFederal(role)
	}
	if reason, ok := excludedStates[st]; ok {
		return skipped(reason)
	}
	if specialSeats[st][role.District] {
		return skipped("non-voting seat " + role.District)
	}
	if rule, ok := stateRules[st]; ok {
		return rule(r, st, role)
	}
	return resolveGeneral(st, role)
}

func (r *Resolver) resolveFederal(role Role) (Assignment, error) {
	switch role.Type {
	case RoleUpper:
		state, ok := r.states.ByName(role.District)
		if !ok {
			return skipped("senate seat outside the states: " + role.District)
		}
		return areaID(area.FederalSenateDistrict, state.Abbreviation, "")

	case RoleLower:
		abbrev, district, ok := strings.Cut(role.District, "-")
		if !ok {
			return Assignment{}, eris.Wrapf(ErrMalformedDistrict, "roster: federal district %q", role.District)
		}
		abbrev = strings.ToUpper(abbrev)
		if excludedTerritories[abbrev] {
			return skipped("territorial delegate " + role.District)
		}
		if _, ok := r.states.ByAbbreviation(abbrev); !ok {
			return skipped("house seat outside the states: " + role.District)
		}
		if district == "AL" {
			district = ocd.AtLarge
		}
		return areaID(area.FederalHouseDistrict, abbrev, district)
	}
	return Assignment{}, eris.Wrapf(ErrUnknownRoleType, "roster: federal role %q", role.Type)
}

func resolveGeneral(st string, role Role) (Assignment, error) {
	switch role.Type {
	case RoleUpper:
		return areaID(area.StateSenateDistrict, st, role.District)
	case RoleLower:
		return areaID(area.StateHouseDistrict, st, role.District)
	}
	return Assignment{}, eris.Wrapf(ErrUnknownRoleType, "roster: %s role %q", st, role.Type)
}

// resolveDC maps council seats to wards; at-large seats and the chair
// represent the whole district.
func resolveDC(_ *Resolver, st string, role Role) (Assignment, error) {
	switch role.District {
	case "At-Large", "Chairman":
		return areaID(area.FederalSenateDistrict, st, "")
	}
	ward := strings.TrimSpace(strings.TrimPrefix(role.District, "Ward "))
	return areaID(area.StateSenateDistrict, st, ward)
}

// resolveNebraska numbers the unicameral legislature like a senate.
func resolveNebraska(_ *Resolver, st string, role Role) (Assignment, error) {
	if role.Type == RoleLegislature {
		return areaID(area.StateSenateDistrict, st, role.District)
	}
	return resolveGeneral(st, role)
}

// resolveIdaho drops the seat letters Idaho appends to house districts.
func resolveIdaho(_ *Resolver, st string, role Role) (Assignment, error) {
	if role.Type != RoleLower {
		return resolveGeneral(st, role)
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, role.District)
	if digits == "" {
		return Assignment{}, eris.Wrapf(ErrMalformedDistrict, "roster: idaho district %q", role.District)
	}
	return areaID(area.StateHouseDistrict, st, digits)
}

// resolveNamedDistrict looks named districts up in the district table.
func resolveNamedDistrict(r *Resolver, st string, role Role) (Assignment, error) {
	if id, ok := r.districts.Lookup(st, role.Type, role.District); ok {
		return resolved(id)
	}
	return Assignment{}, eris.Wrapf(ErrUnmappedDistrict, "roster: %s %s district %q", st, role.Type, role.District)
}

func areaID(c area.Classification, abbrev, district string) (Assignment, error) {
	id, err := ocd.MakeAreaID(c, abbrev, district)
	if err != nil {
		return Assignment{}, err
	}
	return resolved(id)
}

// MapChamber normalizes a role type to the chamber label stored on a person.
func MapChamber(jurisdiction, roleType string) (string, error) {
	if strings.EqualFold(jurisdiction, "dc") {
		return "City Council", nil
	}
	switch strings.ToLower(roleType) {
	case RoleUpper:
		return "Senate", nil
	case RoleLower:
		return "House", nil
	case RoleLegislature:
		return "Legislature", nil
	}
	return "", eris.Wrapf(ErrUnknownRoleType, "roster: chamber for %q", roleType)
}
