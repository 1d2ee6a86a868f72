// Package ocd derives Open Civic Data identifiers for areas, bills and vote
// events. Every function here is pure: the same natural key always yields
// the same identifier.
package ocd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

const (
	DivisionPrefix  = "ocd-division/country:us"
	BillPrefix      = "ocd-bill/"
	VoteEventPrefix = "ocd-vote-event/"

	// AtLarge is the district token for single-seat House delegations.
	AtLarge = "at-large"
)

var (
	// ErrMissingKey means a required natural key was empty; the record
	// cannot be identified and must not be skipped silently.
	ErrMissingKey = eris.New("ocd: missing natural key")
	// ErrUnsupported is returned for classifications without a path grammar.
	ErrUnsupported = eris.New("ocd: unsupported classification")
)

// atLargeStates elect a single member to the federal House.
var atLargeStates = map[string]bool{
	"AK": true, "DC": true, "DE": true, "ND": true, "SD": true, "VT": true, "WY": true,
}

// IsAtLarge reports whether abbrev elects its House delegation at large.
func IsAtLarge(abbrev string) bool { return atLargeStates[strings.ToUpper(abbrev)] }

// StatePath returns the state segment of a division id. The District of
// Columbia is a "district", not a "state".
func StatePath(abbrev string) string {
	ab := strings.ToLower(abbrev)
	if ab == "dc" {
		return DivisionPrefix + "/district:dc"
	}
	return DivisionPrefix + "/state:" + ab
}

// DistrictNumber normalizes a census or roster district label. At-large
// House states always get AtLarge; numeric labels lose leading zeros ("07"
// becomes "7", "00" becomes "0"); alphanumeric labels keep their letters.
func DistrictNumber(c area.Classification, abbrev, raw string) string {
	if c == area.FederalHouseDistrict && IsAtLarge(abbrev) {
		return AtLarge
	}
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return strconv.Itoa(n)
	}
	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" {
		return raw
	}
	return trimmed
}

// MakeAreaID builds the division id for an area. abbrev is the two-letter
// state code (ignored for country and zipcode); district is the raw district
// label, or the zip code for zipcode areas.
//
//	MakeAreaID(area.FederalHouseDistrict, "CO", "1") == "ocd-division/country:us/state:co/cd:1"
func MakeAreaID(c area.Classification, abbrev, district string) (string, error) {
	switch c {
	case area.Country:
		return DivisionPrefix, nil
	case area.Zipcode:
		zip := strings.TrimSpace(district)
		if zip == "" {
			return "", eris.Wrap(ErrMissingKey, "ocd: zipcode")
		}
		return DivisionPrefix + "/zipcode:" + strings.ToLower(zip), nil
	case area.Precinct:
		return "", eris.Wrapf(ErrUnsupported, "ocd: %s", c)
	}
	if !c.Valid() {
		return "", eris.Wrapf(ErrUnsupported, "ocd: %q", c)
	}

	if strings.TrimSpace(abbrev) == "" {
		return "", eris.Wrapf(ErrMissingKey, "ocd: %s state abbreviation", c)
	}
	base := StatePath(abbrev)
	if c == area.FederalSenateDistrict {
		return base, nil
	}

	n := strings.ToLower(DistrictNumber(c, abbrev, district))
	if n == "" {
		return "", eris.Wrapf(ErrMissingKey, "ocd: %s district for %s", c, abbrev)
	}
	switch c {
	case area.FederalHouseDistrict:
		return base + "/cd:" + n, nil
	case area.StateSenateDistrict:
		if strings.EqualFold(abbrev, "dc") {
			return base + "/ward:" + n, nil
		}
		return base + "/sldu:" + n, nil
	default:
		return base + "/sldl:" + n, nil
	}
}

// MakeBillID derives a bill id from its identifier (e.g. "HB 1001") and the
// jurisdiction's division id. An empty session reproduces ids minted before
// sessions were part of the key; pass the session when identifiers repeat
// across sessions in the same jurisdiction.
func MakeBillID(identifier, session, jurisdictionAreaID string) (string, error) {
	if identifier == "" || jurisdictionAreaID == "" {
		return "", eris.Wrapf(ErrMissingKey, "ocd: bill %q in %q", identifier, jurisdictionAreaID)
	}
	parts := []string{identifier}
	if session != "" {
		parts = append(parts, session)
	}
	parts = append(parts, jurisdictionAreaID)
	return BillPrefix + nameUUID(strings.Join(parts, "_")), nil
}

// MakeVoteEventID derives a vote event id from its source identifier.
func MakeVoteEventID(identifier string) (string, error) {
	if identifier == "" {
		return "", eris.Wrap(ErrMissingKey, "ocd: vote event identifier")
	}
	return VoteEventPrefix + nameUUID(identifier), nil
}

// MakePrecinctID derives a precinct id from its census GEOID.
func MakePrecinctID(geoID string) (string, error) {
	if geoID == "" {
		return "", eris.Wrap(ErrMissingKey, "ocd: precinct geoid")
	}
	return nameUUID(geoID), nil
}

// nameUUID is a version 5 UUID in the OID namespace.
func nameUUID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// ConvertJurisdictionID turns "ocd-jurisdiction/country:us/state:co/government"
// into the matching division id.
func ConvertJurisdictionID(id string) string {
	id = strings.Replace(id, "ocd-jurisdiction", "ocd-division", 1)
	return strings.TrimSuffix(id, "/government")
}

var stateRe = regexp.MustCompile(`(?:state|district):([a-z]{2})(?:/|$)`)

// StateFromAreaID extracts the upper-cased state code from a division id, or
// "" when the id is not state-scoped.
func StateFromAreaID(id string) string {
	m := stateRe.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
