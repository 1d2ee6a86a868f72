// Package votes resolves the free-text voter names on roll-call votes to
// person ids.
package votes

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
)

// DefaultThreshold is the minimum fuzzy score, on a 0-100 scale, for a match.
const DefaultThreshold = 80

// Vote is one legislator's recorded vote. VoterID starts out as the source's
// placeholder and is only ever replaced by a resolved person id.
type Vote struct {
	Option    string `json:"option"`
	VoterName string `json:"voter_name"`
	VoterID   string `json:"voter_id"`
}

// PersonStub is the part of a person the resolver matches against.
type PersonStub struct {
	ID        string
	Name      string
	FirstName string
	LastName  string
	Chamber   string
	// State is the upper-case code derived from the constituent area.
	State string
}

// NewPersonStub derives the stub's state from the constituent area id.
func NewPersonStub(id, name, first, last, chamber, constituentAreaID string) PersonStub {
	return PersonStub{
		ID:        id,
		Name:      name,
		FirstName: first,
		LastName:  last,
		Chamber:   chamber,
		State:     ocd.StateFromAreaID(constituentAreaID),
	}
}

var (
	stateHintRe   = regexp.MustCompile(`\((?:[A-Z]-)?([A-Z]{2})\)\s*$`)
	parentheticRe = regexp.MustCompile(`\([^)]*\)`)
)

var chamberLabels = map[string]string{
	"upper": "Senate",
	"lower": "House",
}

// Resolver matches voter names to candidates. The zero value uses
// DefaultThreshold.
type Resolver struct {
	Threshold float64
}

func NewResolver(threshold float64) *Resolver {
	return &Resolver{Threshold: threshold}
}

func (r *Resolver) threshold() float64 {
	if r == nil || r.Threshold <= 0 {
		return DefaultThreshold
	}
	return r.Threshold
}

// StateHint extracts "CO" from "Bennet (D-CO)" or "Bennet (CO)".
func StateHint(voterName string) (string, bool) {
	m := stateHintRe.FindStringSubmatch(voterName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Standardize drops every parenthetical and all diacritics, and collapses
// the whitespace left behind.
func Standardize(voterName string) string {
	name := strings.Join(strings.Fields(parentheticRe.ReplaceAllString(voterName, "")), " ")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, name)
	if err != nil {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(out)
}

// Filter keeps candidates in the hinted state and the vote's chamber. Each
// filter applies only when its input is known; an empty result stays empty.
func Filter(candidates []PersonStub, state, chamber string) []PersonStub {
	label := chamberLabels[strings.ToLower(chamber)]
	out := make([]PersonStub, 0, len(candidates))
	for _, c := range candidates {
		if state != "" && !strings.EqualFold(c.State, state) {
			continue
		}
		if label != "" && !strings.EqualFold(c.Chamber, label) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ResolveVoterID finds the person behind a roll-call voter name. chamber is
// the vote's chamber ("upper", "lower" or anything else for no filter).
func (r *Resolver) ResolveVoterID(voterName, chamber string, candidates []PersonStub) (string, bool) {
	state, ok := StateHint(voterName)
	if !ok {
		zap.L().Warn("no state hint in voter name",
			zap.String("component", "votes"),
			zap.String("voter_name", voterName))
	}
	name := Standardize(voterName)
	pool := Filter(candidates, state, chamber)

	if id, ok := exactMatch(name, pool); ok {
		return id, true
	}
	if id, score, ok := r.fuzzyMatch(name, pool); ok {
		zap.L().Debug("fuzzy voter match",
			zap.String("component", "votes"),
			zap.String("voter_name", voterName),
			zap.String("person", id),
			zap.Float64("score", score))
		return id, true
	}
	return "", false
}

// exactMatch tries every candidate's full name before any last name.
func exactMatch(name string, pool []PersonStub) (string, bool) {
	for _, c := range pool {
		if strings.EqualFold(name, c.Name) {
			return c.ID, true
		}
	}
	for _, c := range pool {
		if c.LastName != "" && strings.EqualFold(name, c.LastName) {
			return c.ID, true
		}
	}
	return "", false
}

func (r *Resolver) fuzzyMatch(name string, pool []PersonStub) (string, float64, bool) {
	var (
		bestID    string
		bestScore float64
	)
	needle := strings.ToLower(name)
	for _, c := range pool {
		for _, candidate := range []string{strings.TrimSpace(c.FirstName + " " + c.LastName), c.Name} {
			if candidate == "" {
				continue
			}
			score := Score(needle, strings.ToLower(candidate))
			if score > bestScore {
				bestID, bestScore = c.ID, score
			}
		}
	}
	if bestID == "" || bestScore < r.threshold() {
		return "", bestScore, false
	}
	return bestID, bestScore, true
}
