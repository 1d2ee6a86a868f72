// Package reference holds the immutable lookup tables the resolvers need:
// state FIPS codes and names, and per-state district-name tables for
// legislatures whose districts are named rather than numbered.
//
// Tables are loaded once at startup and passed to whatever needs them.
package reference

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"
)

//go:embed states.yaml
var statesYAML []byte

// State is one row of the FIPS table.
type State struct {
	FIPS         string `yaml:"-"`
	Abbreviation string `yaml:"abbreviation"`
	Name         string `yaml:"name"`
}

// States indexes the FIPS table by code, abbreviation and full name.
type States struct {
	byFIPS   map[string]State
	byAbbrev map[string]State
	byName   map[string]State
}

// LoadStates parses the embedded table of the 50 states and DC.
func LoadStates() (*States, error) {
	return ParseStates(statesYAML)
}

// ParseStates parses a FIPS-keyed YAML document.
func ParseStates(data []byte) (*States, error) {
	var raw map[string]State
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "reference: parse states")
	}
	s := &States{
		byFIPS:   make(map[string]State, len(raw)),
		byAbbrev: make(map[string]State, len(raw)),
		byName:   make(map[string]State, len(raw)),
	}
	for fips, st := range raw {
		if st.Abbreviation == "" || st.Name == "" {
			return nil, eris.Errorf("reference: incomplete state row %q", fips)
		}
		st.FIPS = fips
		st.Abbreviation = strings.ToUpper(st.Abbreviation)
		s.byFIPS[fips] = st
		s.byAbbrev[st.Abbreviation] = st
		s.byName[st.Name] = st
	}
	return s, nil
}

// ByFIPS looks up a two-digit FIPS code.
func (s *States) ByFIPS(fips string) (State, bool) {
	st, ok := s.byFIPS[fips]
	return st, ok
}

// ByAbbreviation looks up a postal code, case-insensitively.
func (s *States) ByAbbreviation(abbrev string) (State, bool) {
	st, ok := s.byAbbrev[strings.ToUpper(abbrev)]
	return st, ok
}

// ByName looks up an exact full name such as "Colorado".
func (s *States) ByName(name string) (State, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// FIPSCodes returns every code in ascending order.
func (s *States) FIPSCodes() []string {
	out := make([]string, 0, len(s.byFIPS))
	for k := range s.byFIPS {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len is the number of states in the table.
func (s *States) Len() int { return len(s.byFIPS) }
