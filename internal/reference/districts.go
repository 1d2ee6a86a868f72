package reference

import (
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// SpecialChamber holds names that may appear under either chamber.
const SpecialChamber = "special"

// DistrictTable maps roster district names to area ids for states whose
// legislatures name their districts ("3rd Bristol"):
// state abbreviation (lower case) -> chamber -> district name -> area id.
type DistrictTable map[string]map[string]map[string]string

// LoadDistrictTable reads a table from a YAML or JSON file. An empty path
// yields an empty table, so every named-district lookup misses.
func LoadDistrictTable(path string) (DistrictTable, error) {
	if path == "" {
		return DistrictTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read district table %s", path)
	}
	var t DistrictTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrapf(err, "reference: parse district table %s", path)
	}
	if t == nil {
		t = DistrictTable{}
	}
	return t, nil
}

// Has reports whether the table carries any names for the state.
func (t DistrictTable) Has(state string) bool {
	_, ok := t[strings.ToLower(state)]
	return ok
}

// Lookup finds a district name under the given chamber, then under the
// special section.
func (t DistrictTable) Lookup(state, chamber, name string) (string, bool) {
	chambers := t[strings.ToLower(state)]
	if chambers == nil {
		return "", false
	}
	if id, ok := chambers[chamber][name]; ok {
		return id, true
	}
	id, ok := chambers[SpecialChamber][name]
	return id, ok
}

// Write serializes the table as YAML.
func (t DistrictTable) Write(w io.Writer) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return eris.Wrap(err, "reference: marshal district table")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "reference: write district table")
	}
	return nil
}

// DistrictName converts a stored area name ("Massachusetts 3rd Bristol
// District") to the form the roster uses ("3rd Bristol").
func DistrictName(st State, areaName string) string {
	n := strings.ReplaceAll(areaName, st.Name, "")
	n = strings.ReplaceAll(n, "District", "")
	return strings.Join(strings.Fields(n), " ")
}

// BuildDistrictTable derives a state's section of the table from its stored
// legislative areas: senate districts become "upper" names and house
// districts "lower" names.
func BuildDistrictTable(st State, areas []area.Area) DistrictTable {
	upper := map[string]string{}
	lower := map[string]string{}
	for _, a := range areas {
		name := DistrictName(st, a.Name)
		if name == "" {
			continue
		}
		switch a.Classification {
		case area.StateSenateDistrict:
			upper[name] = a.ID
		case area.StateHouseDistrict:
			lower[name] = a.ID
		}
	}
	return DistrictTable{
		strings.ToLower(st.Abbreviation): {
			"upper":        upper,
			"lower":        lower,
			SpecialChamber: {},
		},
	}
}
