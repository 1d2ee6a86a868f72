package reference

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

func TestLoadStates(t *testing.T) {
	s, err := LoadStates()
	require.NoError(t, err)
	assert.Equal(t, 51, s.Len())

	co, ok := s.ByFIPS("08")
	require.True(t, ok)
	assert.Equal(t, "CO", co.Abbreviation)
	assert.Equal(t, "Colorado", co.Name)
	assert.Equal(t, "08", co.FIPS)

	dc, ok := s.ByAbbreviation("dc")
	require.True(t, ok)
	assert.Equal(t, "11", dc.FIPS)

	ma, ok := s.ByName("Massachusetts")
	require.True(t, ok)
	assert.Equal(t, "MA", ma.Abbreviation)

	_, ok = s.ByFIPS("72")
	assert.False(t, ok, "puerto rico is not in the table")
	_, ok = s.ByName("Guam")
	assert.False(t, ok)

	codes := s.FIPSCodes()
	assert.Equal(t, "01", codes[0])
	assert.Equal(t, "56", codes[len(codes)-1])
}

func TestParseStates_Incomplete(t *testing.T) {
	_, err := ParseStates([]byte("\"01\":\n  abbreviation: AL\n"))
	assert.Error(t, err)
}

func TestLoadDistrictTable(t *testing.T) {
	tbl, err := LoadDistrictTable("testdata/districts.yaml")
	require.NoError(t, err)
	assert.True(t, tbl.Has("MA"))

	id, ok := tbl.Lookup("ma", "lower", "3rd Bristol")
	require.True(t, ok)
	assert.Equal(t, "ocd-division/country:us/state:ma/sldl:12", id)

	id, ok = tbl.Lookup("ma", "upper", "Barnstable, Dukes and Nantucket")
	require.True(t, ok, "falls back to the special section")
	assert.Equal(t, "ocd-division/country:us/state:ma/sldl:1", id)

	_, ok = tbl.Lookup("ma", "upper", "3rd Bristol")
	assert.False(t, ok)
	_, ok = tbl.Lookup("ct", "upper", "1")
	assert.False(t, ok)
}

func TestLoadDistrictTable_EmptyPath(t *testing.T) {
	tbl, err := LoadDistrictTable("")
	require.NoError(t, err)
	assert.False(t, tbl.Has("ma"))
}

func TestLoadDistrictTable_Missing(t *testing.T) {
	_, err := LoadDistrictTable("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestBuildDistrictTable(t *testing.T) {
	st := State{FIPS: "25", Abbreviation: "MA", Name: "Massachusetts"}
	tbl := BuildDistrictTable(st, []area.Area{
		{ID: "ocd-division/country:us/state:ma/sldl:12", Name: "Massachusetts 3rd Bristol District", Classification: area.StateHouseDistrict},
		{ID: "ocd-division/country:us/state:ma/sldu:8", Name: "Massachusetts First Bristol and Plymouth District", Classification: area.StateSenateDistrict},
		{ID: "ocd-division/country:us/state:ma", Name: "Massachusetts", Classification: area.FederalSenateDistrict},
	})

	id, ok := tbl.Lookup("ma", "lower", "3rd Bristol")
	require.True(t, ok)
	assert.Equal(t, "ocd-division/country:us/state:ma/sldl:12", id)
	id, ok = tbl.Lookup("ma", "upper", "First Bristol and Plymouth")
	require.True(t, ok)
	assert.Equal(t, "ocd-division/country:us/state:ma/sldu:8", id)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.Contains(t, buf.String(), "3rd Bristol")
}
