package census

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
)

const precinctLines = `{"type":"Feature","properties":{"GEOID":"08031-101","state":"CO","votes_dem":600,"votes_rep":300,"votes_total":950,"pct_dem_lead":31.6,"official_boundary":true},"geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}

{"type":"Feature","properties":{"GEOID":"08031-102","state":"CO","votes_dem":10,"votes_rep":20,"votes_total":30,"pct_dem_lead":-33.3,"official_boundary":false},"geometry":{"type":"MultiPolygon","coordinates":[[[[10,10],[11,10],[11,11],[10,11],[10,10]]]]}}
`

func writeLines(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "precincts.geojsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPrecincts(t *testing.T) {
	var got []*essentials.PrecinctResult
	n, err := ReadPrecincts(writeLines(t, precinctLines), func(p *essentials.PrecinctResult) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, got, 2)

	first := got[0]
	id, err := ocd.MakePrecinctID("08031-101")
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)
	assert.Equal(t, "08031-101", first.GeoID)
	assert.Equal(t, "CO", first.State)
	assert.Equal(t, 600, first.VotesDem)
	assert.Equal(t, 300, first.VotesRep)
	assert.Equal(t, 950, first.VotesTotal)
	assert.InDelta(t, 31.6, first.PctDemLead, 1e-9)
	assert.True(t, first.OfficialBoundary)
	assert.InDelta(t, 1.0, first.CentroidLat, 1e-9)
	assert.InDelta(t, 1.0, first.CentroidLon, 1e-9)

	g, err := area.DecodeEWKB(first.Geometry)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumPolygons())
	assert.Equal(t, area.SRID, g.SRID())

	assert.InDelta(t, 10.5, got[1].CentroidLat, 1e-9)
	assert.False(t, got[1].OfficialBoundary)
}

func TestReadPrecincts_MalformedLine(t *testing.T) {
	_, err := ReadPrecincts(writeLines(t, precinctLines+"{not json\n"), func(*essentials.PrecinctResult) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
}

func TestReadPrecincts_MissingGeoID(t *testing.T) {
	line := `{"properties":{"state":"CO"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}` + "\n"
	_, err := ReadPrecincts(writeLines(t, line), func(*essentials.PrecinctResult) error { return nil })
	require.ErrorIs(t, err, ocd.ErrMissingKey)
}

type precinctRecorder struct{ ids []string }

func (r *precinctRecorder) UpsertPrecinct(_ context.Context, p *essentials.PrecinctResult) error {
	r.ids = append(r.ids, p.GeoID)
	return nil
}

func TestIngestPrecincts(t *testing.T) {
	rec := &precinctRecorder{}
	n, err := IngestPrecincts(context.Background(), writeLines(t, precinctLines), rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"08031-101", "08031-102"}, rec.ids)
}
