package census

import (
	"context"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

type fakeFetcher struct {
	files map[string]string
	urls  []string
}

func (f *fakeFetcher) Download(_ context.Context, url, _ string) (string, error) {
	f.urls = append(f.urls, url)
	for suffix, path := range f.files {
		if strings.HasSuffix(url, suffix) {
			return path, nil
		}
	}
	return "", eris.Wrapf(ErrNotFound, "census: %s", url)
}

type batchRecorder struct {
	batches [][]string
	fail    error
}

func (b *batchRecorder) UpsertAreas(_ context.Context, areas []*area.Area) error {
	if b.fail != nil {
		return b.fail
	}
	ids := make([]string, 0, len(areas))
	for _, a := range areas {
		ids = append(ids, a.ID)
	}
	b.batches = append(b.batches, ids)
	return nil
}

func TestIngest_PerStateProduct(t *testing.T) {
	fetch := &fakeFetcher{files: map[string]string{"tl_2024_08_cd119.zip": zipShapefile(t, cdFixture(t))}}
	store := &batchRecorder{}
	in := &Ingester{Fetcher: fetch, Store: store, States: loadStates(t), BatchSize: 2}

	stats, err := in.Ingest(context.Background(), Products["cd"])
	require.NoError(t, err)

	assert.Equal(t, IngestStats{Files: 1, Missing: 50, Records: 5, Areas: 3}, stats)
	assert.Len(t, fetch.urls, 51)
	assert.Equal(t, "https://www2.census.gov/geo/tiger/TIGER2024/CD/tl_2024_01_cd119.zip", fetch.urls[0])
	assert.Equal(t, [][]string{
		{"ocd-division/country:us/state:co/cd:1", "ocd-division/country:us/state:wy/cd:at-large"},
		{"ocd-division/country:us/state:co/cd:7"},
	}, store.batches)
}

func TestIngest_NationalProduct(t *testing.T) {
	path := writeShapefile(t, t.TempDir(), "tl_2024_us_state", []shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("NAME", 40),
	}, []fixture{
		{rings: [][]shp.Point{unit}, attrs: []string{"08", "Colorado"}},
	})
	fetch := &fakeFetcher{files: map[string]string{"tl_2024_us_state.zip": path}}
	store := &batchRecorder{}
	in := &Ingester{Fetcher: fetch, Store: store, States: loadStates(t)}

	stats, err := in.Ingest(context.Background(), Products["state"])
	require.NoError(t, err)
	assert.Equal(t, IngestStats{Files: 1, Records: 1, Areas: 1}, stats)
	assert.Equal(t, [][]string{{"ocd-division/country:us/state:co"}}, store.batches)
}

func TestIngest_StoreErrorStops(t *testing.T) {
	fetch := &fakeFetcher{files: map[string]string{"tl_2024_08_cd119.zip": cdFixture(t)}}
	store := &batchRecorder{fail: assert.AnError}
	in := &Ingester{Fetcher: fetch, Store: store, States: loadStates(t)}

	_, err := in.Ingest(context.Background(), Products["cd"])
	require.ErrorIs(t, err, assert.AnError)
}
