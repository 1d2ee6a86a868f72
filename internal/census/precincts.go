package census

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
)

// maxPrecinctLine bounds one GeoJSON feature; dense urban precincts run to a
// few megabytes.
const maxPrecinctLine = 64 << 20

type precinctFeature struct {
	Properties struct {
		GeoID            string  `json:"GEOID"`
		State            string  `json:"state"`
		VotesDem         int     `json:"votes_dem"`
		VotesRep         int     `json:"votes_rep"`
		VotesTotal       int     `json:"votes_total"`
		PctDemLead       float64 `json:"pct_dem_lead"`
		OfficialBoundary bool    `json:"official_boundary"`
	} `json:"properties"`
	Geometry json.RawMessage `json:"geometry"`
}

// PrecinctFunc receives each parsed precinct.
type PrecinctFunc func(p *essentials.PrecinctResult) error

// ReadPrecincts parses newline-delimited GeoJSON precinct results, one
// feature per line. Blank lines are ignored; any malformed line stops the
// read with its line number.
func ReadPrecincts(path string, fn PrecinctFunc) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "census: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), maxPrecinctLine)
	line, count := 0, 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		p, err := parsePrecinct(sc.Bytes())
		if err != nil {
			return count, eris.Wrapf(err, "census: %s line %d", path, line)
		}
		if err := fn(p); err != nil {
			return count, err
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, eris.Wrapf(err, "census: read %s", path)
	}
	return count, nil
}

func parsePrecinct(data []byte) (*essentials.PrecinctResult, error) {
	var feat precinctFeature
	if err := json.Unmarshal(data, &feat); err != nil {
		return nil, eris.Wrap(err, "census: decode precinct")
	}
	props := feat.Properties
	id, err := ocd.MakePrecinctID(props.GeoID)
	if err != nil {
		return nil, err
	}

	var g geom.T
	if err := geojson.Unmarshal(feat.Geometry, &g); err != nil {
		return nil, eris.Wrapf(err, "census: precinct %s geometry", props.GeoID)
	}
	mp, err := area.ToMultiPolygon(g)
	if err != nil {
		return nil, eris.Wrapf(err, "census: precinct %s", props.GeoID)
	}
	shape := &area.Area{ID: props.GeoID, Geometry: mp}
	centroid, err := shape.CentroidPoint()
	if err != nil {
		return nil, err
	}
	ewkb, err := shape.EncodeEWKB()
	if err != nil {
		return nil, err
	}

	return &essentials.PrecinctResult{
		ID:               id,
		GeoID:            props.GeoID,
		State:            props.State,
		VotesDem:         props.VotesDem,
		VotesRep:         props.VotesRep,
		VotesTotal:       props.VotesTotal,
		PctDemLead:       props.PctDemLead,
		OfficialBoundary: props.OfficialBoundary,
		CentroidLat:      centroid.Lat,
		CentroidLon:      centroid.Lon,
		Geometry:         ewkb,
	}, nil
}
