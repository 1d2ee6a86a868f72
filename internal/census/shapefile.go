package census

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
)

// countryName is stored on the nation area; the boundary file names it
// "United States".
const countryName = "United States of America"

// shapeReader is the part of go-shp's plain and zip readers ReadAreas uses.
type shapeReader interface {
	Next() bool
	Shape() (int, shp.Shape)
	Attribute(n int) string
	Fields() []shp.Field
	Err() error
	Close() error
}

func openShapes(path string) (shapeReader, error) {
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		return shp.OpenZip(path)
	}
	return shp.Open(path)
}

// AreaFunc receives each converted record with its index in the file.
// Returning an error stops the read.
type AreaFunc func(index int, a *area.Area) error

// ReadOptions control ReadAreas.
type ReadOptions struct {
	Release Release
	// Start skips records before this index, so an interrupted load can
	// resume where it stopped.
	Start int
}

// ReadAreas converts a product's shapefile (.shp, or the .zip the census
// publishes) into areas one record at a time, handing each to fn. Undefined
// districts and FIPS codes outside the state table are skipped. It returns
// the number of records read, skipped ones included.
func ReadAreas(path string, p Product, states *reference.States, opts ReadOptions, fn AreaFunc) (int, error) {
	r, err := openShapes(path)
	if err != nil {
		return 0, eris.Wrapf(err, "census: open %s", path)
	}
	defer func() { _ = r.Close() }()

	log := zap.L().With(zap.String("component", "census"), zap.String("product", p.Name))
	if opts.Release == (Release{}) {
		opts.Release = DefaultRelease
	}
	c := converter{
		product: p,
		fields:  p.FieldsFor(opts.Release),
		states:  states,
		index:   fieldIndex(r.Fields()),
	}

	read := 0
	for r.Next() {
		n, shape := r.Shape()
		read++
		if n < opts.Start {
			continue
		}
		a, reason, err := c.convert(r, shape)
		if err != nil {
			return read, eris.Wrapf(err, "census: %s record %d", path, n)
		}
		if a == nil {
			log.Debug("skipping record", zap.Int("record", n), zap.String("reason", reason))
			continue
		}
		if err := fn(n, a); err != nil {
			return read, err
		}
	}
	if err := r.Err(); err != nil {
		return read, eris.Wrapf(err, "census: read %s", path)
	}
	return read, nil
}

func fieldIndex(fields []shp.Field) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[strings.ToUpper(strings.TrimRight(f.String(), "\x00"))] = i
	}
	return idx
}

type converter struct {
	product Product
	fields  Fields
	states  *reference.States
	index   map[string]int
}

// attr reads a named column of the current record. Unknown or empty names
// read as "".
func (c *converter) attr(r shapeReader, name string) string {
	if name == "" {
		return ""
	}
	i, ok := c.index[strings.ToUpper(name)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(r.Attribute(i), "\x00"))
}

// convert builds one area. A nil area with a reason means the record is
// deliberately skipped.
func (c *converter) convert(r shapeReader, shape shp.Shape) (*area.Area, string, error) {
	f := c.fields
	a := &area.Area{
		Classification: c.product.Classification,
		GeoID:          c.attr(r, f.GeoID),
		GeoIDFQ:        c.attr(r, f.GeoIDFQ),
		LSAD:           c.attr(r, f.LSAD),
		MTFCC:          c.attr(r, f.MTFCC),
		FuncStat:       c.attr(r, f.FuncStat),
	}
	district := c.attr(r, f.District)
	if c.product.Undefined != "" && district == c.product.Undefined {
		return nil, "undefined district", nil
	}

	var err error
	switch c.product.Classification {
	case area.Country:
		a.Name, a.Abbrev = countryName, "USA"
		a.ID, err = ocd.MakeAreaID(area.Country, "", "")
	case area.Zipcode:
		a.Name, a.Abbrev = "Zip Code "+district, district
		a.ID, err = ocd.MakeAreaID(area.Zipcode, "", district)
	default:
		fips := c.attr(r, f.StateFIPS)
		st, ok := c.states.ByFIPS(fips)
		if !ok {
			return nil, "fips " + fips + " not in the state table", nil
		}
		a.FIPSCode = fips
		if c.product.Classification == area.FederalSenateDistrict {
			a.Name, a.Abbrev = st.Name, st.Abbreviation
		} else {
			a.Name = st.Name + " " + c.attr(r, f.Name)
			a.DistrictNumber = ocd.DistrictNumber(c.product.Classification, st.Abbreviation, district)
		}
		a.ID, err = ocd.MakeAreaID(c.product.Classification, st.Abbreviation, district)
	}
	if err != nil {
		return nil, "", err
	}

	if a.LandArea, err = parseInt(c.attr(r, f.LandArea)); err != nil {
		return nil, "", eris.Wrapf(err, "census: %s land area", a.ID)
	}
	if a.WaterArea, err = parseInt(c.attr(r, f.WaterArea)); err != nil {
		return nil, "", eris.Wrapf(err, "census: %s water area", a.ID)
	}
	if a.Centroid.Lat, err = parseFloat(c.attr(r, f.Lat)); err != nil {
		return nil, "", eris.Wrapf(err, "census: %s interior latitude", a.ID)
	}
	if a.Centroid.Lon, err = parseFloat(c.attr(r, f.Lon)); err != nil {
		return nil, "", eris.Wrapf(err, "census: %s interior longitude", a.ID)
	}
	a.Geometry = polygonGeometry(shape)
	return a, "", nil
}

// polygonGeometry converts a shapefile polygon's parts into a multipolygon.
// Non-polygon shapes have no area geometry.
func polygonGeometry(shape shp.Shape) *geom.MultiPolygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 {
		return nil
	}
	rings := make([][]geom.Coord, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		ring := make([]geom.Coord, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}
	return area.FromRings(rings)
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseFloat reads census interior points, which carry an explicit sign
// ("+39.7391536").
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
