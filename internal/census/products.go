// Package census downloads TIGER/Line boundary files from the Census Bureau
// and turns their records into areas.
package census

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// ErrUnknownProduct is returned for a product name missing from Products.
var ErrUnknownProduct = eris.New("census: unknown product")

// Release pins the TIGER vintage and the Congress whose districts it draws.
type Release struct {
	Year     int
	Congress int
}

// DefaultRelease is the vintage the district tables were built against.
var DefaultRelease = Release{Year: 2024, Congress: 119}

func (r Release) expand(s, fips string) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(r.Year),
		"{congress}", strconv.Itoa(r.Congress),
		"{fips}", fips,
	).Replace(s)
}

// Fields names the attribute columns a product's table carries. Empty names
// are columns the product does not have.
type Fields struct {
	StateFIPS string
	District  string
	Name      string
	GeoID     string
	GeoIDFQ   string
	LSAD      string
	MTFCC     string
	FuncStat  string
	LandArea  string
	WaterArea string
	Lat       string
	Lon       string
}

// Product describes one TIGER/Line boundary product.
type Product struct {
	Name           string
	Classification area.Classification
	// National products ship as one file; the rest ship one file per state
	// FIPS code.
	National bool
	URL      string
	// Undefined is the district label the census uses for water and other
	// unassigned territory.
	Undefined string
	Fields    Fields
}

// URLFor returns the download url for the product in release r. fips is
// ignored for national products.
func (p Product) URLFor(r Release, fips string) string {
	return r.expand(p.URL, fips)
}

// FieldsFor resolves release placeholders in the product's field names.
func (p Product) FieldsFor(r Release) Fields {
	f := p.Fields
	f.District = r.expand(f.District, "")
	return f
}

const tigerBase = "https://www2.census.gov/geo/tiger/TIGER{year}/"

var tigerFields = Fields{
	StateFIPS: "STATEFP",
	Name:      "NAMELSAD",
	GeoID:     "GEOID",
	GeoIDFQ:   "GEOIDFQ",
	LSAD:      "LSAD",
	MTFCC:     "MTFCC",
	FuncStat:  "FUNCSTAT",
	LandArea:  "ALAND",
	WaterArea: "AWATER",
	Lat:       "INTPTLAT",
	Lon:       "INTPTLON",
}

func withDistrict(f Fields, district string) Fields {
	f.District = district
	return f
}

// Products lists the boundary products the engine loads, keyed by the name
// used on the command line.
var Products = map[string]Product{
	"nation": {
		Name:           "nation",
		Classification: area.Country,
		National:       true,
		// The TIGER nation file is not published; the cartographic boundary
		// file is.
		URL: "https://www2.census.gov/geo/tiger/GENZ2023/shp/cb_2023_us_nation_5m.zip",
		Fields: Fields{
			Name:    "NAME",
			GeoID:   "GEOID",
			GeoIDFQ: "AFFGEOID",
		},
	},
	"state": {
		Name:           "state",
		Classification: area.FederalSenateDistrict,
		National:       true,
		URL:            tigerBase + "STATE/tl_{year}_us_state.zip",
		Fields: func() Fields {
			f := tigerFields
			f.Name = "NAME"
			return f
		}(),
	},
	"cd": {
		Name:           "cd",
		Classification: area.FederalHouseDistrict,
		URL:            tigerBase + "CD/tl_{year}_{fips}_cd{congress}.zip",
		Undefined:      "ZZ",
		Fields:         withDistrict(tigerFields, "CD{congress}FP"),
	},
	"sldu": {
		Name:           "sldu",
		Classification: area.StateSenateDistrict,
		URL:            tigerBase + "SLDU/tl_{year}_{fips}_sldu.zip",
		Undefined:      "ZZZ",
		Fields:         withDistrict(tigerFields, "SLDUST"),
	},
	"sldl": {
		Name:           "sldl",
		Classification: area.StateHouseDistrict,
		URL:            tigerBase + "SLDL/tl_{year}_{fips}_sldl.zip",
		Undefined:      "ZZZ",
		Fields:         withDistrict(tigerFields, "SLDLST"),
	},
	"zcta": {
		Name:           "zcta",
		Classification: area.Zipcode,
		National:       true,
		URL:            tigerBase + "ZCTA520/tl_{year}_us_zcta520.zip",
		Fields: Fields{
			District:  "ZCTA5CE20",
			GeoID:     "GEOID20",
			GeoIDFQ:   "GEOIDFQ20",
			MTFCC:     "MTFCC20",
			FuncStat:  "FUNCSTAT20",
			LandArea:  "ALAND20",
			WaterArea: "AWATER20",
			Lat:       "INTPTLAT20",
			Lon:       "INTPTLON20",
		},
	},
}

// LookupProduct finds a product by name, case-insensitively.
func LookupProduct(name string) (Product, error) {
	p, ok := Products[strings.ToLower(name)]
	if !ok {
		return Product{}, eris.Wrapf(ErrUnknownProduct, "census: %q (have %s)", name, strings.Join(ProductNames(), ", "))
	}
	return p, nil
}

// ProductNames returns the product names in sorted order.
func ProductNames() []string {
	names := make([]string, 0, len(Products))
	for n := range Products {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
