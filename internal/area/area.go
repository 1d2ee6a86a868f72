// Package area models political and administrative regions: their
// classification, identity and geometry.
package area

import (
	"github.com/twpayne/go-geom"
)

// SRID is the spatial reference every stored geometry uses (WGS 84).
const SRID = 4326

// Classification is the taxonomy an Area belongs to.
type Classification string

const (
	Country               Classification = "country"
	FederalSenateDistrict Classification = "federal_senate_district"
	FederalHouseDistrict  Classification = "federal_house_district"
	StateSenateDistrict   Classification = "state_senate_district"
	StateHouseDistrict    Classification = "state_house_district"
	Zipcode               Classification = "zipcode"
	Precinct              Classification = "precinct"
)

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	switch c {
	case Country, FederalSenateDistrict, FederalHouseDistrict,
		StateSenateDistrict, StateHouseDistrict, Zipcode, Precinct:
		return true
	}
	return false
}

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coord returns p in go-geom (x=lon, y=lat) order.
func (p Point) Coord() geom.Coord { return geom.Coord{p.Lon, p.Lat} }

// PointFromCoord converts an x/y coordinate back to a Point.
func PointFromCoord(c geom.Coord) Point { return Point{Lat: c[1], Lon: c[0]} }

// Area is a region with a stable identifier. The identifier determines the
// classification and the geometry; re-ingesting the same id replaces all
// other fields.
type Area struct {
	ID             string
	Classification Classification
	Name           string
	Abbrev         string
	FIPSCode       string
	DistrictNumber string

	GeoID    string
	GeoIDFQ  string
	LSAD     string
	MTFCC    string
	FuncStat string

	LandArea  int64
	WaterArea int64

	Centroid Point
	Geometry *geom.MultiPolygon
}

// HasCentroid reports whether a centroid was supplied by the source.
func (a *Area) HasCentroid() bool {
	return a.Centroid.Lat != 0 || a.Centroid.Lon != 0
}
