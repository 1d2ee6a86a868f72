package essentials

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// Area stores a boundary and its census metadata. Geometry is hex EWKB, the
// text form PostGIS reads and writes for geometry columns.
type Area struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	Classification string  `json:"classification" gorm:"index;not null"`
	Name           string  `json:"name"`
	Abbrev         string  `json:"abbrev"`
	FIPSCode       string  `json:"fips_code" gorm:"column:fips_code;index"`
	DistrictNumber string  `json:"district_number"`
	GeoID          string  `json:"geo_id" gorm:"size:60"`
	GeoIDFQ        string  `json:"geo_id_fq" gorm:"column:geo_id_fq"`
	LSAD           string  `json:"lsad" gorm:"column:lsad"`
	MTFCC          string  `json:"mtfcc" gorm:"column:mtfcc;size:10"`
	FuncStat       string  `json:"funcstat" gorm:"column:funcstat;size:2"`
	LandArea       int64   `json:"land_area"`
	WaterArea      int64   `json:"water_area"`
	CentroidLat    float64 `json:"centroid_lat"`
	CentroidLon    float64 `json:"centroid_lon"`

	Geometry *string `json:"-" gorm:"type:geometry(Geometry,4326)"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PrecinctResult is one precinct's presidential result with its boundary.
type PrecinctResult struct {
	ID               string  `json:"id" gorm:"primaryKey"`
	GeoID            string  `json:"geo_id" gorm:"uniqueIndex"`
	State            string  `json:"state" gorm:"index;size:2"`
	VotesDem         int     `json:"votes_dem"`
	VotesRep         int     `json:"votes_rep"`
	VotesTotal       int     `json:"votes_total"`
	PctDemLead       float64 `json:"pct_dem_lead"`
	OfficialBoundary bool    `json:"official_boundary"`
	CentroidLat      float64 `json:"centroid_lat"`
	CentroidLon      float64 `json:"centroid_lon"`

	Geometry string `json:"-" gorm:"type:geometry(Geometry,4326)"`
}

func (Area) TableName() string {
	return Schema + ".areas"
}

func (PrecinctResult) TableName() string {
	return Schema + ".precinct_results"
}

// AreaRow converts a domain area into its stored form.
func AreaRow(a *area.Area) (Area, error) {
	g, err := a.EncodeEWKB()
	if err != nil {
		return Area{}, err
	}
	row := Area{
		ID:             a.ID,
		Classification: string(a.Classification),
		Name:           a.Name,
		Abbrev:         a.Abbrev,
		FIPSCode:       a.FIPSCode,
		DistrictNumber: a.DistrictNumber,
		GeoID:          a.GeoID,
		GeoIDFQ:        a.GeoIDFQ,
		LSAD:           a.LSAD,
		MTFCC:          a.MTFCC,
		FuncStat:       a.FuncStat,
		LandArea:       a.LandArea,
		WaterArea:      a.WaterArea,
		CentroidLat:    a.Centroid.Lat,
		CentroidLon:    a.Centroid.Lon,
	}
	if g != "" {
		row.Geometry = &g
	}
	return row, nil
}

// Domain converts a stored row back to an area, decoding the geometry.
func (r Area) Domain() (*area.Area, error) {
	var g *geom.MultiPolygon
	if r.Geometry != nil {
		var err error
		if g, err = area.DecodeEWKB(*r.Geometry); err != nil {
			return nil, err
		}
	}
	return &area.Area{
		ID:             r.ID,
		Classification: area.Classification(r.Classification),
		Name:           r.Name,
		Abbrev:         r.Abbrev,
		FIPSCode:       r.FIPSCode,
		DistrictNumber: r.DistrictNumber,
		GeoID:          r.GeoID,
		GeoIDFQ:        r.GeoIDFQ,
		LSAD:           r.LSAD,
		MTFCC:          r.MTFCC,
		FuncStat:       r.FuncStat,
		LandArea:       r.LandArea,
		WaterArea:      r.WaterArea,
		Centroid:       area.Point{Lat: r.CentroidLat, Lon: r.CentroidLon},
		Geometry:       g,
	}, nil
}
