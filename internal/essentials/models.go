package essentials

import (
	"time"

	"github.com/lib/pq"
)

// Schema holds every table this package owns.
const Schema = "civics"

// RelationshipZipCoverage links a representative to a zip code their
// district covers.
const RelationshipZipCoverage = "constituent_area_zip_code"

type Person struct {
	ID                 string         `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"not null"`
	FirstName          string         `json:"first_name"`
	LastName           string         `json:"last_name"`
	OtherNames         pq.StringArray `json:"other_names" gorm:"type:text[]"`
	Party              string         `json:"party"`
	JurisdictionAreaID string         `json:"jurisdiction_area_id" gorm:"index"`
	ConstituentAreaID  string         `json:"constituent_area_id" gorm:"index;not null"`
	Chamber            string         `json:"chamber"`
	Image              string         `json:"image"`
	Email              string         `json:"email"`
	Offices            JSONB          `json:"offices" gorm:"type:jsonb"`
	Links              JSONB          `json:"links" gorm:"type:jsonb"`
	IDs                JSONB          `json:"ids" gorm:"column:ids;type:jsonb"`
	Sources            JSONB          `json:"sources" gorm:"type:jsonb"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// PersonArea is a computed association between a person and an area. Rows
// are regenerated wholesale per run, never edited.
type PersonArea struct {
	PersonID     string    `json:"person_id" gorm:"primaryKey"`
	AreaID       string    `json:"area_id" gorm:"primaryKey;index"`
	Relationship string    `json:"relationship" gorm:"primaryKey"`
	ComputedAt   time.Time `json:"computed_at"`
}

type Jurisdiction struct {
	ID                 string     `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name"`
	Classification     string     `json:"classification"`
	DivisionID         string     `json:"division_id"`
	URL                string     `json:"url"`
	LatestBillUpdate   *time.Time `json:"latest_bill_update"`
	LatestPeopleUpdate *time.Time `json:"latest_people_update"`
	LatestRuns         JSONB      `json:"latest_runs" gorm:"type:jsonb"`
	LastProcessed      *time.Time `json:"last_processed"`
}

type Bill struct {
	ID                      string         `json:"id" gorm:"primaryKey"`
	Identifier              string         `json:"identifier" gorm:"not null"`
	Title                   string         `json:"title"`
	LegislativeSession      string         `json:"legislative_session"`
	JurisdictionAreaID      string         `json:"jurisdiction_area_id" gorm:"index"`
	JurisdictionLevel       string         `json:"jurisdiction_level"`
	FromOrganization        JSONB          `json:"from_organization" gorm:"type:jsonb"`
	Classification          pq.StringArray `json:"classification" gorm:"type:text[]"`
	Subject                 pq.StringArray `json:"subject" gorm:"type:text[]"`
	Abstracts               JSONB          `json:"abstracts" gorm:"type:jsonb"`
	OtherTitles             JSONB          `json:"other_titles" gorm:"type:jsonb"`
	OtherIdentifiers        JSONB          `json:"other_identifiers" gorm:"type:jsonb"`
	Actions                 JSONB          `json:"actions" gorm:"type:jsonb"`
	Sponsorships            JSONB          `json:"sponsorships" gorm:"type:jsonb"`
	RelatedBills            JSONB          `json:"related_bills" gorm:"type:jsonb"`
	Versions                JSONB          `json:"versions" gorm:"type:jsonb"`
	Documents               JSONB          `json:"documents" gorm:"type:jsonb"`
	Citations               JSONB          `json:"citations" gorm:"type:jsonb"`
	Sources                 JSONB          `json:"sources" gorm:"type:jsonb"`
	Extras                  JSONB          `json:"extras" gorm:"type:jsonb"`
	FirstActionDate         *time.Time     `json:"first_action_date"`
	LatestActionDate        *time.Time     `json:"latest_action_date"`
	LatestActionDescription string         `json:"latest_action_description"`
	OpenStatesURL           string         `json:"openstates_url"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

type VoteEvent struct {
	ID                   string         `json:"id" gorm:"primaryKey"`
	BillID               string         `json:"bill_id" gorm:"index"`
	Identifier           string         `json:"identifier"`
	MotionText           string         `json:"motion_text"`
	MotionClassification pq.StringArray `json:"motion_classification" gorm:"type:text[]"`
	StartDate            time.Time      `json:"start_date"`
	Result               string         `json:"result"`
	Chamber              string         `json:"chamber"`
	LegislativeSession   string         `json:"legislative_session"`
	Votes                JSONB          `json:"votes" gorm:"type:jsonb"`
	Counts               JSONB          `json:"counts" gorm:"type:jsonb"`
	Sources              JSONB          `json:"sources" gorm:"type:jsonb"`
	Extras               JSONB          `json:"extras" gorm:"type:jsonb"`
}

// CoverageCheckpoint records how far a zip coverage run got so it can resume.
type CoverageCheckpoint struct {
	RunID     string    `json:"run_id" gorm:"primaryKey"`
	Mode      string    `json:"mode"`
	LastZipID string    `json:"last_zip_id"`
	ZipsDone  int       `json:"zips_done"`
	Failed    int       `json:"failed"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Person) TableName() string {
	return Schema + ".people"
}

func (PersonArea) TableName() string {
	return Schema + ".person_areas"
}

func (Jurisdiction) TableName() string {
	return Schema + ".jurisdictions"
}

func (Bill) TableName() string {
	return Schema + ".bills"
}

func (VoteEvent) TableName() string {
	return Schema + ".vote_events"
}

func (CoverageCheckpoint) TableName() string {
	return Schema + ".coverage_checkpoints"
}
