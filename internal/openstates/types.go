package openstates

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Pagination is the paging block of every list response. Callers advance
// Page until it passes MaxPage.
type Pagination struct {
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
	MaxPage    int `json:"max_page"`
	TotalItems int `json:"total_items"`
}

type JurisdictionRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

type CurrentRole struct {
	Title             string `json:"title"`
	OrgClassification string `json:"org_classification"`
	District          string `json:"district"`
	DivisionID        string `json:"division_id"`
}

// GeoPerson is one representative returned by a point lookup.
type GeoPerson struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Party        string          `json:"party"`
	CurrentRole  CurrentRole     `json:"current_role"`
	Jurisdiction JurisdictionRef `json:"jurisdiction"`
}

type peopleGeoResponse struct {
	Results []GeoPerson `json:"results"`
	Detail  *string     `json:"detail"`
}

type Run struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Success   bool   `json:"success"`
}

// Jurisdiction is the detail record for one jurisdiction.
type Jurisdiction struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Classification     string          `json:"classification"`
	DivisionID         string          `json:"division_id"`
	URL                string          `json:"url"`
	LatestBillUpdate   string          `json:"latest_bill_update"`
	LatestPeopleUpdate string          `json:"latest_people_update"`
	LatestRuns         []Run           `json:"latest_runs"`
	Organizations      json.RawMessage `json:"organizations,omitempty"`
}

// LatestRunEnd is the end time of the most recent scrape.
func (j *Jurisdiction) LatestRunEnd() (time.Time, bool, error) {
	if len(j.LatestRuns) == 0 {
		return time.Time{}, false, nil
	}
	t, err := ParseTime(j.LatestRuns[len(j.LatestRuns)-1].EndTime)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

type Action struct {
	Date           string   `json:"date"`
	Description    string   `json:"description"`
	Classification []string `json:"classification"`
	Order          int      `json:"order"`
}

type VoteCount struct {
	Option string `json:"option"`
	Value  int    `json:"value"`
}

type PersonVote struct {
	Option    string `json:"option"`
	VoterName string `json:"voter_name"`
	Voter     *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"voter"`
}

type VoteEvent struct {
	ID                   string          `json:"id"`
	MotionText           string          `json:"motion_text"`
	MotionClassification []string        `json:"motion_classification"`
	StartDate            string          `json:"start_date"`
	Result               string          `json:"result"`
	Identifier           string          `json:"identifier"`
	Organization         JurisdictionRef `json:"organization"`
	Votes                []PersonVote    `json:"votes"`
	Counts               []VoteCount     `json:"counts"`
	Sources              json.RawMessage `json:"sources,omitempty"`
}

// Bill is a bill as served by the bills endpoint with votes and actions
// included.
type Bill struct {
	ID                      string          `json:"id"`
	Session                 string          `json:"session"`
	Jurisdiction            JurisdictionRef `json:"jurisdiction"`
	FromOrganization        JurisdictionRef `json:"from_organization"`
	Identifier              string          `json:"identifier"`
	Title                   string          `json:"title"`
	Classification          []string        `json:"classification"`
	Subject                 []string        `json:"subject"`
	CreatedAt               string          `json:"created_at"`
	UpdatedAt               string          `json:"updated_at"`
	OpenstatesURL           string          `json:"openstates_url"`
	FirstActionDate         string          `json:"first_action_date"`
	LatestActionDate        string          `json:"latest_action_date"`
	LatestActionDescription string          `json:"latest_action_description"`
	Actions                 []Action        `json:"actions"`
	Sponsorships            json.RawMessage `json:"sponsorships,omitempty"`
	Abstracts               json.RawMessage `json:"abstracts,omitempty"`
	OtherTitles             json.RawMessage `json:"other_titles,omitempty"`
	OtherIdentifiers        json.RawMessage `json:"other_identifiers,omitempty"`
	RelatedBills            json.RawMessage `json:"related_bills,omitempty"`
	Versions                json.RawMessage `json:"versions,omitempty"`
	Documents               json.RawMessage `json:"documents,omitempty"`
	Sources                 json.RawMessage `json:"sources,omitempty"`
	Votes                   []VoteEvent     `json:"votes"`
}

type BillsPage struct {
	Results    []Bill     `json:"results"`
	Pagination Pagination `json:"pagination"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads the timestamp shapes the API emits. Timestamps without a
// zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("openstates: unparseable time %q", s)
}
