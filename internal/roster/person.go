package roster

import (
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
)

// DateLayout is the roster's date format.
const DateLayout = "2006-01-02"

// ErrBadDate means a roster date could not be parsed. It aborts the run: the
// role heuristics depend on every date being read correctly.
var ErrBadDate = eris.New("roster: unparseable date")

// PersonFile is one legislator file from the roster repository.
type PersonFile struct {
	ID         string       `yaml:"id"`
	Name       string       `yaml:"name"`
	GivenName  string       `yaml:"given_name"`
	FamilyName string       `yaml:"family_name"`
	Email      string       `yaml:"email"`
	Image      string       `yaml:"image"`
	Party      []PartyEntry `yaml:"party"`
	Roles      []RoleEntry  `yaml:"roles"`
	OtherNames []struct {
		Name string `yaml:"name" json:"name"`
	} `yaml:"other_names"`
	Offices []Office          `yaml:"offices"`
	Links   []Link            `yaml:"links"`
	IDs     map[string]string `yaml:"ids"`
	Sources []Link            `yaml:"sources"`
}

type PartyEntry struct {
	Name      string `yaml:"name"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// RoleEntry is a role as written in the file; Role is its parsed form.
type RoleEntry struct {
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`
	Type         string `yaml:"type"`
	Jurisdiction string `yaml:"jurisdiction"`
	District     string `yaml:"district"`
}

type Office struct {
	Classification string `yaml:"classification" json:"classification"`
	Address        string `yaml:"address" json:"address,omitempty"`
	Voice          string `yaml:"voice" json:"voice,omitempty"`
	Fax            string `yaml:"fax" json:"fax,omitempty"`
}

type Link struct {
	URL  string `yaml:"url" json:"url"`
	Note string `yaml:"note" json:"note,omitempty"`
}

// ReadPersonFile parses one roster YAML file.
func ReadPersonFile(path string) (*PersonFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	var pf PersonFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, eris.Wrapf(err, "roster: parse %s", path)
	}
	return &pf, nil
}

// ParsedRoles converts the file's roles, failing on any unparseable date.
func (pf *PersonFile) ParsedRoles() ([]Role, error) {
	roles := make([]Role, 0, len(pf.Roles))
	for _, e := range pf.Roles {
		start, err := parseDate(e.StartDate)
		if err != nil {
			return nil, eris.Wrapf(err, "roster: %s start_date", pf.ID)
		}
		end, err := parseDate(e.EndDate)
		if err != nil {
			return nil, eris.Wrapf(err, "roster: %s end_date", pf.ID)
		}
		roles = append(roles, Role{
			Type:         e.Type,
			Jurisdiction: e.Jurisdiction,
			District:     e.District,
			Start:        start,
			End:          end,
		})
	}
	return roles, nil
}

// CurrentParty is the last party entry without an end date.
func (pf *PersonFile) CurrentParty() string {
	party := ""
	for _, p := range pf.Party {
		if p.EndDate == "" {
			party = p.Name
		}
	}
	return party
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(ErrBadDate, "roster: %q", s)
	}
	return t, nil
}

// BuildPerson selects the current role, resolves its constituent area and
// assembles the stored person. A Skipped assignment returns a nil person.
func BuildPerson(r *Resolver, jurisdiction string, pf *PersonFile, asOf time.Time) (*essentials.Person, Assignment, error) {
	if pf.ID == "" {
		return nil, Assignment{}, eris.Wrap(ocd.ErrMissingKey, "roster: person id")
	}
	roles, err := pf.ParsedRoles()
	if err != nil {
		return nil, Assignment{}, err
	}
	role, err := SelectCurrentRole(pf.ID, roles, asOf)
	if err != nil {
		return nil, Assignment{}, err
	}
	asg, err := r.Resolve(jurisdiction, role)
	if err != nil {
		return nil, Assignment{}, eris.Wrapf(err, "roster: person %s", pf.ID)
	}
	if asg.Outcome == Skipped {
		return nil, asg, nil
	}
	chamber, err := MapChamber(jurisdiction, role.Type)
	if err != nil {
		return nil, asg, eris.Wrapf(err, "roster: person %s", pf.ID)
	}

	p := &essentials.Person{
		ID:                 pf.ID,
		Name:               pf.Name,
		FirstName:          pf.GivenName,
		LastName:           pf.FamilyName,
		Party:              pf.CurrentParty(),
		JurisdictionAreaID: jurisdictionAreaID(jurisdiction, role),
		ConstituentAreaID:  asg.AreaID,
		Chamber:            chamber,
		Image:              pf.Image,
		Email:              pf.Email,
		UpdatedAt:          time.Now().UTC(),
	}
	for _, o := range pf.OtherNames {
		p.OtherNames = append(p.OtherNames, o.Name)
	}
	if p.Offices, err = essentials.MarshalJSONB(pf.Offices); err != nil {
		return nil, asg, eris.Wrapf(err, "roster: %s offices", pf.ID)
	}
	if p.Links, err = essentials.MarshalJSONB(pf.Links); err != nil {
		return nil, asg, eris.Wrapf(err, "roster: %s links", pf.ID)
	}
	if p.IDs, err = essentials.MarshalJSONB(pf.IDs); err != nil {
		return nil, asg, eris.Wrapf(err, "roster: %s ids", pf.ID)
	}
	if p.Sources, err = essentials.MarshalJSONB(pf.Sources); err != nil {
		return nil, asg, eris.Wrapf(err, "roster: %s sources", pf.ID)
	}
	return p, asg, nil
}

func jurisdictionAreaID(jurisdiction string, role Role) string {
	if strings.EqualFold(jurisdiction, FederalJurisdiction) {
		return ocd.DivisionPrefix
	}
	if role.Jurisdiction != "" {
		return ocd.ConvertJurisdictionID(role.Jurisdiction)
	}
	return ocd.StatePath(jurisdiction)
}
