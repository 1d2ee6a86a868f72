package bills

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
	"github.com/EmpoweredVote/EV-Civics/internal/votes"
)

// ErrJurisdictionFile means a scrape directory does not hold exactly one
// jurisdiction file.
var ErrJurisdictionFile = eris.New("bills: expected exactly one jurisdiction file")

// Store persists bills and vote events.
type Store interface {
	PeopleSource
	UpsertBill(ctx context.Context, b *essentials.Bill) error
	UpsertVoteEvent(ctx context.Context, v *essentials.VoteEvent) error
}

// Stats counts what an ingest or sync wrote.
type Stats struct {
	Bills      int
	VoteEvents int
	// Orphans are vote events whose bill was not part of the ingest.
	Orphans         int
	VotersResolved  int
	VotersUnmatched int
	// Failed are bills and vote events skipped because they could not be
	// built, such as a bill without an identifier.
	Failed int
}

func (s *Stats) addVoters(c voterCounts) {
	s.VotersResolved += c.Resolved
	s.VotersUnmatched += c.Unresolved
}

type jurisdictionFile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	Classification string `json:"classification"`
	DivisionID     string `json:"division_id"`
}

type billFile struct {
	Identifier         string          `json:"identifier"`
	Title              string          `json:"title"`
	LegislativeSession string          `json:"legislative_session"`
	FromOrganization   string          `json:"from_organization"`
	Classification     []string        `json:"classification"`
	Subject            []string        `json:"subject"`
	Abstracts          json.RawMessage `json:"abstracts"`
	OtherTitles        json.RawMessage `json:"other_titles"`
	OtherIdentifiers   json.RawMessage `json:"other_identifiers"`
	Actions            json.RawMessage `json:"actions"`
	Sponsorships       json.RawMessage `json:"sponsorships"`
	RelatedBills       json.RawMessage `json:"related_bills"`
	Versions           json.RawMessage `json:"versions"`
	Documents          json.RawMessage `json:"documents"`
	Citations          json.RawMessage `json:"citations"`
	Sources            json.RawMessage `json:"sources"`
	Extras             json.RawMessage `json:"extras"`
}

type voteEventFile struct {
	ScrapeID             string          `json:"_id"`
	Identifier           string          `json:"identifier"`
	MotionText           string          `json:"motion_text"`
	MotionClassification []string        `json:"motion_classification"`
	StartDate            string          `json:"start_date"`
	Result               string          `json:"result"`
	Organization         string          `json:"organization"`
	LegislativeSession   string          `json:"legislative_session"`
	Bill                 string          `json:"bill"`
	BillIdentifier       string          `json:"bill_identifier"`
	Votes                []votes.Vote    `json:"votes"`
	Counts               json.RawMessage `json:"counts"`
	Sources              json.RawMessage `json:"sources"`
	Extras               json.RawMessage `json:"extras"`
}

// Ingester loads scraper output directories.
type Ingester struct {
	Store  Store
	Voters *votes.Resolver
	Now    func() time.Time
}

func (in *Ingester) now() time.Time {
	if in.Now != nil {
		return in.Now().UTC()
	}
	return time.Now().UTC()
}

// IngestDirectory loads one scrape directory: a single jurisdiction*.json,
// any number of bill*.json, and vote_event*.json files whose bills were
// among those loaded.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string) (Stats, error) {
	log := zap.L().With(zap.String("component", "bills"), zap.String("dir", dir))
	var stats Stats

	jfiles, err := filesWithPrefix(dir, "jurisdiction")
	if err != nil {
		return stats, err
	}
	if len(jfiles) != 1 {
		return stats, eris.Wrapf(ErrJurisdictionFile, "bills: found %d in %s", len(jfiles), dir)
	}
	var jf jurisdictionFile
	if err := readJSON(jfiles[0], &jf); err != nil {
		return stats, err
	}
	jurisdictionAreaID := ocd.ConvertJurisdictionID(jf.ID)
	log.Info("ingesting scrape", zap.String("jurisdiction", jurisdictionAreaID))

	bfiles, err := filesWithPrefix(dir, "bill")
	if err != nil {
		return stats, err
	}
	loaded := make(map[string]bool, len(bfiles))
	for _, path := range bfiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		b, err := in.readBill(path, jurisdictionAreaID)
		if err != nil {
			if !recordOnly(err) {
				return stats, eris.Wrapf(err, "bills: %s", path)
			}
			stats.Failed++
			log.Warn("skipping bill", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := in.Store.UpsertBill(ctx, b); err != nil {
			return stats, err
		}
		loaded[b.ID] = true
		stats.Bills++
	}

	vfiles, err := filesWithPrefix(dir, "vote_event")
	if err != nil {
		return stats, err
	}
	if len(vfiles) == 0 {
		return stats, nil
	}
	pool, err := candidatePool(ctx, in.Store, jurisdictionAreaID)
	if err != nil {
		return stats, err
	}
	for _, path := range vfiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ve, counts, err := in.readVoteEvent(path, jurisdictionAreaID, loaded, pool)
		if errors.Is(err, errOrphan) {
			stats.Orphans++
			log.Warn("no bill found for vote event", zap.String("file", path), zap.Error(err))
			continue
		}
		if err != nil {
			if !recordOnly(err) {
				return stats, eris.Wrapf(err, "bills: %s", path)
			}
			stats.Failed++
			log.Warn("skipping vote event", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := in.Store.UpsertVoteEvent(ctx, ve); err != nil {
			return stats, err
		}
		stats.VoteEvents++
		stats.addVoters(counts)
	}
	log.Info("scrape ingested",
		zap.Int("bills", stats.Bills),
		zap.Int("vote_events", stats.VoteEvents),
		zap.Int("orphans", stats.Orphans),
		zap.Int("failed", stats.Failed),
		zap.Int("voters_unmatched", stats.VotersUnmatched))
	return stats, nil
}

// errOrphan marks a vote event whose bill was not part of the ingest.
var errOrphan = eris.New("bills: vote event bill not ingested")

func (in *Ingester) readBill(path, jurisdictionAreaID string) (*essentials.Bill, error) {
	var bf billFile
	if err := readJSON(path, &bf); err != nil {
		return nil, err
	}
	return in.billFromFile(bf, jurisdictionAreaID)
}

func (in *Ingester) readVoteEvent(path, jurisdictionAreaID string, loaded map[string]bool, pool []votes.PersonStub) (*essentials.VoteEvent, voterCounts, error) {
	var vf voteEventFile
	if err := readJSON(path, &vf); err != nil {
		return nil, voterCounts{}, err
	}
	billID, err := voteBillID(vf, jurisdictionAreaID)
	if err != nil {
		return nil, voterCounts{}, err
	}
	if !loaded[billID] {
		return nil, voterCounts{}, eris.Wrapf(errOrphan, "bills: bill %s", billID)
	}
	return in.voteEventFromFile(vf, billID, pool)
}

func (in *Ingester) billFromFile(bf billFile, jurisdictionAreaID string) (*essentials.Bill, error) {
	id, err := ocd.MakeBillID(bf.Identifier, bf.LegislativeSession, jurisdictionAreaID)
	if err != nil {
		return nil, err
	}
	var actions []datedAction
	if len(jsonb(bf.Actions)) > 0 {
		if err := json.Unmarshal(bf.Actions, &actions); err != nil {
			return nil, eris.Wrapf(err, "bills: %s actions", bf.Identifier)
		}
	}
	span, err := summarizeActions(actions)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: %s action date", bf.Identifier)
	}

	var from essentials.JSONB
	if bf.FromOrganization != "" {
		ref, err := parseReference(bf.FromOrganization)
		if err != nil {
			return nil, err
		}
		if from, err = essentials.MarshalJSONB(ref); err != nil {
			return nil, eris.Wrapf(err, "bills: %s organization", bf.Identifier)
		}
	}

	return &essentials.Bill{
		ID:                      id,
		Identifier:              bf.Identifier,
		Title:                   bf.Title,
		LegislativeSession:      bf.LegislativeSession,
		JurisdictionAreaID:      jurisdictionAreaID,
		JurisdictionLevel:       jurisdictionLevel(jurisdictionAreaID),
		FromOrganization:        from,
		Classification:          pq.StringArray(bf.Classification),
		Subject:                 pq.StringArray(bf.Subject),
		Abstracts:               jsonb(bf.Abstracts),
		OtherTitles:             jsonb(bf.OtherTitles),
		OtherIdentifiers:        jsonb(bf.OtherIdentifiers),
		Actions:                 jsonb(bf.Actions),
		Sponsorships:            jsonb(bf.Sponsorships),
		RelatedBills:            jsonb(bf.RelatedBills),
		Versions:                jsonb(bf.Versions),
		Documents:               jsonb(bf.Documents),
		Citations:               jsonb(bf.Citations),
		Sources:                 jsonb(bf.Sources),
		Extras:                  jsonb(bf.Extras),
		FirstActionDate:         span.First,
		LatestActionDate:        span.Latest,
		LatestActionDescription: span.LatestDescription,
		UpdatedAt:               in.now(),
	}, nil
}

// voteBillID identifies the bill a vote event belongs to. Congress scrapes
// carry a "~{json}" bill reference; state scrapes name the bill directly.
func voteBillID(vf voteEventFile, jurisdictionAreaID string) (string, error) {
	identifier, session := vf.BillIdentifier, vf.LegislativeSession
	if identifier == "" && vf.Bill != "" {
		ref, err := parseReference(vf.Bill)
		if err != nil {
			return "", err
		}
		identifier = ref.Identifier
		if ref.LegislativeSession != "" {
			session = ref.LegislativeSession
		}
	}
	return ocd.MakeBillID(identifier, session, jurisdictionAreaID)
}

func (in *Ingester) voteEventFromFile(vf voteEventFile, billID string, pool []votes.PersonStub) (*essentials.VoteEvent, voterCounts, error) {
	identifier := vf.Identifier
	if identifier == "" {
		identifier = vf.ScrapeID
	}
	id, err := ocd.MakeVoteEventID(identifier)
	if err != nil {
		return nil, voterCounts{}, err
	}
	start, err := parseDate(vf.StartDate)
	if err != nil {
		return nil, voterCounts{}, eris.Wrapf(err, "bills: vote %s start date", identifier)
	}
	org, err := parseReference(vf.Organization)
	if err != nil {
		return nil, voterCounts{}, err
	}

	counts := resolveVoters(in.Voters, id, org.Classification, vf.Votes, pool)
	vs, err := essentials.MarshalJSONB(vf.Votes)
	if err != nil {
		return nil, counts, eris.Wrapf(err, "bills: vote %s votes", identifier)
	}
	return &essentials.VoteEvent{
		ID:                   id,
		BillID:               billID,
		Identifier:           identifier,
		MotionText:           vf.MotionText,
		MotionClassification: pq.StringArray(vf.MotionClassification),
		StartDate:            start,
		Result:               vf.Result,
		Chamber:              org.Classification,
		LegislativeSession:   vf.LegislativeSession,
		Votes:                vs,
		Counts:               jsonb(vf.Counts),
		Sources:              jsonb(vf.Sources),
		Extras:               jsonb(vf.Extras),
	}, counts, nil
}

// filesWithPrefix lists dir's .json files starting with prefix, sorted.
// "bill" would also match "bill_version" exports, which scrapes never write.
func filesWithPrefix(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: list %s", dir)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".json" {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "bills: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "bills: parse %s", path)
	}
	return nil
}
