package bills

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
	"github.com/EmpoweredVote/EV-Civics/internal/openstates"
	"github.com/EmpoweredVote/EV-Civics/internal/votes"
)

// ErrOrdering means the bills endpoint returned a record updated later than
// the one before it, so the cutoff scan cannot be trusted.
var ErrOrdering = eris.New("bills: results not sorted by updated_at descending")

// DefaultCutoff bounds the first sync of a jurisdiction.
var DefaultCutoff = time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)

// DefaultPerPage is the page size the bills endpoint is asked for.
const DefaultPerPage = 20

// Source is the part of the Open States client a sync reads.
type Source interface {
	Jurisdiction(ctx context.Context, id string) (*openstates.Jurisdiction, error)
	Bills(ctx context.Context, jurisdiction string, page, perPage int) (*openstates.BillsPage, error)
}

// SyncStore is Store plus jurisdiction bookkeeping.
type SyncStore interface {
	Store
	Jurisdiction(ctx context.Context, id string) (*essentials.Jurisdiction, error)
	UpsertJurisdiction(ctx context.Context, j *essentials.Jurisdiction) error
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// SyncResult reports one jurisdiction sync.
type SyncResult struct {
	Stats
	// Skipped is set when no scrape finished since the last sync.
	Skipped bool
	Pages   int
	Cutoff  time.Time
}

// Syncer pulls recently updated bills for a jurisdiction from the API.
type Syncer struct {
	Source Source
	Store  SyncStore
	Voters *votes.Resolver
	// Cutoff is used when the jurisdiction has never been processed.
	Cutoff  time.Time
	PerPage int
	Now     func() time.Time
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Syncer) perPage() int {
	if s.PerPage > 0 {
		return s.PerPage
	}
	return DefaultPerPage
}

// SyncJurisdiction processes a jurisdiction's bills updated since its last
// sync, provided a scrape has finished since then, and stamps it processed.
func (s *Syncer) SyncJurisdiction(ctx context.Context, id string) (SyncResult, error) {
	log := zap.L().With(zap.String("component", "bills"), zap.String("jurisdiction", id))
	var res SyncResult

	upstream, err := s.Source.Jurisdiction(ctx, id)
	if err != nil {
		return res, eris.Wrapf(err, "bills: fetch jurisdiction %s", id)
	}
	local, err := s.Store.Jurisdiction(ctx, id)
	switch {
	case errors.Is(err, essentials.ErrNotFound):
		log.Info("adding jurisdiction")
	case err != nil:
		return res, err
	}

	row, err := jurisdictionRow(upstream)
	if err != nil {
		return res, err
	}
	if local != nil {
		row.LastProcessed = local.LastProcessed
	}
	if err := s.Store.UpsertJurisdiction(ctx, row); err != nil {
		return res, err
	}

	runEnd, hasRun, err := upstream.LatestRunEnd()
	if err != nil {
		return res, eris.Wrapf(err, "bills: latest run of %s", id)
	}
	last := row.LastProcessed
	if last != nil && hasRun && !runEnd.After(*last) {
		res.Skipped = true
		log.Info("no new scrape since last sync", zap.Time("last_processed", *last))
	} else {
		res.Cutoff = s.Cutoff
		if res.Cutoff.IsZero() {
			res.Cutoff = DefaultCutoff
		}
		if last != nil {
			res.Cutoff = *last
		}
		if err := s.pull(ctx, upstream.ID, &res); err != nil {
			return res, err
		}
	}

	if err := s.Store.MarkProcessed(ctx, id, s.now()); err != nil {
		return res, err
	}
	log.Info("jurisdiction synced",
		zap.Bool("skipped", res.Skipped),
		zap.Int("pages", res.Pages),
		zap.Int("bills", res.Bills),
		zap.Int("vote_events", res.VoteEvents),
		zap.Int("failed", res.Failed),
		zap.Int("voters_unmatched", res.VotersUnmatched))
	return res, nil
}

// pull walks bill pages newest first until it passes the cutoff.
func (s *Syncer) pull(ctx context.Context, jurisdiction string, res *SyncResult) error {
	jurisdictionAreaID := ocd.ConvertJurisdictionID(jurisdiction)
	pool, err := candidatePool(ctx, s.Store, jurisdictionAreaID)
	if err != nil {
		return err
	}

	var prev *time.Time
	for page := 1; ; page++ {
		bp, err := s.Source.Bills(ctx, jurisdiction, page, s.perPage())
		if err != nil {
			return eris.Wrapf(err, "bills: page %d of %s", page, jurisdiction)
		}
		res.Pages++
		for i := range bp.Results {
			b := &bp.Results[i]
			updated, err := openstates.ParseTime(b.UpdatedAt)
			if err != nil {
				return eris.Wrapf(ErrBadDate, "bills: %s updated_at %q", b.ID, b.UpdatedAt)
			}
			if prev != nil && updated.After(*prev) {
				return eris.Wrapf(ErrOrdering, "bills: %s updated %s after %s", b.ID, updated, *prev)
			}
			prev = &updated
			if updated.Before(res.Cutoff) {
				return nil
			}
			if err := s.storeBill(ctx, b, updated, pool, &res.Stats); err != nil {
				return err
			}
		}
		if len(bp.Results) == 0 || page >= bp.Pagination.MaxPage {
			return nil
		}
	}
}

// storeBill writes one bill and its vote events. A bill or vote event that
// cannot be built is logged, counted and skipped.
func (s *Syncer) storeBill(ctx context.Context, b *openstates.Bill, updated time.Time, pool []votes.PersonStub, stats *Stats) error {
	log := zap.L().With(zap.String("component", "bills"), zap.String("bill", b.ID))
	row, err := billRow(b, updated)
	if err != nil {
		if !recordOnly(err) {
			return err
		}
		stats.Failed++
		log.Warn("skipping bill", zap.Error(err))
		return nil
	}
	if err := s.Store.UpsertBill(ctx, row); err != nil {
		return err
	}
	stats.Bills++

	for i := range b.Votes {
		ve, counts, err := s.voteEventRow(&b.Votes[i], row, pool)
		if err != nil {
			if !recordOnly(err) {
				return err
			}
			stats.Failed++
			log.Warn("skipping vote event", zap.String("vote", b.Votes[i].ID), zap.Error(err))
			continue
		}
		if err := s.Store.UpsertVoteEvent(ctx, ve); err != nil {
			return err
		}
		stats.VoteEvents++
		stats.addVoters(counts)
	}
	return nil
}

func jurisdictionRow(j *openstates.Jurisdiction) (*essentials.Jurisdiction, error) {
	runs, err := essentials.MarshalJSONB(j.LatestRuns)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: runs of %s", j.ID)
	}
	return &essentials.Jurisdiction{
		ID:                 j.ID,
		Name:               j.Name,
		Classification:     j.Classification,
		DivisionID:         j.DivisionID,
		URL:                j.URL,
		LatestBillUpdate:   optionalTime(j.LatestBillUpdate),
		LatestPeopleUpdate: optionalTime(j.LatestPeopleUpdate),
		LatestRuns:         runs,
	}, nil
}

// optionalTime keeps informational timestamps that parse and drops the rest.
func optionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := openstates.ParseTime(s)
	if err != nil {
		return nil
	}
	return &t
}

func billRow(b *openstates.Bill, updated time.Time) (*essentials.Bill, error) {
	jurisdictionAreaID := ocd.ConvertJurisdictionID(b.Jurisdiction.ID)
	id, err := ocd.MakeBillID(b.Identifier, b.Session, jurisdictionAreaID)
	if err != nil {
		return nil, err
	}
	actions := make([]datedAction, 0, len(b.Actions))
	for _, a := range b.Actions {
		actions = append(actions, datedAction{Date: a.Date, Description: a.Description})
	}
	span, err := summarizeActions(actions)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: %s action date", b.ID)
	}

	from, err := essentials.MarshalJSONB(b.FromOrganization)
	if err != nil {
		return nil, eris.Wrapf(err, "bills: %s organization", b.ID)
	}
	var acts essentials.JSONB
	if len(b.Actions) > 0 {
		if acts, err = essentials.MarshalJSONB(b.Actions); err != nil {
			return nil, eris.Wrapf(err, "bills: %s actions", b.ID)
		}
	}
	return &essentials.Bill{
		ID:                      id,
		Identifier:              b.Identifier,
		Title:                   b.Title,
		LegislativeSession:      b.Session,
		JurisdictionAreaID:      jurisdictionAreaID,
		JurisdictionLevel:       jurisdictionLevel(jurisdictionAreaID),
		FromOrganization:        from,
		Classification:          pq.StringArray(b.Classification),
		Subject:                 pq.StringArray(b.Subject),
		Abstracts:               jsonb(b.Abstracts),
		OtherTitles:             jsonb(b.OtherTitles),
		OtherIdentifiers:        jsonb(b.OtherIdentifiers),
		Actions:                 acts,
		Sponsorships:            jsonb(b.Sponsorships),
		RelatedBills:            jsonb(b.RelatedBills),
		Versions:                jsonb(b.Versions),
		Documents:               jsonb(b.Documents),
		Sources:                 jsonb(b.Sources),
		FirstActionDate:         span.First,
		LatestActionDate:        span.Latest,
		LatestActionDescription: span.LatestDescription,
		OpenStatesURL:           b.OpenstatesURL,
		UpdatedAt:               updated,
	}, nil
}

func (s *Syncer) voteEventRow(v *openstates.VoteEvent, bill *essentials.Bill, pool []votes.PersonStub) (*essentials.VoteEvent, voterCounts, error) {
	identifier := v.Identifier
	if identifier == "" {
		identifier = v.ID
	}
	id, err := ocd.MakeVoteEventID(identifier)
	if err != nil {
		return nil, voterCounts{}, eris.Wrapf(err, "bills: vote on %s", bill.Identifier)
	}
	start, err := parseDate(v.StartDate)
	if err != nil {
		return nil, voterCounts{}, eris.Wrapf(err, "bills: vote %s start date", identifier)
	}

	vs := make([]votes.Vote, 0, len(v.Votes))
	for _, pv := range v.Votes {
		vote := votes.Vote{Option: pv.Option, VoterName: pv.VoterName}
		if pv.Voter != nil {
			vote.VoterID = pv.Voter.ID
		}
		vs = append(vs, vote)
	}
	chamber := v.Organization.Classification
	counts := resolveVoters(s.Voters, id, chamber, vs, pool)

	stored, err := essentials.MarshalJSONB(vs)
	if err != nil {
		return nil, counts, eris.Wrapf(err, "bills: vote %s votes", identifier)
	}
	tally, err := essentials.MarshalJSONB(v.Counts)
	if err != nil {
		return nil, counts, eris.Wrapf(err, "bills: vote %s counts", identifier)
	}
	return &essentials.VoteEvent{
		ID:                   id,
		BillID:               bill.ID,
		Identifier:           identifier,
		MotionText:           v.MotionText,
		MotionClassification: pq.StringArray(v.MotionClassification),
		StartDate:            start,
		Result:               v.Result,
		Chamber:              chamber,
		LegislativeSession:   bill.LegislativeSession,
		Votes:                stored,
		Counts:               tally,
		Sources:              jsonb(v.Sources),
	}, counts, nil
}
