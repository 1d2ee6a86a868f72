package essentials

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// ErrNotFound is returned when a keyed lookup has no row.
var ErrNotFound = eris.New("essentials: not found")

const upsertBatchSize = 200

// Store is the persistence coordinator. Every write is an atomic
// insert-or-overwrite keyed by the primary identifier, so re-ingesting a
// record replaces all of its non-key columns and concurrent writers of the
// same id never lose updates.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

func (s *Store) upsert(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(value).Error
}

func (s *Store) UpsertArea(ctx context.Context, a *area.Area) error {
	row, err := AreaRow(a)
	if err != nil {
		return err
	}
	if err := s.upsert(ctx, &row); err != nil {
		return eris.Wrapf(err, "essentials: upsert area %s", a.ID)
	}
	return nil
}

// UpsertAreas writes a batch of areas in one statement per chunk.
func (s *Store) UpsertAreas(ctx context.Context, areas []*area.Area) error {
	if len(areas) == 0 {
		return nil
	}
	rows := make([]Area, 0, len(areas))
	for _, a := range areas {
		row, err := AreaRow(a)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&rows, upsertBatchSize).Error
	if err != nil {
		return eris.Wrapf(err, "essentials: upsert %d areas", len(rows))
	}
	return nil
}

func (s *Store) UpsertPerson(ctx context.Context, p *Person) error {
	if err := s.upsert(ctx, p); err != nil {
		return eris.Wrapf(err, "essentials: upsert person %s", p.ID)
	}
	return nil
}

func (s *Store) UpsertJurisdiction(ctx context.Context, j *Jurisdiction) error {
	if err := s.upsert(ctx, j); err != nil {
		return eris.Wrapf(err, "essentials: upsert jurisdiction %s", j.ID)
	}
	return nil
}

func (s *Store) UpsertBill(ctx context.Context, b *Bill) error {
	if err := s.upsert(ctx, b); err != nil {
		return eris.Wrapf(err, "essentials: upsert bill %s (%s)", b.ID, b.Identifier)
	}
	return nil
}

func (s *Store) UpsertVoteEvent(ctx context.Context, v *VoteEvent) error {
	if err := s.upsert(ctx, v); err != nil {
		return eris.Wrapf(err, "essentials: upsert vote event %s", v.ID)
	}
	return nil
}

func (s *Store) UpsertPrecinct(ctx context.Context, p *PrecinctResult) error {
	if err := s.upsert(ctx, p); err != nil {
		return eris.Wrapf(err, "essentials: upsert precinct %s", p.GeoID)
	}
	return nil
}

// AddPersonAreas writes association rows, refreshing computed_at on rows
// that already exist.
func (s *Store) AddPersonAreas(ctx context.Context, rows []PersonArea) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.upsert(ctx, &rows); err != nil {
		return eris.Wrapf(err, "essentials: add %d person areas", len(rows))
	}
	return nil
}

// DeletePersonAreas removes every association of one relationship type.
func (s *Store) DeletePersonAreas(ctx context.Context, relationship string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("relationship = ?", relationship).
		Delete(&PersonArea{})
	if res.Error != nil {
		return 0, eris.Wrapf(res.Error, "essentials: delete %s person areas", relationship)
	}
	return res.RowsAffected, nil
}

// FlushCoverage writes a batch of associations and the checkpoint that
// covers them in one transaction, so a resumed run never skips a zip whose
// rows were not written.
func (s *Store) FlushCoverage(ctx context.Context, rows []PersonArea, cp *CoverageCheckpoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
				return eris.Wrapf(err, "essentials: flush %d person areas", len(rows))
			}
		}
		cp.UpdatedAt = time.Now().UTC()
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(cp).Error; err != nil {
			return eris.Wrapf(err, "essentials: save checkpoint %s", cp.RunID)
		}
		return nil
	})
}

// Checkpoint loads a run's checkpoint, or nil when the run is new.
func (s *Store) Checkpoint(ctx context.Context, runID string) (*CoverageCheckpoint, error) {
	var cp CoverageCheckpoint
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: load checkpoint %s", runID)
	}
	return &cp, nil
}

// ZipAreasAfter pages through zip code areas in id order, starting after
// afterID ("" for the first page).
func (s *Store) ZipAreasAfter(ctx context.Context, afterID string, limit int) ([]*area.Area, error) {
	var rows []Area
	err := s.db.WithContext(ctx).
		Where("classification = ? AND id > ?", string(area.Zipcode), afterID).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: zip areas after %q", afterID)
	}
	return domainAreas(rows)
}

// AreaByID loads one area with its geometry.
func (s *Store) AreaByID(ctx context.Context, id string) (*area.Area, error) {
	var row Area
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "essentials: area %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: area %s", id)
	}
	return row.Domain()
}

// AreasByState lists a state's areas of the given classifications.
func (s *Store) AreasByState(ctx context.Context, fips string, classes ...area.Classification) ([]area.Area, error) {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, string(c))
	}
	var rows []Area
	err := s.db.WithContext(ctx).
		Select("id", "classification", "name", "fips_code", "district_number").
		Where("fips_code = ? AND classification IN ?", fips, names).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: areas for state %s", fips)
	}
	out := make([]area.Area, 0, len(rows))
	for _, r := range rows {
		out = append(out, area.Area{
			ID:             r.ID,
			Classification: area.Classification(r.Classification),
			Name:           r.Name,
			FIPSCode:       r.FIPSCode,
			DistrictNumber: r.DistrictNumber,
		})
	}
	return out, nil
}

// ZipIDsIntersecting lists zip code areas whose geometry intersects the
// given area's geometry.
func (s *Store) ZipIDsIntersecting(ctx context.Context, areaID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT z.id
		FROM civics.areas z
		JOIN civics.areas a ON ST_Intersects(z.geometry, a.geometry)
		WHERE a.id = ? AND z.classification = ?
		ORDER BY z.id`, areaID, string(area.Zipcode)).
		Scan(&ids).Error
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: zips intersecting %s", areaID)
	}
	return ids, nil
}

// AreaExists reports whether an area row exists.
func (s *Store) AreaExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Area{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, eris.Wrapf(err, "essentials: area exists %s", id)
	}
	return n > 0, nil
}

// PeopleAfter pages through people in id order, optionally restricted to one
// jurisdiction.
func (s *Store) PeopleAfter(ctx context.Context, jurisdictionAreaID, afterID string, limit int) ([]Person, error) {
	q := s.db.WithContext(ctx).Where("id > ?", afterID)
	if jurisdictionAreaID != "" {
		q = q.Where("jurisdiction_area_id = ?", jurisdictionAreaID)
	}
	var people []Person
	if err := q.Order("id").Limit(limit).Find(&people).Error; err != nil {
		return nil, eris.Wrap(err, "essentials: page people")
	}
	return people, nil
}

// PeopleByJurisdiction loads the name fields of everyone elected within a
// jurisdiction, the candidate pool for vote matching.
func (s *Store) PeopleByJurisdiction(ctx context.Context, jurisdictionAreaID string) ([]Person, error) {
	var people []Person
	err := s.db.WithContext(ctx).
		Select("id", "name", "first_name", "last_name", "constituent_area_id", "chamber").
		Where("jurisdiction_area_id = ?", jurisdictionAreaID).
		Find(&people).Error
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: people in %s", jurisdictionAreaID)
	}
	return people, nil
}

func (s *Store) PersonByID(ctx context.Context, id string) (*Person, error) {
	var p Person
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "essentials: person %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: person %s", id)
	}
	return &p, nil
}

// PeopleByZip lists the representatives linked to a zip code.
func (s *Store) PeopleByZip(ctx context.Context, zip string) ([]Person, error) {
	var people []Person
	err := s.db.WithContext(ctx).
		Joins("JOIN civics.person_areas pa ON pa.person_id = people.id").
		Where("pa.area_id = ? AND pa.relationship = ?", "ocd-division/country:us/zipcode:"+zip, RelationshipZipCoverage).
		Order("people.id").
		Find(&people).Error
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: people for zip %s", zip)
	}
	return people, nil
}

func (s *Store) Jurisdiction(ctx context.Context, id string) (*Jurisdiction, error) {
	var j Jurisdiction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "essentials: jurisdiction %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "essentials: jurisdiction %s", id)
	}
	return &j, nil
}

// MarkProcessed stamps a jurisdiction's last successful bill sync.
func (s *Store) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&Jurisdiction{}).
		Where("id = ?", id).
		Update("last_processed", at).Error
	if err != nil {
		return eris.Wrapf(err, "essentials: mark %s processed", id)
	}
	return nil
}

func domainAreas(rows []Area) ([]*area.Area, error) {
	out := make([]*area.Area, 0, len(rows))
	for _, r := range rows {
		a, err := r.Domain()
		if err != nil {
			return nil, eris.Wrapf(err, "essentials: area %s", r.ID)
		}
		out = append(out, a)
	}
	return out, nil
}
