package essentials

import (
	"context"

	"github.com/rotisserie/eris"
)

// AreaMatch is a point-in-polygon hit.
type AreaMatch struct {
	ID             string `json:"id"`
	Classification string `json:"classification"`
	Name           string `json:"name"`
}

// AreasContaining performs a PostGIS point-in-polygon query to find every
// area whose boundary contains the coordinate.
func (s *Store) AreasContaining(ctx context.Context, lat, lng float64) ([]AreaMatch, error) {
	query := `
		SELECT id, classification, COALESCE(name, '') AS name
		FROM civics.areas
		WHERE ST_Contains(
			geometry,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)
		)
		ORDER BY id
	`

	rows, err := s.db.WithContext(ctx).Raw(query, lng, lat).Rows()
	if err != nil {
		return nil, eris.Wrap(err, "essentials: area lookup query failed")
	}
	defer rows.Close()

	var matches []AreaMatch
	for rows.Next() {
		var m AreaMatch
		if err := rows.Scan(&m.ID, &m.Classification, &m.Name); err != nil {
			return nil, eris.Wrap(err, "essentials: scan area match")
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}
