package coverage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// Querier is satisfied by *pgxpool.Pool and by pgxmock pools.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func init() {
	Register(BackendPostGIS, func(cfg Config) (Lookup, error) {
		if cfg.Pool == nil {
			return nil, eris.Wrap(ErrBackendConfig, "coverage: postgis backend needs a pool")
		}
		return NewPostGISLookup(cfg.Pool), nil
	})
}

// PostGISLookup answers point queries from the stored constituent areas,
// with no external quota.
type PostGISLookup struct {
	pool Querier
}

func NewPostGISLookup(pool Querier) *PostGISLookup {
	return &PostGISLookup{pool: pool}
}

func (l *PostGISLookup) Name() string { return string(BackendPostGIS) }

const representativesAtPointSQL = `
	SELECT p.id
	FROM civics.people p
	JOIN civics.areas a ON a.id = p.constituent_area_id
	WHERE ST_Contains(a.geometry, ST_SetSRID(ST_MakePoint($1, $2), 4326))
	ORDER BY p.id`

func (l *PostGISLookup) Representatives(ctx context.Context, p area.Point) ([]string, error) {
	rows, err := l.pool.Query(ctx, representativesAtPointSQL, p.Lon, p.Lat)
	if err != nil {
		return nil, eris.Wrapf(err, "coverage: representatives at (%f, %f)", p.Lat, p.Lon)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, eris.Wrapf(err, "coverage: scan representatives at (%f, %f)", p.Lat, p.Lon)
	}
	return ids, nil
}
