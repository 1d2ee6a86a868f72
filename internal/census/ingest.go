package census

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
)

const defaultBatchSize = 100

// AreaStore persists converted areas.
type AreaStore interface {
	UpsertAreas(ctx context.Context, areas []*area.Area) error
}

// PrecinctStore persists precinct results.
type PrecinctStore interface {
	UpsertPrecinct(ctx context.Context, p *essentials.PrecinctResult) error
}

// Fetcher retrieves a boundary archive and returns its local path.
type Fetcher interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// IngestStats summarizes one product load.
type IngestStats struct {
	Files   int
	Missing int
	Records int
	Areas   int
}

// Ingester downloads a product's files and writes their areas in batches.
type Ingester struct {
	Fetcher   Fetcher
	Store     AreaStore
	States    *reference.States
	Release   Release
	DataDir   string
	BatchSize int
}

// Ingest loads every file of product p. Per-state products walk the state
// table; a code the census publishes nothing for is logged and skipped.
func (in *Ingester) Ingest(ctx context.Context, p Product) (IngestStats, error) {
	log := zap.L().With(zap.String("component", "census"), zap.String("product", p.Name))
	release := in.Release
	if release == (Release{}) {
		release = DefaultRelease
	}

	var urls []string
	if p.National {
		urls = []string{p.URLFor(release, "")}
	} else {
		for _, fips := range in.States.FIPSCodes() {
			urls = append(urls, p.URLFor(release, fips))
		}
	}

	var stats IngestStats
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		path, err := in.Fetcher.Download(ctx, url, in.DataDir)
		if errors.Is(err, ErrNotFound) {
			stats.Missing++
			log.Info("no file published", zap.String("url", url))
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Files++

		records, areas, err := in.IngestFile(ctx, path, p, ReadOptions{Release: release})
		stats.Records += records
		stats.Areas += areas
		if err != nil {
			return stats, err
		}
		log.Info("loaded boundary file", zap.String("path", path), zap.Int("areas", areas))
	}
	return stats, nil
}

// IngestFile reads one local shapefile and upserts its areas, flushing every
// BatchSize areas. It returns the records read and the areas written.
func (in *Ingester) IngestFile(ctx context.Context, path string, p Product, opts ReadOptions) (int, int, error) {
	size := in.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	batch := make([]*area.Area, 0, size)
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := in.Store.UpsertAreas(ctx, batch); err != nil {
			return eris.Wrapf(err, "census: store %s", path)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	records, err := ReadAreas(path, p, in.States, opts, func(_ int, a *area.Area) error {
		batch = append(batch, a)
		if len(batch) >= size {
			return flush()
		}
		return ctx.Err()
	})
	if err != nil {
		return records, written, err
	}
	if err := flush(); err != nil {
		return records, written, err
	}
	return records, written, nil
}

// IngestPrecincts loads a newline-delimited GeoJSON precinct file.
func IngestPrecincts(ctx context.Context, path string, store PrecinctStore) (int, error) {
	log := zap.L().With(zap.String("component", "census"), zap.String("path", path))
	stored := 0
	n, err := ReadPrecincts(path, func(p *essentials.PrecinctResult) error {
		if err := store.UpsertPrecinct(ctx, p); err != nil {
			return err
		}
		if stored++; stored%1000 == 0 {
			log.Info("precinct progress", zap.Int("precincts", stored))
		}
		return ctx.Err()
	})
	if err != nil {
		return n, err
	}
	log.Info("loaded precincts", zap.Int("precincts", n))
	return n, nil
}
