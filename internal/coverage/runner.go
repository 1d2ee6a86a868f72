package coverage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
)

// ModeSample tags checkpoints written by sampling runs.
const ModeSample = "sample"

// Store is what a coverage run reads and writes.
type Store interface {
	ZipAreasAfter(ctx context.Context, afterID string, limit int) ([]*area.Area, error)
	FlushCoverage(ctx context.Context, rows []essentials.PersonArea, cp *essentials.CoverageCheckpoint) error
	Checkpoint(ctx context.Context, runID string) (*essentials.CoverageCheckpoint, error)
	DeletePersonAreas(ctx context.Context, relationship string) (int64, error)
}

// Runner drives the sampler over every zip code area. Progress is flushed
// with a checkpoint every FlushEvery zips, so a run that stops (quota,
// crash, ctrl-c) resumes after the last flushed zip.
type Runner struct {
	Store      Store
	Sampler    *Sampler
	PageSize   int
	FlushEvery int
	Now        func() time.Time
}

type RunOptions struct {
	// RunID names the checkpoint; empty starts a fresh run with a new id.
	RunID string
	// Resume continues RunID from its checkpoint. Without it the previous
	// zip coverage rows are deleted first.
	Resume bool
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Run samples every zip after the checkpoint and returns the final
// checkpoint. A zip whose lookups fail is logged by id and counted; it is
// retried by the next fresh run.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*essentials.CoverageCheckpoint, error) {
	pageSize, flushEvery := r.PageSize, r.FlushEvery
	if pageSize <= 0 {
		pageSize = 500
	}
	if flushEvery <= 0 {
		flushEvery = 50
	}

	cp, err := r.start(ctx, opts)
	if err != nil {
		return nil, err
	}
	if cp.Completed {
		zap.L().Info("coverage run already complete", zap.String("component", "coverage"), zap.String("run", cp.RunID))
		return cp, nil
	}

	var (
		pending []essentials.PersonArea
		since   int
	)
	// Flushes outlive cancellation so a stopped run keeps its progress.
	flushCtx := context.WithoutCancel(ctx)
	flush := func() error {
		if err := r.Store.FlushCoverage(flushCtx, pending, cp); err != nil {
			return err
		}
		zap.L().Info("coverage flushed",
			zap.String("component", "coverage"),
			zap.String("run", cp.RunID),
			zap.String("last_zip", cp.LastZipID),
			zap.Int("zips_done", cp.ZipsDone),
			zap.Int("rows", len(pending)))
		pending, since = nil, 0
		return nil
	}

	for {
		zips, err := r.Store.ZipAreasAfter(ctx, cp.LastZipID, pageSize)
		if err != nil {
			return cp, err
		}
		if len(zips) == 0 {
			break
		}
		for _, zip := range zips {
			if err := ctx.Err(); err != nil {
				if ferr := flush(); ferr != nil {
					return cp, ferr
				}
				return cp, err
			}
			cov, err := r.Sampler.CoverageFor(ctx, zip)
			switch {
			case ctx.Err() != nil:
				if ferr := flush(); ferr != nil {
					return cp, ferr
				}
				return cp, ctx.Err()
			case err != nil:
				cp.Failed++
				zap.L().Warn("zip coverage failed",
					zap.String("component", "coverage"),
					zap.String("zip", zip.ID),
					zap.Error(err))
			default:
				pending = append(pending, Associations(cov, r.now())...)
			}
			cp.LastZipID = zip.ID
			cp.ZipsDone++
			since++
			if since >= flushEvery {
				if err := flush(); err != nil {
					return cp, err
				}
			}
		}
	}

	cp.Completed = true
	if err := flush(); err != nil {
		return cp, err
	}
	return cp, nil
}

func (r *Runner) start(ctx context.Context, opts RunOptions) (*essentials.CoverageCheckpoint, error) {
	if opts.Resume {
		if opts.RunID == "" {
			return nil, eris.New("coverage: resume needs a run id")
		}
		cp, err := r.Store.Checkpoint(ctx, opts.RunID)
		if err != nil {
			return nil, err
		}
		if cp != nil {
			zap.L().Info("resuming coverage run",
				zap.String("component", "coverage"),
				zap.String("run", cp.RunID),
				zap.String("after", cp.LastZipID))
			return cp, nil
		}
		zap.L().Warn("no checkpoint to resume, starting fresh",
			zap.String("component", "coverage"),
			zap.String("run", opts.RunID))
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	n, err := r.Store.DeletePersonAreas(ctx, essentials.RelationshipZipCoverage)
	if err != nil {
		return nil, err
	}
	zap.L().Info("starting coverage run",
		zap.String("component", "coverage"),
		zap.String("run", runID),
		zap.Int64("cleared_rows", n))
	return &essentials.CoverageCheckpoint{RunID: runID, Mode: ModeSample}, nil
}

// Associations turns a zip's coverage into person-area rows.
func Associations(cov Coverage, at time.Time) []essentials.PersonArea {
	rows := make([]essentials.PersonArea, 0, len(cov.PersonIDs))
	for _, id := range cov.PersonIDs {
		rows = append(rows, essentials.PersonArea{
			PersonID:     id,
			AreaID:       cov.ZipID,
			Relationship: essentials.RelationshipZipCoverage,
			ComputedAt:   at,
		})
	}
	return rows
}
