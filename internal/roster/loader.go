package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
)

// PersonSink receives each person that resolved to an area.
type PersonSink func(ctx context.Context, p *essentials.Person) error

// Stats counts what a load did with each roster file.
type Stats struct {
	Files   int
	Loaded  int
	Skipped int
	Failed  int
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Loaded += o.Loaded
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Loader walks a checkout of the roster repository, laid out as
// data/<jurisdiction>/legislature/*.yml.
type Loader struct {
	Resolver *Resolver
	AsOf     time.Time
	// Workers bounds how many state directories are parsed at once.
	Workers int
}

type built struct {
	person *essentials.Person
	file   string
}

// LoadStates loads every state legislature under root. Congress and the
// excluded states are left out.
func (l *Loader) LoadStates(ctx context.Context, root string, sink PersonSink) (Stats, error) {
	entries, err := os.ReadDir(filepath.Join(root, "data"))
	if err != nil {
		return Stats{}, eris.Wrapf(err, "roster: list %s", root)
	}
	var states []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if !e.IsDir() || name == FederalJurisdiction {
			continue
		}
		if _, excluded := excludedStates[name]; excluded {
			zap.L().Debug("skipping excluded state", zap.String("component", "roster"), zap.String("state", name))
			continue
		}
		states = append(states, name)
	}
	sort.Strings(states)
	return l.load(ctx, root, states, sink)
}

// LoadFederal loads members of Congress.
func (l *Loader) LoadFederal(ctx context.Context, root string, sink PersonSink) (Stats, error) {
	return l.load(ctx, root, []string{FederalJurisdiction}, sink)
}

// load parses jurisdictions concurrently and hands people to sink in
// directory order, so writes stay deterministic.
func (l *Loader) load(ctx context.Context, root string, jurisdictions []string, sink PersonSink) (Stats, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]built, len(jurisdictions))
		total   Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	workers := l.Workers
	if workers <= 0 {
		workers = 4
	}
	g.SetLimit(workers)
	for _, j := range jurisdictions {
		g.Go(func() error {
			people, stats, err := l.parseJurisdiction(gctx, root, j)
			if err != nil {
				return err
			}
			mu.Lock()
			results[j] = people
			total.add(stats)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}

	for _, j := range jurisdictions {
		for _, b := range results[j] {
			if err := sink(ctx, b.person); err != nil {
				return total, eris.Wrapf(err, "roster: store %s", b.file)
			}
		}
	}
	return total, nil
}

func (l *Loader) parseJurisdiction(ctx context.Context, root, jurisdiction string) ([]built, Stats, error) {
	var stats Stats
	dir := filepath.Join(root, "data", jurisdiction, "legislature")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("no legislature directory", zap.String("component", "roster"), zap.String("dir", dir))
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, eris.Wrapf(err, "roster: list %s", dir)
	}

	asOf := l.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var out []built
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		stats.Files++

		p, err := l.buildFile(jurisdiction, path, asOf)
		switch {
		case errors.Is(err, ErrBadDate):
			return nil, stats, err
		case err != nil:
			stats.Failed++
			zap.L().Warn("roster record rejected",
				zap.String("component", "roster"),
				zap.String("file", path),
				zap.Error(err))
		case p == nil:
			stats.Skipped++
		default:
			stats.Loaded++
			out = append(out, built{person: p, file: path})
		}
	}
	return out, stats, nil
}

func (l *Loader) buildFile(jurisdiction, path string, asOf time.Time) (*essentials.Person, error) {
	pf, err := ReadPersonFile(path)
	if err != nil {
		return nil, err
	}
	p, asg, err := BuildPerson(l.Resolver, jurisdiction, pf, asOf)
	if err != nil {
		return nil, err
	}
	if asg.Outcome == Skipped {
		zap.L().Info("roster record skipped",
			zap.String("component", "roster"),
			zap.String("person", pf.ID),
			zap.String("reason", asg.Reason))
	}
	return p, nil
}
