package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/EV-Civics/internal/coverage"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Compute which representatives cover each zip code",
}

var coverageRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample every zip code against the configured lookup",
	Long: `Probes each zip's centroid and simplified boundary and links the
representatives found. Progress is checkpointed; --resume --run-id <id>
continues a stopped run. A run without --resume replaces all previous zip
coverage rows.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		store, err := openStore()
		if err != nil {
			return err
		}
		lcfg := coverage.Config{
			Backend:  coverage.Backend(cfg.Coverage.Lookup),
			CacheTTL: cfg.Coverage.CacheTTL(),
		}
		switch lcfg.Backend {
		case coverage.BackendPostGIS:
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			lcfg.Pool = pool
		default:
			lcfg.GeoClient = openStatesClient()
		}
		lookup, err := coverage.NewLookup(lcfg)
		if err != nil {
			return err
		}

		runID, _ := cmd.Flags().GetString("run-id")
		resume, _ := cmd.Flags().GetBool("resume")
		if resume && runID == "" {
			return eris.New("coverage run: --resume needs --run-id")
		}
		r := &coverage.Runner{
			Store:      store,
			Sampler:    coverage.NewSampler(lookup, cfg.Coverage.SimplifyTolerance),
			PageSize:   cfg.Coverage.PageSize,
			FlushEvery: cfg.Coverage.FlushEvery,
		}
		cp, err := r.Run(ctx, coverage.RunOptions{RunID: runID, Resume: resume})
		if cp != nil {
			fmt.Printf("run %s: %d zips done, %d failed, last %s\n", cp.RunID, cp.ZipsDone, cp.Failed, cp.LastZipID)
		}
		if err != nil {
			return eris.Wrap(err, "coverage run")
		}
		return nil
	},
}

var coverageIntersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Link people to zip codes by polygon intersection",
	Long: `Computes zip coverage in the database by intersecting each person's
constituent area with every zip code area. --jurisdiction limits the run to
one jurisdiction's people.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		store, err := openStore()
		if err != nil {
			return err
		}
		jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
		stats, err := coverage.ConnectByIntersection(ctx, store, jurisdiction, time.Now().UTC())
		if err != nil {
			return eris.Wrap(err, "coverage intersect")
		}
		fmt.Printf("%d people: %d zip links, %d failed\n", stats.People, stats.Links, stats.Failed)
		return nil
	},
}

func init() {
	coverageRunCmd.Flags().String("run-id", "", "checkpoint name (default: a new id)")
	coverageRunCmd.Flags().Bool("resume", false, "continue --run-id from its checkpoint")
	coverageIntersectCmd.Flags().String("jurisdiction", "", "jurisdiction division id (default: everyone)")
	coverageCmd.AddCommand(coverageRunCmd, coverageIntersectCmd)
	rootCmd.AddCommand(coverageCmd)
}
