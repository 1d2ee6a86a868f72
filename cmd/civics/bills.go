package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/EV-Civics/internal/bills"
	"github.com/EmpoweredVote/EV-Civics/internal/votes"
)

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Load bills and roll-call votes",
}

var billsIngestCmd = &cobra.Command{
	Use:   "ingest <scrape-dir>...",
	Short: "Load scraper output directories",
	Long: `Each directory holds one jurisdiction*.json plus bill*.json and
vote_event*.json files. Vote events whose bill is not in the directory, and
bills or vote events that cannot be built, are skipped with a warning. Voter names are resolved against the jurisdiction's
stored legislators, so load people first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		store, err := openStore()
		if err != nil {
			return err
		}
		in := &bills.Ingester{
			Store:  store,
			Voters: votes.NewResolver(cfg.Votes.FuzzyThreshold),
		}
		for _, dir := range args {
			stats, err := in.IngestDirectory(ctx, dir)
			if err != nil {
				return eris.Wrapf(err, "bills ingest: %s", dir)
			}
			fmt.Printf("%s: %d bills, %d vote events (%d orphaned, %d failed), %d voters unmatched\n",
				dir, stats.Bills, stats.VoteEvents, stats.Orphans, stats.Failed, stats.VotersUnmatched)
		}
		return nil
	},
}

var billsSyncCmd = &cobra.Command{
	Use:   "sync <jurisdiction-id>...",
	Short: "Pull recently updated bills from the Open States API",
	Long: `Fetches bills updated since the jurisdiction was last processed, provided a
scrape has finished since then. A jurisdiction never processed before starts
from bills.default_cutoff.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cutoff, err := cfg.Bills.Cutoff()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		s := &bills.Syncer{
			Source:  openStatesClient(),
			Store:   store,
			Voters:  votes.NewResolver(cfg.Votes.FuzzyThreshold),
			Cutoff:  cutoff,
			PerPage: cfg.Bills.PerPage,
		}
		for _, id := range args {
			res, err := s.SyncJurisdiction(ctx, id)
			if err != nil {
				return eris.Wrapf(err, "bills sync: %s", id)
			}
			if res.Skipped {
				fmt.Printf("%s: no new scrape since last sync\n", id)
				continue
			}
			fmt.Printf("%s: %d bills, %d vote events (%d failed) over %d pages since %s\n",
				id, res.Bills, res.VoteEvents, res.Failed, res.Pages, res.Cutoff.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	billsCmd.AddCommand(billsIngestCmd, billsSyncCmd)
	rootCmd.AddCommand(billsCmd)
}
