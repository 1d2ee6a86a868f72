package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
	"github.com/EmpoweredVote/EV-Civics/internal/roster"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Load legislators from the roster repository",
}

var peopleLoadCmd = &cobra.Command{
	Use:   "load <roster-dir>",
	Short: "Resolve and upsert every current legislator",
	Long: `Walks data/<state>/legislature/*.yml in a checkout of the roster repository,
resolves each person's current role to the area they represent and upserts
them. --federal loads members of Congress from data/us instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		states, err := reference.LoadStates()
		if err != nil {
			return err
		}
		districts, err := reference.LoadDistrictTable(cfg.Reference.MassachusettsDistricts)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}

		workers, _ := cmd.Flags().GetInt("workers")
		loader := &roster.Loader{
			Resolver: roster.NewResolver(states, districts),
			AsOf:     time.Now().UTC(),
			Workers:  workers,
		}
		sink := func(ctx context.Context, p *essentials.Person) error {
			return store.UpsertPerson(ctx, p)
		}

		federal, _ := cmd.Flags().GetBool("federal")
		var stats roster.Stats
		if federal {
			stats, err = loader.LoadFederal(ctx, args[0], sink)
		} else {
			stats, err = loader.LoadStates(ctx, args[0], sink)
		}
		if err != nil {
			return eris.Wrap(err, "people load")
		}
		fmt.Printf("%d files: %d loaded, %d skipped, %d failed\n", stats.Files, stats.Loaded, stats.Skipped, stats.Failed)
		return nil
	},
}

func init() {
	peopleLoadCmd.Flags().Bool("federal", false, "load members of Congress instead of state legislators")
	peopleLoadCmd.Flags().Int("workers", 4, "state directories parsed at once")
	peopleCmd.AddCommand(peopleLoadCmd)
	rootCmd.AddCommand(peopleCmd)
}
