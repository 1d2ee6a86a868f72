package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var zipCmd = &cobra.Command{
	Use:   "zip <zip>",
	Short: "Show the representatives computed for a zip code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		store, err := openStore()
		if err != nil {
			return err
		}
		people, err := store.PeopleByZip(ctx, args[0])
		if err != nil {
			return err
		}
		if len(people) == 0 {
			fmt.Printf("no coverage rows for %s\n", args[0])
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPARTY\tCHAMBER\tCONSTITUENT AREA")
		for _, p := range people {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Party, p.Chamber, p.ConstituentAreaID)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(zipCmd)
}
