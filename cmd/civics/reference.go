package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Build reference tables from loaded areas",
}

var referenceDistrictsCmd = &cobra.Command{
	Use:   "districts <state>",
	Short: "Write the named-district table for a state",
	Long: `States such as Massachusetts name legislative districts ("3rd Bristol")
instead of numbering them. This reads the state's loaded legislative areas and
writes the name -> area id table that people load reads from
reference.massachusetts_districts. --out defaults to that path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		states, err := reference.LoadStates()
		if err != nil {
			return err
		}
		st, ok := states.ByAbbreviation(args[0])
		if !ok {
			return eris.Errorf("reference districts: unknown state %q", args[0])
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		areas, err := store.AreasByState(ctx, st.FIPS, area.StateSenateDistrict, area.StateHouseDistrict)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Reference.MassachusettsDistricts
		}
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "reference districts: create %s", out)
		}
		defer f.Close()
		if err := reference.BuildDistrictTable(st, areas).Write(f); err != nil {
			return err
		}
		fmt.Printf("%s: %d districts written to %s\n", st.Abbreviation, len(areas), out)
		return nil
	},
}

func init() {
	referenceDistrictsCmd.Flags().String("out", "", "output path")
	referenceCmd.AddCommand(referenceDistrictsCmd)
	rootCmd.AddCommand(referenceCmd)
}
