package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/census"
	"github.com/EmpoweredVote/EV-Civics/internal/reference"
)

var areasCmd = &cobra.Command{
	Use:   "areas",
	Short: "Load census boundaries",
}

var areasLoadCmd = &cobra.Command{
	Use:   "load <product>",
	Short: "Download and load a TIGER/Line product",
	Long: fmt.Sprintf(`Downloads every file of a census product and upserts its areas.
Products: %s.

With --file a single local .shp or .zip is loaded instead; --start skips that
many records first, to resume a load that stopped part way.`, strings.Join(census.ProductNames(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		p, err := census.LookupProduct(args[0])
		if err != nil {
			return err
		}
		states, err := reference.LoadStates()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}

		release := census.Release{Year: cfg.Census.Year, Congress: cfg.Census.Congress}
		in := &census.Ingester{
			Fetcher: census.NewDownloader(10 * time.Minute),
			Store:   store,
			States:  states,
			Release: release,
			DataDir: cfg.Census.DataDir,
		}

		file, _ := cmd.Flags().GetString("file")
		if file != "" {
			start, _ := cmd.Flags().GetInt("start")
			records, written, err := in.IngestFile(ctx, file, p, census.ReadOptions{Release: release, Start: start})
			if err != nil {
				return eris.Wrapf(err, "areas load: %s", file)
			}
			fmt.Printf("%s: %d records read, %d areas written\n", file, records, written)
			return nil
		}

		stats, err := in.Ingest(ctx, p)
		if err != nil {
			return eris.Wrapf(err, "areas load: %s", p.Name)
		}
		zap.L().Info("areas loaded", zap.String("product", p.Name),
			zap.Int("files", stats.Files), zap.Int("missing", stats.Missing),
			zap.Int("records", stats.Records), zap.Int("areas", stats.Areas))
		fmt.Printf("%s: %d files (%d not published), %d areas\n", p.Name, stats.Files, stats.Missing, stats.Areas)
		return nil
	},
}

var areasPrecinctsCmd = &cobra.Command{
	Use:   "precincts <file.geojsonl>",
	Short: "Load precinct results from line-delimited GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		store, err := openStore()
		if err != nil {
			return err
		}
		n, err := census.IngestPrecincts(ctx, args[0], store)
		if err != nil {
			return eris.Wrapf(err, "areas precincts: %s", args[0])
		}
		fmt.Printf("%d precincts loaded\n", n)
		return nil
	},
}

func init() {
	areasLoadCmd.Flags().String("file", "", "load one local .shp or .zip instead of downloading")
	areasLoadCmd.Flags().Int("start", 0, "records to skip before loading (with --file)")
	areasCmd.AddCommand(areasLoadCmd, areasPrecinctsCmd)
	rootCmd.AddCommand(areasCmd)
}
