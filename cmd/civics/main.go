// Command civics loads boundaries, officials and bills and computes which
// officials represent each zip code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/config"
	"github.com/EmpoweredVote/EV-Civics/internal/db"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/openstates"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "civics",
	Short: "Civic data entity resolution and geographic assignment",
	Long: `Loads census boundaries, legislator rosters, bills and roll-call votes into
Postgres/PostGIS, resolves every official to the area they represent and every
voter name to a stored person, and computes zip code coverage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext cancels on ctrl-c so long runs stop at a record boundary.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// openStore connects gorm and makes sure the schema exists.
func openStore() (*essentials.Store, error) {
	d, err := db.Connect(db.Options{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogSQL:       cfg.Database.LogSQL,
	})
	if err != nil {
		return nil, err
	}
	if err := essentials.Migrate(d); err != nil {
		return nil, err
	}
	return essentials.NewStore(d), nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	return db.OpenPool(ctx, cfg.Database.URL)
}

func openStatesClient() *openstates.Client {
	return openstates.NewClient(openstates.Options{
		BaseURL:             cfg.OpenStates.BaseURL,
		APIKey:              cfg.OpenStates.APIKey,
		RequestsPerMinute:   cfg.OpenStates.RequestsPerMinute,
		RateLimitPause:      cfg.OpenStates.RateLimitPause(),
		MaxRateLimitRetries: cfg.OpenStates.MaxRateLimitRetries,
		Timeout:             cfg.OpenStates.Timeout(),
	})
}
