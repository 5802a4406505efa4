package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/unievents/internal/bootstrap"
	"github.com/yigit/unievents/internal/seed"
)

var sampleData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and optional sample data",
	Long: `Creates the administrator from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD.
With --sample, also creates demo clubs and events when the events table is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
		if err != nil {
			return err
		}
		if sampleData {
			cfg.Seed.SampleData = true
		}

		pool, err := bootstrap.SetupDatabase(cfg, lgr)
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := bootstrap.RunMigrations(ctx, cfg, pool, lgr); err != nil {
			return err
		}
		return seed.CreateDefaultData(ctx, pool, cfg, lgr)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&sampleData, "sample", false, "also create sample clubs and events")
}
