package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/unievents/internal/bootstrap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
		if err != nil {
			return err
		}

		pool, err := bootstrap.SetupDatabase(cfg, lgr)
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		return bootstrap.RunMigrations(ctx, cfg, pool, lgr)
	},
}
