package cmd

import (
	"github.com/spf13/cobra"
	"github.com/yigit/unievents/internal/pkg/logger"
	"github.com/yigit/unievents/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Connects to PostgreSQL, applies migrations, seeds the admin account and serves the API until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.NewServer(configPath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize server")
			return err
		}

		// Run blocks until shutdown
		if err := srv.Run(); err != nil {
			logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
			return err
		}

		logger.Info().Msg("Application finished gracefully.")
		return nil
	},
}
