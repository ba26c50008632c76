package cmd

import (
	"cassette/config"
	"cassette/db"
	"cassette/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Run the schema migration against the configured database, then provision the admin account if it is absent.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseGormDB()

		if err := db.MigrateSchema(); err != nil {
			logger.Fatal("failed to migrate schema", logger.ErrorField(err))
		}

		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseDB()

		if err := db.EnsureAdmin(cfg); err != nil {
			logger.Fatal("failed to provision admin account", logger.ErrorField(err))
		}

		logger.Info("migration complete")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
