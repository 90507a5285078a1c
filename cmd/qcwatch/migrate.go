package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/db"
	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply archive database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Archive.DSN, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	applied, err := db.ApplyMigrations(ctx, pool, log)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}
	log.Info().Strs("applied", applied).Msg("migrations complete")
	return nil
}
