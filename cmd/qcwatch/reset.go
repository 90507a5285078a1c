package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/status"
)

var resetCmd = &cobra.Command{
	Use:   "reset FILE...",
	Short: "Mark files as new so the next scan reprocesses them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	store := status.Open(cfg.StatusLog)
	for _, name := range args {
		if err := store.Reset(name); err != nil {
			log.Error().Err(err).Str("file", name).Msg("reset failed")
			os.Exit(exitcode.StatusLogError)
		}
		log.Info().Str("file", name).Msg("reset to new")
	}
	return nil
}
