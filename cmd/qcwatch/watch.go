package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/monitor"
	"github.com/gyeh/qcwatch/internal/status"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for new raw files and process them until interrupted",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	store := status.Open(cfg.StatusLog)
	if _, err := monitor.RecoverStale(store, cfg, log); err != nil {
		log.Error().Err(err).Msg("status log unreadable")
		os.Exit(exitcode.StatusLogError)
	}

	p, closeArchive, err := buildPipeline(ctx, store, log)
	if err != nil {
		log.Error().Err(err).Msg("pipeline setup failed")
		os.Exit(exitcode.ValidationError)
	}
	defer closeArchive()

	queue := monitor.NewQueue()
	m := monitor.New(p, monitor.NewSource(cfg, queue, log), queue, log)

	log.Info().Str("input_dir", cfg.InputDir).Str("copy_log", cfg.CopyLog).Msg("monitor started")
	if err := m.Run(ctx); err != nil {
		log.Error().Err(err).Msg("monitor stopped")
		os.Exit(exitcode.ProcessingError)
	}
	log.Info().Msg("monitor stopped")
	return nil
}
