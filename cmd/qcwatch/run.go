package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/status"
)

var runFiles []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every pending raw file once and exit",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringSliceVar(&runFiles, "file", nil, "Process only these raw file names (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	store := status.Open(cfg.StatusLog)
	p, closeArchive, err := buildPipeline(ctx, store, log)
	if err != nil {
		log.Error().Err(err).Msg("pipeline setup failed")
		os.Exit(exitcode.ValidationError)
	}
	defer closeArchive()

	var summaries []*model.RunSummary
	var failures []error
	if len(runFiles) > 0 {
		pending, skipped, err := p.Candidates(runFiles)
		if err != nil {
			log.Error().Err(err).Msg("status log unreadable")
			os.Exit(exitcode.StatusLogError)
		}
		for _, name := range skipped {
			log.Warn().Str("file", name).Msg("file is not new, reset it to process again")
		}
		summaries, failures = p.ProcessPending(ctx, pending)
	} else {
		res, err := p.Scan(ctx)
		if err != nil {
			log.Error().Err(err).Msg("scan failed")
			os.Exit(exitcode.StatusLogError)
		}
		summaries, failures = res.Summaries, res.Failures
	}

	for _, s := range summaries {
		fmt.Printf("%s: %s (%d warnings, %.1fs)\n", s.File, s.DocumentPath, s.Warnings, s.DurationTotal.Seconds())
	}
	switch {
	case len(failures) == 0:
		return nil
	case len(summaries) > 0:
		os.Exit(exitcode.PartialSuccess)
	default:
		os.Exit(exitcode.ProcessingError)
	}
	return nil
}
