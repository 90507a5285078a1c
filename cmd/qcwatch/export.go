package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/history"
	"github.com/gyeh/qcwatch/internal/logging"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every published metrics document to a parquet file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "qc_history.parquet", "Output parquet file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if cfg.ReportRoot == "" {
		log.Error().Msg("report_root is required")
		os.Exit(exitcode.UsageError)
	}

	rows, skipped, err := history.Collect(cfg.ReportRoot)
	if err != nil {
		log.Error().Err(err).Str("report_root", cfg.ReportRoot).Msg("collect failed")
		os.Exit(exitcode.ProcessingError)
	}
	for _, path := range skipped {
		log.Warn().Str("path", path).Msg("skipped unreadable document")
	}

	if err := history.Write(exportOut, rows); err != nil {
		log.Error().Err(err).Str("out", exportOut).Msg("write parquet failed")
		os.Exit(exitcode.ProcessingError)
	}
	log.Info().Int("rows", len(rows)).Int("skipped", len(skipped)).Str("out", exportOut).Msg("export complete")
	if len(skipped) > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
