package main

import (
	"context"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/archive"
	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/history"
	"github.com/gyeh/qcwatch/internal/logging"
)

var (
	historyIn       string
	historyCategory string
	historyMetric   string
	historyLatest   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past values of a metric",
	Long: "Shows every recorded value of one metric, read from a parquet export (--in) or " +
		"from the archive database. With --latest, lists the most recent archived runs instead.",
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyIn, "in", "", "Parquet export to read instead of the archive")
	f.StringVar(&historyCategory, "category", "", "Metric category, e.g. ms1")
	f.StringVar(&historyMetric, "metric", "", "Metric id, e.g. ms1-1")
	f.IntVar(&historyLatest, "latest", 0, "List the N most recent archived runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if historyLatest <= 0 && historyMetric == "" {
		log.Error().Msg("--metric is required unless --latest is set")
		os.Exit(exitcode.UsageError)
	}

	if historyIn != "" {
		if historyLatest > 0 {
			log.Error().Msg("--latest needs the archive database, not --in")
			os.Exit(exitcode.UsageError)
		}
		return historyFromParquet(log)
	}

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if historyLatest <= 0 && historyCategory == "" {
		log.Error().Msg("--category is required when reading the archive")
		os.Exit(exitcode.UsageError)
	}
	ctx := context.Background()
	a, err := archive.Open(ctx, cfg.Archive.DSN, false, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer a.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)

	if historyLatest > 0 {
		runs, err := a.LatestRuns(ctx, historyLatest)
		if err != nil {
			log.Error().Err(err).Msg("query failed")
			os.Exit(exitcode.DBConnError)
		}
		table.SetHeader([]string{"Processed", "File", "Warnings", "Report Dir"})
		for _, r := range runs {
			table.Append([]string{r.ProcessedAt.Format("2006-01-02 15:04"), r.RawFile, strconv.Itoa(r.Warnings), r.ReportDir})
		}
		table.Render()
		return nil
	}

	points, err := a.Series(ctx, historyCategory, historyMetric)
	if err != nil {
		log.Error().Err(err).Msg("query failed")
		os.Exit(exitcode.DBConnError)
	}
	table.SetHeader([]string{"Processed", "File", "Value"})
	for _, p := range points {
		table.Append([]string{p.ProcessedAt.Format("2006-01-02 15:04"), p.RawFile, p.Value})
	}
	table.Render()
	return nil
}

func historyFromParquet(log zerolog.Logger) error {
	r, err := history.Open(historyIn)
	if err != nil {
		log.Error().Err(err).Str("in", historyIn).Msg("open parquet failed")
		os.Exit(exitcode.ValidationError)
	}
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		log.Error().Err(err).Msg("read parquet failed")
		os.Exit(exitcode.ProcessingError)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Processed", "Report", "Value"})
	table.SetAutoFormatHeaders(false)
	for _, row := range history.Select(rows, historyCategory, historyMetric) {
		table.Append([]string{row.ProcessedAt, row.Report, row.Value})
	}
	table.Render()
	return nil
}
