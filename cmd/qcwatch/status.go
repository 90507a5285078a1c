package main

import (
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/status"
)

var statusState string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processing state of every known file",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusState, "state", "", "Only show files in this state (new, running, completed)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	var filter status.State
	if statusState != "" {
		st, ok := status.ParseState(statusState)
		if !ok {
			log.Error().Str("state", statusState).Msg("unknown state")
			os.Exit(exitcode.UsageError)
		}
		filter = st
	}

	store := status.Open(cfg.StatusLog)
	recs, err := store.Records()
	if err != nil {
		log.Error().Err(err).Str("path", cfg.StatusLog).Msg("status log unreadable")
		os.Exit(exitcode.StatusLogError)
	}
	stale := make(map[string]bool)
	for _, r := range status.Stale(recs, cfg.StaleAfter, time.Now()) {
		stale[r.Name] = true
	}

	names := make([]string, 0, len(recs))
	for name, r := range recs {
		if filter == "" || r.State == filter {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "State", "Updated", "Stale"})
	table.SetAutoFormatHeaders(false)
	for _, name := range names {
		r := recs[name]
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		mark := ""
		if stale[name] {
			mark = "yes"
		}
		table.Append([]string{name, string(r.State), updated, mark})
	}
	table.Render()

	if n := store.Skipped(); n > 0 {
		log.Warn().Int("lines", n).Msg("skipped malformed status log lines")
	}
	return nil
}
