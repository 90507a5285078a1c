package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/exitcode"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/metrics"
)

var (
	extractRaw      string
	extractReport   string
	extractAux      string
	extractQuaMeter string
	extractOut      string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a metrics document from existing tool outputs",
	Long: "Builds metrics.json from a raw file and the reports the QC tools already produced, " +
		"without running any tool. Prints the document unless --out is set.",
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractRaw, "raw", "", "Raw instrument file (required)")
	f.StringVar(&extractReport, "report", "", "NIST MSQC report")
	f.StringVar(&extractAux, "aux", "", "Library search run log")
	f.StringVar(&extractQuaMeter, "quameter", "", "QuaMeter metrics TSV")
	f.StringVar(&extractOut, "out", "", "Directory to write "+metrics.DocumentFile+" into")
	_ = extractCmd.MarkFlagRequired("raw")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	table, err := cfg.LoadTable()
	if err != nil {
		log.Error().Err(err).Msg("metric table invalid")
		os.Exit(exitcode.ValidationError)
	}
	builder := metrics.NewBuilder()
	builder.Table = table

	doc, warnings, err := builder.Build(metrics.Sources{
		RawFile:  extractRaw,
		Report:   extractReport,
		AuxLog:   extractAux,
		QuaMeter: extractQuaMeter,
		Start:    time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("extract failed")
		os.Exit(exitcode.ProcessingError)
	}
	for _, w := range warnings {
		log.Warn().Str("kind", string(w.Kind)).Str("metric", w.Metric).Msg(w.Detail)
	}

	if extractOut == "" {
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	path, err := metrics.Serialize(doc, extractOut)
	if err != nil {
		log.Error().Err(err).Msg("write document failed")
		os.Exit(exitcode.ProcessingError)
	}
	log.Info().Str("path", path).Int("warnings", len(warnings)).Msg("document written")
	return nil
}
