package main

import (
	"github.com/spf13/cobra"

	"github.com/gyeh/qcwatch/internal/config"
)

var cfg = config.Default()

var (
	configFile string
	logFormat  string
	logLevel   string
	dsn        string
)

var rootCmd = &cobra.Command{
	Use:   "qcwatch",
	Short: "Proteomics QC file watcher",
	Long: "Watches an instrument output directory for finished raw files, runs the QC tools on each " +
		"one and publishes a metrics.json document per file.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to YAML config file")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&dsn, "dsn", "", "Archive Postgres connection string (or set "+config.EnvArchiveDSN+")")
}

// loadConfig builds cfg from defaults, the config file, explicit flags and
// finally the environment.
func loadConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("dsn") {
		cfg.Archive.DSN = dsn
	}
	cfg.ApplyEnv()
	return nil
}
