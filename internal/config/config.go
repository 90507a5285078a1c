package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/qcwatch/internal/copylog"
	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/reconcile"
	"github.com/gyeh/qcwatch/internal/tools"
)

// EnvArchiveDSN supplies the archive DSN when neither the file nor a flag sets it.
const EnvArchiveDSN = "QCWATCH_ARCHIVE_DSN"

// Config holds all runtime configuration for a qcwatch process. It is built
// once at startup and handed to each component by value.
type Config struct {
	LogFormat string `yaml:"log_format"` // "text" or "json"
	LogLevel  string `yaml:"log_level"`

	InputDir   string `yaml:"input_dir"`   // where raw files arrive
	OutputDir  string `yaml:"output_dir"`  // parent of per-run work dirs
	ReportRoot string `yaml:"report_root"` // <root>/<YYYY>/<Mon>/<basename>
	StatusLog  string `yaml:"status_log"`

	// CopyLog is the transfer-utility log. Empty selects directory listing.
	CopyLog        string          `yaml:"copy_log"`
	CopyLogPattern string          `yaml:"copy_log_pattern"` // file name glob for watch events
	Markers        copylog.Markers `yaml:"markers"`
	Extensions     []string        `yaml:"extensions"`

	ToolHome    string       `yaml:"tool_home"`
	Tools       []tools.Step `yaml:"tools"`
	MetricTable string       `yaml:"metric_table"` // optional YAML table replacing the default

	PollInterval      time.Duration `yaml:"poll_interval"` // 0 watches the copy log with fsnotify
	Debounce          time.Duration `yaml:"debounce"`
	StaleAfter        time.Duration `yaml:"stale_after"`         // running records older than this are reported
	RequeueStaleAfter time.Duration `yaml:"requeue_stale_after"` // 0 disables requeue at startup
	KeepWorkDir       bool          `yaml:"keep_workdir"`

	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig configures the optional PostgreSQL archive.
type ArchiveConfig struct {
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		LogFormat:      "text",
		LogLevel:       "info",
		OutputDir:      os.TempDir(),
		ReportRoot:     "reports",
		StatusLog:      "qc_status.log",
		CopyLogPattern: "robocopy*",
		Markers:        copylog.DefaultMarkers(),
		Extensions:     reconcile.DefaultExtensions,
		Tools:          tools.DefaultSteps(),
		Debounce:       2 * time.Second,
		StaleAfter:     6 * time.Hour,
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Keys absent from the file keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ApplyEnv fills unset values from the environment.
func (c *Config) ApplyEnv() {
	if c.Archive.DSN == "" {
		c.Archive.DSN = os.Getenv(EnvArchiveDSN)
	}
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if info, err := os.Stat(c.InputDir); err != nil {
		return fmt.Errorf("input dir not accessible: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("input dir %s is not a directory", c.InputDir)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.ReportRoot == "" {
		return fmt.Errorf("report_root is required")
	}
	if c.StatusLog == "" {
		return fmt.Errorf("status_log is required")
	}
	if err := c.validateMarkers(); err != nil {
		return err
	}
	if _, err := filepath.Match(c.CopyLogPattern, "robocopy.log"); err != nil {
		return fmt.Errorf("copy_log_pattern: %w", err)
	}
	if c.PollInterval < 0 || c.Debounce < 0 || c.StaleAfter < 0 || c.RequeueStaleAfter < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return c.validateTools()
}

// ValidateWithDSN checks the archive DSN only.
func (c *Config) ValidateWithDSN() error {
	if c.Archive.DSN == "" {
		return fmt.Errorf("--dsn, archive.dsn or %s is required", EnvArchiveDSN)
	}
	return nil
}

func (c *Config) validateMarkers() error {
	if c.Markers.Start == "" || c.Markers.End == "" || c.Markers.NewFile == "" {
		return fmt.Errorf("markers: start, end and new_file must all be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	seen := make(map[string]bool, len(c.Tools))
	for i, s := range c.Tools {
		if s.Name == "" {
			return fmt.Errorf("tools[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("tools: duplicate name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Command == "" {
			return fmt.Errorf("tool %s: command is required", s.Name)
		}
	}
	return nil
}

// LoadTable returns the configured metric table, or the default table.
func (c *Config) LoadTable() (metrics.Table, error) {
	if c.MetricTable == "" {
		return metrics.DefaultTable(), nil
	}
	return metrics.LoadTableFile(c.MetricTable)
}
