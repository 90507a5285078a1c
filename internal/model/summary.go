package model

import "time"

// RunSummary captures the outcome of processing a single raw file.
type RunSummary struct {
	File          string
	RawSHA256     string
	RunID         string
	WorkDir       string
	ReportDir     string
	DocumentPath  string
	Warnings      int
	Archived      bool
	DurationTools map[string]time.Duration
	DurationCopy  time.Duration
	DurationTotal time.Duration
}
