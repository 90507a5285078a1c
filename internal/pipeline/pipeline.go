// Package pipeline processes raw instrument files: it runs the external QC
// tools, extracts metrics and publishes the metrics document.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/qcwatch/internal/archive"
	"github.com/gyeh/qcwatch/internal/config"
	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/status"
	"github.com/gyeh/qcwatch/internal/tools"
)

// PipelineError wraps an error with the phase and file where it occurred.
type PipelineError struct {
	Phase string
	File  string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.File, e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ToolRunner runs one external tool step.
type ToolRunner interface {
	Run(ctx context.Context, step tools.Step, vars tools.Vars) (*tools.Result, error)
}

// Archiver stores a serialized document. Archive failures never fail a run.
type Archiver interface {
	Save(ctx context.Context, meta archive.RunMeta, doc metrics.Document) (int64, error)
}

// Pipeline processes files one at a time. It is not safe for concurrent use:
// it is the only writer of the status log.
type Pipeline struct {
	cfg      config.Config
	store    *status.Store
	runner   ToolRunner
	builder  *metrics.Builder
	archiver Archiver
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Pipeline. archiver may be nil.
func New(cfg config.Config, store *status.Store, runner ToolRunner, builder *metrics.Builder, archiver Archiver, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		builder:  builder,
		archiver: archiver,
		log:      log,
		now:      time.Now,
	}
}

// ProcessFile runs the full pipeline for one raw file in the input dir:
// prepare → reportdir → tools → metrics → serialize → archive → cleanup.
// On failure the file stays "running" and its work dir is kept.
func (p *Pipeline) ProcessFile(ctx context.Context, name string) (*model.RunSummary, error) {
	totalStart := p.now()
	log := p.log.With().Str("file", name).Logger()

	// Phase 1: Prepare
	if err := p.store.Record(name, status.StateRunning); err != nil {
		return nil, &PipelineError{Phase: "prepare", File: name, Err: err}
	}
	prep, err := Prepare(log, p.cfg.InputDir, p.cfg.OutputDir, name, p.archiver != nil)
	if err != nil {
		return nil, &PipelineError{Phase: "prepare", File: name, Err: err}
	}

	// Phase 2: Report dir
	reportDir := ReportDir(p.cfg.ReportRoot, prep.BaseName, totalStart)
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return nil, &PipelineError{Phase: "reportdir", File: name, Err: err}
	}

	summary := &model.RunSummary{
		File:          name,
		RawSHA256:     prep.SHA256,
		RunID:         prep.RunID.String(),
		WorkDir:       prep.WorkDir,
		ReportDir:     reportDir,
		DurationTools: make(map[string]time.Duration),
		DurationCopy:  prep.CopyDuration,
	}

	// Phase 3: External tools
	vars := tools.Vars{
		Input:     prep.Input,
		WorkDir:   prep.WorkDir,
		WorkBase:  filepath.Base(prep.WorkDir),
		ReportDir: reportDir,
		BaseName:  prep.BaseName,
		Home:      p.cfg.ToolHome,
	}
	for _, step := range tools.Enabled(p.cfg.Tools) {
		if err := ctx.Err(); err != nil {
			return nil, &PipelineError{Phase: "tool:" + step.Name, File: name, Err: err}
		}
		res, err := p.runner.Run(ctx, step, vars)
		if err != nil {
			return nil, &PipelineError{Phase: "tool:" + step.Name, File: name, Err: err}
		}
		summary.DurationTools[step.Name] = res.Duration
	}

	// Phase 4: Metrics
	doc, warnings, err := p.builder.Build(metrics.SourcesIn(prep.WorkDir, prep.Input, totalStart))
	if err != nil {
		return nil, &PipelineError{Phase: "metrics", File: name, Err: err}
	}
	for _, w := range warnings {
		log.Warn().Str("kind", string(w.Kind)).Str("metric", w.Metric).Msg(w.Detail)
	}
	summary.Warnings = len(warnings)

	// Phase 5: Serialize
	path, err := metrics.Serialize(doc, reportDir)
	if err != nil {
		return nil, &PipelineError{Phase: "serialize", File: name, Err: err}
	}
	summary.DocumentPath = path

	// Phase 6: Archive (non-fatal)
	if p.archiver != nil {
		_, err := p.archiver.Save(ctx, archive.RunMeta{
			RunID:       summary.RunID,
			RawFile:     name,
			RawSHA256:   prep.SHA256,
			ReportDir:   reportDir,
			Warnings:    len(warnings),
			ProcessedAt: totalStart,
		}, doc)
		if err != nil {
			log.Warn().Err(err).Msg("archive failed (non-fatal)")
		} else {
			summary.Archived = true
		}
	}

	// Phase 7: Cleanup (non-fatal)
	if !p.cfg.KeepWorkDir {
		if err := Cleanup(log, prep.WorkDir); err != nil {
			log.Warn().Err(err).Msg("work dir cleanup failed (non-fatal)")
		}
	}

	if err := p.store.Record(name, status.StateCompleted); err != nil {
		return nil, &PipelineError{Phase: "complete", File: name, Err: err}
	}

	summary.DurationTotal = p.now().Sub(totalStart)
	log.Info().
		Str("run_id", summary.RunID).
		Str("report_dir", reportDir).
		Int("warnings", summary.Warnings).
		Bool("archived", summary.Archived).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("qc pipeline complete")

	return summary, nil
}
