package pipeline

import (
	"context"
	"errors"

	"github.com/gyeh/qcwatch/internal/copylog"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/reconcile"
	"github.com/gyeh/qcwatch/internal/status"
	"github.com/gyeh/qcwatch/internal/tools"
)

// toolOutputLines bounds how much of a failed tool's output is logged.
const toolOutputLines = 20

// ScanResult summarizes one reconciliation pass.
type ScanResult struct {
	Pending   []string
	Summaries []*model.RunSummary
	Failures  []error
}

// Discover loads the status log and merges in newly arrived files, from the
// copy log when one is configured and from the input dir listing otherwise.
func (p *Pipeline) Discover() (map[string]status.State, error) {
	known, err := p.store.Load()
	if err != nil {
		return nil, &PipelineError{Phase: "discover", Err: err}
	}
	if n := p.store.Skipped(); n > 0 {
		p.log.Warn().Int("lines", n).Str("path", p.store.Path()).Msg("skipped malformed status log lines")
	}

	if p.cfg.CopyLog == "" {
		files, err := reconcile.ScanDirectory(p.cfg.InputDir, p.cfg.Extensions, known)
		if err != nil {
			return nil, &PipelineError{Phase: "discover", Err: err}
		}
		return files, nil
	}

	arrived, err := copylog.ParseFile(p.cfg.CopyLog, known, p.cfg.Markers)
	if err != nil {
		return nil, &PipelineError{Phase: "discover", Err: err}
	}
	return reconcile.Reconcile(known, arrived), nil
}

// Candidates splits names into those eligible for processing and those
// skipped. A name is eligible when the status log has no record of it or
// records it as new; running and completed files must be reset first.
func (p *Pipeline) Candidates(names []string) (pending, skipped []string, err error) {
	known, err := p.store.Load()
	if err != nil {
		return nil, nil, &PipelineError{Phase: "discover", Err: err}
	}
	for _, name := range names {
		if st, ok := known[name]; ok && st != status.StateNew {
			skipped = append(skipped, name)
			continue
		}
		pending = append(pending, name)
	}
	return pending, skipped, nil
}

// ProcessPending runs ProcessFile for each name in order. A failed file is
// logged and recorded in the failures; it does not stop the batch. Returns
// early when ctx is cancelled.
func (p *Pipeline) ProcessPending(ctx context.Context, names []string) ([]*model.RunSummary, []error) {
	var summaries []*model.RunSummary
	var failures []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		summary, err := p.ProcessFile(ctx, name)
		if err != nil {
			ev := p.log.Error().Err(err).Str("file", name)
			var te *tools.ToolError
			if errors.As(err, &te) && te.Output != "" {
				ev = ev.Str("output", te.OutputTail(toolOutputLines))
			}
			ev.Msg("qc pipeline failed")
			failures = append(failures, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, failures
}

// Scan performs one full pass: discover, then process every pending file.
func (p *Pipeline) Scan(ctx context.Context) (*ScanResult, error) {
	files, err := p.Discover()
	if err != nil {
		return nil, err
	}
	pending := reconcile.Pending(files)
	p.log.Info().Int("known", len(files)).Int("pending", len(pending)).Msg("reconciled input files")

	summaries, failures := p.ProcessPending(ctx, pending)
	return &ScanResult{Pending: pending, Summaries: summaries, Failures: failures}, nil
}
