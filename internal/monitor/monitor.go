// Package monitor drives the pipeline from file-system notifications or a
// polling timer through a single worker.
package monitor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/qcwatch/internal/config"
	"github.com/gyeh/qcwatch/internal/pipeline"
	"github.com/gyeh/qcwatch/internal/status"
)

// DefaultPollInterval is used when no copy log is configured and the config
// does not set poll_interval.
const DefaultPollInterval = time.Minute

// Scanner performs one reconciliation pass.
type Scanner interface {
	Scan(ctx context.Context) (*pipeline.ScanResult, error)
}

// Source produces scan requests until its context is done.
type Source interface {
	Run(ctx context.Context) error
}

// Monitor owns the request queue and the single worker that drains it.
type Monitor struct {
	scanner Scanner
	source  Source
	queue   *Queue
	log     zerolog.Logger
}

// New creates a Monitor. source must feed queue.
func New(scanner Scanner, source Source, queue *Queue, log zerolog.Logger) *Monitor {
	return &Monitor{scanner: scanner, source: source, queue: queue, log: log}
}

// NewSource picks the request source for cfg: an fsnotify watcher on the copy
// log directory, or a poller when no copy log is set or poll_interval is set.
func NewSource(cfg config.Config, queue *Queue, log zerolog.Logger) Source {
	if cfg.CopyLog != "" && cfg.PollInterval == 0 {
		return NewWatcher(filepath.Dir(cfg.CopyLog), cfg.CopyLogPattern, cfg.Debounce, queue, log)
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return NewPoller(interval, queue)
}

// Run requests an initial scan, then runs the source and the worker until
// ctx is done. A failed scan is logged and never stops the monitor.
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	m.queue.Request()

	g.Go(func() error {
		return m.source.Run(ctx)
	})
	g.Go(func() error {
		m.work(ctx)
		return nil
	})

	return g.Wait()
}

func (m *Monitor) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.queue.C():
			start := time.Now()
			res, err := m.scanner.Scan(ctx)
			if err != nil {
				m.log.Error().Err(err).Msg("scan failed")
				continue
			}
			m.log.Info().
				Int("pending", len(res.Pending)).
				Int("processed", len(res.Summaries)).
				Int("failed", len(res.Failures)).
				Dur("duration", time.Since(start)).
				Msg("scan complete")
		}
	}
}

// RecoverStale reports files left "running" for longer than cfg.StaleAfter
// and, when cfg.RequeueStaleAfter is set, resets those older than it to
// "new". It is meant to run once before the monitor starts.
func RecoverStale(store *status.Store, cfg config.Config, log zerolog.Logger) ([]string, error) {
	recs, err := store.Records()
	if err != nil {
		return nil, err
	}
	for _, r := range status.Stale(recs, cfg.StaleAfter, time.Now()) {
		log.Warn().
			Str("file", r.Name).
			Time("since", r.UpdatedAt).
			Msg("file has been running since a previous session")
	}
	if cfg.RequeueStaleAfter <= 0 {
		return nil, nil
	}
	requeued, err := store.RequeueStale(cfg.RequeueStaleAfter)
	if err != nil {
		return requeued, err
	}
	for _, name := range requeued {
		log.Info().Str("file", name).Msg("requeued stale file")
	}
	return requeued, nil
}
