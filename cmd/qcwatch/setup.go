package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gyeh/qcwatch/internal/archive"
	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/pipeline"
	"github.com/gyeh/qcwatch/internal/status"
	"github.com/gyeh/qcwatch/internal/tools"
)

// buildPipeline wires the pipeline for cfg. The returned close func releases
// the archive connection, if any. An unreachable archive is logged and
// skipped.
func buildPipeline(ctx context.Context, store *status.Store, log zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	table, err := cfg.LoadTable()
	if err != nil {
		return nil, nil, err
	}
	builder := metrics.NewBuilder()
	builder.Table = table

	closeFn := func() {}
	var archiver pipeline.Archiver
	if cfg.Archive.DSN != "" {
		a, err := archive.Open(ctx, cfg.Archive.DSN, cfg.Archive.AutoMigrate, log)
		if err != nil {
			log.Warn().Err(err).Msg("archive unavailable, continuing without it")
		} else {
			archiver = a
			closeFn = a.Close
		}
	}

	p := pipeline.New(cfg, store, tools.NewRunner(log), builder, archiver, log)
	return p, closeFn, nil
}
