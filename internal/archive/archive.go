// Package archive stores metrics documents in PostgreSQL so they can be
// queried across runs.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/qcwatch/internal/db"
	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/normalize"
	embedsql "github.com/gyeh/qcwatch/internal/sql"
)

// RunMeta identifies the processed file a document belongs to.
type RunMeta struct {
	RunID       string
	RawFile     string
	RawSHA256   string
	ReportDir   string
	Warnings    int
	ProcessedAt time.Time
}

// Archive writes documents to the qc schema.
type Archive struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects to dsn with retries and, when migrate is set, applies
// pending migrations.
func Open(ctx context.Context, dsn string, migrate bool, log zerolog.Logger) (*Archive, error) {
	pool, err := db.Connect(ctx, dsn, log)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if migrate {
		if _, err := db.ApplyMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return New(pool, log), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Archive {
	return &Archive{pool: pool, log: log}
}

// Close releases the pool.
func (a *Archive) Close() {
	a.pool.Close()
}

// Save inserts the run row and streams every metric of doc into
// qc.metric_values in one transaction. Returns the number of metric rows.
func (a *Archive) Save(ctx context.Context, meta RunMeta, doc metrics.Document) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}

	processedAt := meta.ProcessedAt
	if t := normalize.ParseDate(doc.Generic["date"]); t != nil {
		processedAt = *t
	}
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, embedsql.InsertRun,
		meta.RunID,
		meta.RawFile,
		nullable(meta.RawSHA256),
		meta.ReportDir,
		processedAt,
		normalize.ParseNumeric(doc.Generic["f_size"]),
		nullable(doc.Generic["runtime"]),
		meta.Warnings,
		body,
	); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	rows := normalize.ToMetricRows(meta.RunID, meta.ReportDir, doc)

	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := make(chan *model.MetricRow, 64)
	go func() {
		defer close(ch)
		for _, r := range rows {
			select {
			case ch <- r:
			case <-copyCtx.Done():
				return
			}
		}
	}()

	n, err := tx.CopyFrom(copyCtx, pgx.Identifier{"qc", "metric_values"}, model.MetricColumns(), db.NewMetricSource(copyCtx, ch))
	if err != nil {
		return 0, fmt.Errorf("copy metric values: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit archive tx: %w", err)
	}
	a.log.Info().Str("run_id", meta.RunID).Str("file", meta.RawFile).Int64("metrics", n).Msg("archived metrics document")
	return n, nil
}

// Run is one archived processing run.
type Run struct {
	RunID       string
	RawFile     string
	ReportDir   string
	ProcessedAt time.Time
	Warnings    int
}

// LatestRuns returns up to limit runs, newest first.
func (a *Archive) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := a.pool.Query(ctx, embedsql.LatestRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.RawFile, &r.ReportDir, &r.ProcessedAt, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Point is one archived value of a metric.
type Point struct {
	RawFile     string
	ProcessedAt time.Time
	Value       string
	Numeric     *float64
}

// Series returns every archived value of one metric, oldest first.
func (a *Archive) Series(ctx context.Context, category, metricID string) ([]Point, error) {
	rows, err := a.pool.Query(ctx, embedsql.MetricSeries, category, metricID)
	if err != nil {
		return nil, fmt.Errorf("query metric series: %w", err)
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.RawFile, &p.ProcessedAt, &p.Value, &p.Numeric); err != nil {
			return nil, fmt.Errorf("scan metric value: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
