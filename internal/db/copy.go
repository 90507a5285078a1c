package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/qcwatch/internal/model"
)

// MetricSource feeds qc.metric_values COPY from a channel of flattened
// metric rows. It stops when the channel closes, ctx is done or a row lacks
// its run id; in the last two cases Err reports the cause.
type MetricSource struct {
	ctx     context.Context
	ch      <-chan *model.MetricRow
	current *model.MetricRow
	count   int
	err     error
}

// NewMetricSource creates a MetricSource reading from ch until ctx is done.
func NewMetricSource(ctx context.Context, ch <-chan *model.MetricRow) *MetricSource {
	return &MetricSource{ctx: ctx, ch: ch}
}

func (s *MetricSource) Next() bool {
	if s.err != nil {
		return false
	}
	select {
	case row, ok := <-s.ch:
		if !ok {
			return false
		}
		if row == nil || row.RunID == "" {
			s.err = fmt.Errorf("metric row %d has no run id", s.count+1)
			return false
		}
		s.current = row
		s.count++
		return true
	case <-s.ctx.Done():
		s.err = fmt.Errorf("metric stream interrupted after %d rows: %w", s.count, s.ctx.Err())
		return false
	}
}

func (s *MetricSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

func (s *MetricSource) Err() error {
	return s.err
}

// Rows returns how many rows have been handed to COPY so far.
func (s *MetricSource) Rows() int {
	return s.count
}

var _ pgx.CopyFromSource = (*MetricSource)(nil)
