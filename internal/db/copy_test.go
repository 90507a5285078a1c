package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/qcwatch/internal/model"
)

func TestMetricSource_DrainsChannel(t *testing.T) {
	ch := make(chan *model.MetricRow, 2)
	ch <- &model.MetricRow{RunID: "r1", Category: "ms1", MetricID: "ms1-1", Value: "12.50"}
	ch <- &model.MetricRow{RunID: "r1", Category: "ms1", MetricID: "ms1-2a", Value: "N/A"}
	close(ch)

	src := NewMetricSource(context.Background(), ch)
	require.True(t, src.Next())
	vals, err := src.Values()
	require.NoError(t, err)
	assert.Len(t, vals, len(model.MetricColumns()))
	assert.Equal(t, "r1", vals[0])

	require.True(t, src.Next())
	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
	assert.Equal(t, 2, src.Rows())
}

func TestMetricSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewMetricSource(ctx, make(chan *model.MetricRow))
	assert.False(t, src.Next())
	assert.ErrorIs(t, src.Err(), context.Canceled)
	assert.Equal(t, 0, src.Rows())
}

func TestMetricSource_RowWithoutRunID(t *testing.T) {
	ch := make(chan *model.MetricRow, 1)
	ch <- &model.MetricRow{Category: "ms1", MetricID: "ms1-1"}
	close(ch)

	src := NewMetricSource(context.Background(), ch)
	assert.False(t, src.Next())
	assert.EqualError(t, src.Err(), "metric row 1 has no run id")
}
