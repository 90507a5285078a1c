package history

import (
	"sort"

	"github.com/samber/lo"

	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/normalize"
)

// Select returns the rows of one metric, oldest processing date first.
// An empty category matches any category.
func Select(rows []model.MetricRow, category, metricID string) []model.MetricRow {
	out := lo.Filter(rows, func(r model.MetricRow, _ int) bool {
		return r.MetricID == metricID && (category == "" || r.Category == category)
	})
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := normalize.ParseDate(out[i].ProcessedAt), normalize.ParseDate(out[j].ProcessedAt)
		switch {
		case ti == nil && tj == nil:
			return out[i].Report < out[j].Report
		case ti == nil:
			return false
		case tj == nil:
			return true
		}
		return ti.Before(*tj)
	})
	return out
}
