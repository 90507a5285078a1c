package normalize

import (
	"sort"

	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/model"
)

// ToMetricRows flattens doc into one row per metric, generic scalars first,
// then categories and ids in sorted order.
func ToMetricRows(runID, report string, doc metrics.Document) []*model.MetricRow {
	processedAt := doc.Generic["date"]

	var rows []*model.MetricRow
	keys := make([]string, 0, len(doc.Generic))
	for k := range doc.Generic {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := doc.Generic[k]
		rows = append(rows, &model.MetricRow{
			RunID:       runID,
			Report:      report,
			ProcessedAt: processedAt,
			Category:    metrics.GenericCategory,
			MetricID:    k,
			Description: k,
			Value:       v,
			Numeric:     ParseNumeric(v),
		})
	}

	for _, cat := range doc.CategoryNames() {
		values := doc.Categories[cat]
		ids := make([]string, 0, len(values))
		for id := range values {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			v := values[id]
			rows = append(rows, &model.MetricRow{
				RunID:       runID,
				Report:      report,
				ProcessedAt: processedAt,
				Category:    cat,
				MetricID:    id,
				Description: v.Description,
				Value:       v.Value,
				Numeric:     ParseNumeric(v.Value),
			})
		}
	}
	return rows
}
