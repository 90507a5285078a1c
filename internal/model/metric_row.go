package model

// MetricRow is one metric of one processed file, flattened for the archive
// COPY stream and the parquet history export.
type MetricRow struct {
	RunID       string   `parquet:"run_id"`
	Report      string   `parquet:"report"`
	ProcessedAt string   `parquet:"processed_at"`
	Category    string   `parquet:"category"`
	MetricID    string   `parquet:"metric_id"`
	Description string   `parquet:"description"`
	Value       string   `parquet:"value"`
	Numeric     *float64 `parquet:"numeric,optional"`
}

// MetricColumns returns the ordered column names for COPY into qc.metric_values.
func MetricColumns() []string {
	return []string{
		"run_id",
		"category",
		"metric_id",
		"description",
		"value",
		"numeric_value",
	}
}

// CopyValues returns the row values in the same order as MetricColumns(),
// suitable for pgx CopyFromSource.
func (r *MetricRow) CopyValues() []any {
	return []any{
		r.RunID,
		r.Category,
		r.MetricID,
		r.Description,
		r.Value,
		r.Numeric,
	}
}
