package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_run.sql
var InsertRun string

//go:embed queries/latest_runs.sql
var LatestRuns string

//go:embed queries/metric_series.sql
var MetricSeries string
