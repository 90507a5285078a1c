// Package history exports archived metrics documents to Parquet and reads
// them back for trend inspection.
package history

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/model"
	"github.com/gyeh/qcwatch/internal/normalize"
)

// Collect walks reportRoot for metrics documents and flattens each into
// rows. A row's Report is the document's directory relative to reportRoot.
// Documents that cannot be decoded are returned in skipped.
func Collect(reportRoot string) (rows []model.MetricRow, skipped []string, err error) {
	err = filepath.WalkDir(reportRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != metrics.DocumentFile {
			return nil
		}
		doc, err := metrics.ReadDocument(path)
		if err != nil {
			skipped = append(skipped, path)
			return nil
		}
		report, err := filepath.Rel(reportRoot, filepath.Dir(path))
		if err != nil {
			return err
		}
		for _, r := range normalize.ToMetricRows("", filepath.ToSlash(report), doc) {
			rows = append(rows, *r)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("collect metrics documents: %w", err)
	}
	return rows, skipped, nil
}
