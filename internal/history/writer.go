package history

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/qcwatch/internal/model"
)

// Write stores rows as a Parquet file at path, replacing any existing file.
func Write(path string, rows []model.MetricRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}

	w := parquet.NewGenericWriter[model.MetricRow](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write history rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish history file: %w", err)
	}
	return f.Close()
}
