package history

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// requiredColumns must be present in every history file.
var requiredColumns = []string{"report", "category", "metric_id", "value"}

// ValidateSchema checks that the Parquet schema carries the metric columns.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not a metrics history file; missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
