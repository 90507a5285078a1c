package metrics

import (
	"strings"
)

// QuaMeterCategory holds the id-free metrics of the alternate tool.
const QuaMeterCategory = "quameter"

// QuaMeterMetrics parses the tab-separated id-free output: a header row and a
// value row. Each column becomes a metric keyed by its header. The Filename
// column is dropped.
func QuaMeterMetrics(text string) (Category, []Warning) {
	var rows [][]string
	for _, line := range SplitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if len(rows) < 2 {
		return Category{}, []Warning{{
			Kind: PatternMismatch, Metric: QuaMeterCategory,
			Detail: "expected a header row and a value row",
		}}
	}

	header, values := rows[0], rows[1]
	cat := make(Category, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" || h == "Filename" {
			continue
		}
		v := NotAvailable
		if i < len(values) && strings.TrimSpace(values[i]) != "" {
			v = strings.TrimSpace(values[i])
		}
		cat[h] = Value{Description: h, Value: v}
	}
	return cat, nil
}
