package metrics

import (
	"fmt"
	"regexp"
)

// NotAvailable is recorded for a metric whose header or value was not found.
const NotAvailable = "N/A"

// NumericPattern captures a plain or scientific-notation number, optionally
// preceded by whitespace.
const NumericPattern = `\s*([+\-]?(?:0|[1-9]\d*)(?:\.\d*)?(?:[eE][+\-]?\d+)?)`

// MetricSpec locates one value in a report: find the first line starting with
// Header, move Offset lines down, and take the single capture group of Pattern.
type MetricSpec struct {
	ID          string
	Category    string
	Header      string
	Offset      int
	Pattern     *regexp.Regexp
	Description string
}

// Labeled builds a spec whose value is the number following label on the
// target line. The description becomes "Header (label)".
func Labeled(category, id, header string, offset int, label string) MetricSpec {
	return MetricSpec{
		ID:          id,
		Category:    category,
		Header:      header,
		Offset:      offset,
		Pattern:     regexp.MustCompile(regexp.QuoteMeta(label) + NumericPattern),
		Description: fmt.Sprintf("%s (%s)", header, label),
	}
}

// Validate checks the structural invariants of a spec.
func (s MetricSpec) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("metric spec: id is required")
	case s.Category == "":
		return fmt.Errorf("metric %s: category is required", s.ID)
	case s.Category == GenericCategory:
		return fmt.Errorf("metric %s: category %q is reserved", s.ID, GenericCategory)
	case s.Header == "":
		return fmt.Errorf("metric %s: header is required", s.ID)
	case s.Offset < 0:
		return fmt.Errorf("metric %s: offset must be >= 0, got %d", s.ID, s.Offset)
	case s.Pattern == nil:
		return fmt.Errorf("metric %s: pattern is required", s.ID)
	case s.Pattern.NumSubexp() != 1:
		return fmt.Errorf("metric %s: pattern must have exactly one capture group, has %d", s.ID, s.Pattern.NumSubexp())
	}
	return nil
}
