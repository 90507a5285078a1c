package metrics

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal extraction problem.
type WarningKind string

const (
	MissingSource   WarningKind = "missing_source"
	MissingHeader   WarningKind = "missing_header"
	PatternMismatch WarningKind = "pattern_mismatch"
	AmbiguousHeader WarningKind = "ambiguous_header"
)

// Warning records a metric that could not be extracted cleanly. The affected
// metric still appears in the document, as NotAvailable if no value was found.
type Warning struct {
	Kind   WarningKind
	Metric string
	Detail string
}

func (w Warning) String() string {
	if w.Metric == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s %s: %s", w.Kind, w.Metric, w.Detail)
}

// SplitLines splits report text into lines, tolerating CRLF endings.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// headerIndex is the first line index of a header and how often it occurs.
type headerIndex struct {
	first int
	count int
}

func indexHeaders(table Table, lines []string) map[string]headerIndex {
	idx := make(map[string]headerIndex)
	for _, s := range table {
		if _, ok := idx[s.Header]; ok {
			continue
		}
		hi := headerIndex{first: -1}
		for i, line := range lines {
			if strings.HasPrefix(line, s.Header) {
				if hi.first < 0 {
					hi.first = i
				}
				hi.count++
			}
		}
		idx[s.Header] = hi
	}
	return idx
}

// Extract runs every spec in table against text. Each metric is resolved
// independently: a missing header or an unmatched target line yields
// NotAvailable and a warning, never an error.
func Extract(table Table, text string) (map[string]Category, []Warning) {
	lines := SplitLines(text)
	headers := indexHeaders(table, lines)

	out := make(map[string]Category)
	var warnings []Warning
	for _, s := range table {
		cat, ok := out[s.Category]
		if !ok {
			cat = make(Category)
			out[s.Category] = cat
		}

		value := NotAvailable
		hi := headers[s.Header]
		switch {
		case hi.first < 0:
			warnings = append(warnings, Warning{
				Kind: MissingHeader, Metric: s.ID,
				Detail: fmt.Sprintf("header %q not found", s.Header),
			})
		case hi.first+s.Offset >= len(lines):
			warnings = append(warnings, Warning{
				Kind: PatternMismatch, Metric: s.ID,
				Detail: fmt.Sprintf("line %d is past end of report", hi.first+s.Offset+1),
			})
		default:
			target := lines[hi.first+s.Offset]
			if m := s.Pattern.FindStringSubmatch(target); m != nil {
				value = m[1]
			} else {
				warnings = append(warnings, Warning{
					Kind: PatternMismatch, Metric: s.ID,
					Detail: fmt.Sprintf("no match on line %d: %q", hi.first+s.Offset+1, strings.TrimSpace(target)),
				})
			}
			if hi.count > 1 {
				warnings = append(warnings, Warning{
					Kind: AmbiguousHeader, Metric: s.ID,
					Detail: fmt.Sprintf("header %q occurs %d times, using line %d", s.Header, hi.count, hi.first+1),
				})
			}
		}
		cat[s.ID] = Value{Description: s.Description, Value: value}
	}
	return out, warnings
}

// Unavailable returns every metric of table set to NotAvailable, for runs
// whose report is absent.
func Unavailable(table Table) map[string]Category {
	out := make(map[string]Category)
	for _, s := range table {
		cat, ok := out[s.Category]
		if !ok {
			cat = make(Category)
			out[s.Category] = cat
		}
		cat[s.ID] = Value{Description: s.Description, Value: NotAvailable}
	}
	return out
}
