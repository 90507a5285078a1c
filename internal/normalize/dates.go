package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts of the "date" generic metric, newest first.
var dateFormats = []string{
	"2006/Jan/02 - 15:04",
	"2006/01/02 - 15:04",
}

// ParseDate parses the processing date recorded in a metrics document,
// falling back to dateparse for anything else. The result is in local time.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	if t, err := dateparse.ParseLocal(s); err == nil {
		return &t
	}
	return nil
}
