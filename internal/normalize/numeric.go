package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric converts an extracted metric value to a nullable float64.
// Returns nil for sentinels such as "N/A", for non-numeric text, and for
// NaN or infinite values.
func ParseNumeric(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
