package metrics

import (
	"fmt"
	"regexp"
)

// AuxMissing fills a counter part that the auxiliary log did not report.
const AuxMissing = "NA"

// Counter reads a "<count> (<peaks>)" pair out of the auxiliary run log.
// A counter without a Peaks pattern yields the bare count.
type Counter struct {
	Key   string
	Count *regexp.Regexp
	Peaks *regexp.Regexp
}

// DefaultCounters returns the spectrum counters of the library-search run log.
func DefaultCounters() []Counter {
	return []Counter{
		{
			Key:   "ms1_spectra",
			Count: regexp.MustCompile(`Number of MS1 scans: ([0-9]+)`),
			Peaks: regexp.MustCompile(`MS1 scans containing peaks: ([0-9]+)`),
		},
		{
			Key:   "ms2_spectra",
			Count: regexp.MustCompile(`Number of MS2 scans: ([0-9]+)`),
			Peaks: regexp.MustCompile(`MS2 scans containing peaks: ([0-9]+)`),
		},
		{
			Key:   "maxIntensity",
			Count: regexp.MustCompile(`maxIntensity: ([a-zA-Z0-9.]+)`),
		},
	}
}

// AuxLogMetrics evaluates counters against the auxiliary log text. Every
// counter key is always present in the result.
func AuxLogMetrics(text string, counters []Counter) (map[string]string, []Warning) {
	out := make(map[string]string, len(counters))
	var warnings []Warning
	find := func(key, part string, re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		warnings = append(warnings, Warning{
			Kind: PatternMismatch, Metric: key,
			Detail: fmt.Sprintf("%s not found in run log", part),
		})
		return AuxMissing
	}
	for _, c := range counters {
		count := find(c.Key, "count", c.Count)
		if c.Peaks == nil {
			out[c.Key] = count
			continue
		}
		peaks := find(c.Key, "peaks", c.Peaks)
		out[c.Key] = fmt.Sprintf("%s (%s)", count, peaks)
	}
	return out, warnings
}

// AuxUnavailable returns every counter key filled with AuxMissing, for runs
// whose auxiliary log is absent.
func AuxUnavailable(counters []Counter) map[string]string {
	out := make(map[string]string, len(counters))
	for _, c := range counters {
		if c.Peaks == nil {
			out[c.Key] = AuxMissing
			continue
		}
		out[c.Key] = fmt.Sprintf("%s (%s)", AuxMissing, AuxMissing)
	}
	return out
}
