package metrics

import (
	"fmt"
	"os"
	"time"
)

// GenericCategory is the document key holding file-level scalar metrics.
const GenericCategory = "generic"

// DateLayout is the processing timestamp format of the "date" metric.
const DateLayout = "2006/Jan/02 - 15:04"

const mebibyte = 1024 * 1024

// GenericMetrics computes the file-level metrics for the input at path:
// f_size in MiB, runtime since start, and the local processing date.
func GenericMetrics(path string, start, now time.Time) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input file: %w", err)
	}
	return map[string]string{
		"f_size":  fmt.Sprintf("%.1f", float64(info.Size())/mebibyte),
		"runtime": FormatRuntime(now.Sub(start)),
		"date":    now.Local().Format(DateLayout),
	}, nil
}

// FormatRuntime renders d rounded to whole seconds as H:MM:SS, prefixed by
// "N day(s), " when it spans more than a day.
func FormatRuntime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	days := secs / 86400
	secs %= 86400
	hms := fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	switch days {
	case 0:
		return hms
	case 1:
		return "1 day, " + hms
	default:
		return fmt.Sprintf("%d days, %s", days, hms)
	}
}
