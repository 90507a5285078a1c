package metrics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sources names the inputs of one metrics document. Empty paths are skipped.
type Sources struct {
	RawFile  string
	Report   string
	AuxLog   string
	QuaMeter string
	Start    time.Time
}

// SourcesIn returns the conventional source paths for rawFile inside dir:
// <base>.msqc, <base>.RLOG and <base>_quametermetrics.tsv.
func SourcesIn(dir, rawFile string, start time.Time) Sources {
	base := strings.TrimSuffix(filepath.Base(rawFile), filepath.Ext(rawFile))
	stem := filepath.Join(dir, base)
	return Sources{
		RawFile:  rawFile,
		Report:   stem + ".msqc",
		AuxLog:   stem + ".RLOG",
		QuaMeter: stem + "_quametermetrics.tsv",
		Start:    start,
	}
}

// Builder turns source files into a document.
type Builder struct {
	Table    Table
	Counters []Counter
	Now      func() time.Time
}

// NewBuilder returns a builder with the default table and counters.
func NewBuilder() *Builder {
	return &Builder{Table: DefaultTable(), Counters: DefaultCounters(), Now: time.Now}
}

// Build assembles the document for src. A missing report, auxiliary log or
// QuaMeter file is a MissingSource warning and its metrics are recorded as
// unavailable; only an unreadable raw file fails.
func (b *Builder) Build(src Sources) (Document, []Warning, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	generic, err := GenericMetrics(src.RawFile, src.Start, now())
	if err != nil {
		return Document{}, nil, err
	}

	var warnings []Warning
	var main map[string]Category
	if text, ok, err := readSource(src.Report); err != nil {
		return Document{}, nil, err
	} else if ok {
		var w []Warning
		main, w = Extract(b.Table, text)
		warnings = append(warnings, w...)
	} else {
		main = Unavailable(b.Table)
		if src.Report != "" {
			warnings = append(warnings, missing(src.Report))
		}
	}

	var aux map[string]string
	if text, ok, err := readSource(src.AuxLog); err != nil {
		return Document{}, nil, err
	} else if ok {
		var w []Warning
		aux, w = AuxLogMetrics(text, b.Counters)
		warnings = append(warnings, w...)
	} else {
		aux = AuxUnavailable(b.Counters)
		if src.AuxLog != "" {
			warnings = append(warnings, missing(src.AuxLog))
		}
	}

	var extra []map[string]Category
	if text, ok, err := readSource(src.QuaMeter); err != nil {
		return Document{}, nil, err
	} else if ok {
		cat, w := QuaMeterMetrics(text)
		warnings = append(warnings, w...)
		if len(cat) > 0 {
			extra = append(extra, map[string]Category{QuaMeterCategory: cat})
		}
	} else if src.QuaMeter != "" {
		warnings = append(warnings, missing(src.QuaMeter))
	}

	return Assemble(generic, main, aux, extra...), warnings, nil
}

func missing(path string) Warning {
	return Warning{Kind: MissingSource, Detail: fmt.Sprintf("%s does not exist", filepath.Base(path))}
}

// readSource returns ok=false for an empty or nonexistent path.
func readSource(path string) (string, bool, error) {
	if path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), true, nil
}
