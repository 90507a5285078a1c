package metrics

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Table is an ordered set of metric specs with unique ids.
type Table []MetricSpec

// NewTable validates specs and returns them as a Table.
func NewTable(specs ...MetricSpec) (Table, error) {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate metric id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return Table(specs), nil
}

// Categories returns the distinct categories in table order.
func (t Table) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, s := range t {
		if !seen[s.Category] {
			seen[s.Category] = true
			cats = append(cats, s.Category)
		}
	}
	return cats
}

// Lookup returns the spec with the given id.
func (t Table) Lookup(id string) (MetricSpec, bool) {
	for _, s := range t {
		if s.ID == id {
			return s, true
		}
	}
	return MetricSpec{}, false
}

// DefaultTable returns the metric table for the NIST MSQC library-search
// report (*.msqc).
func DefaultTable() Table {
	t, err := NewTable(
		// MS1
		Labeled("ms1", "ms1-1", "Ion Injection Times for IDs", 1, "MS1 Median"),
		Labeled("ms1", "ms1-2a", "MS1 During Middle", 1, "S/N Median"),
		Labeled("ms1", "ms1-2b", "MS1 During Middle", 2, "TIC Medi/10000"),
		Labeled("ms1", "ms1-3a", "MS1 ID Max", 6, "95/5 MidRT"),
		Labeled("ms1", "ms1-3b", "MS1 ID Max", 1, "Median"),
		Labeled("ms1", "ms1-5a", "Precursor m/z - Peptide Ion m/z", 2, "Median"),
		Labeled("ms1", "ms1-5b", "Precursor m/z - Peptide Ion m/z", 3, "Mean Absolute"),
		Labeled("ms1", "ms1-5c", "Precursor m/z - Peptide Ion m/z", 4, "ppm Median"),
		Labeled("ms1", "ms1-5d", "Precursor m/z - Peptide Ion m/z", 5, "ppm InterQ"),

		// MS2
		Labeled("ms2", "ms2-1", "Ion Injection Times for IDs", 3, "MS2 Median"),
		Labeled("ms2", "ms2-2", "MS2 ID Spectra", 3, "S/N Median"),
		Labeled("ms2", "ms2-3", "MS2 ID Spectra", 1, "NPeaks Median"),

		// Peptide identification
		Labeled("pep", "p-1", "MS2 ID Spectra", 5, "ID Score Median"),
		Labeled("pep", "p-2a", "Tryptic Peptide Counts", 3, "Identifications"),
		Labeled("pep", "p-2b", "Tryptic Peptide Counts", 2, "Ions"),
		Labeled("pep", "p-2c", "Tryptic Peptide Counts", 1, "Peptides"),
		// "Peptide Counts" recurs in the report; the first section wins.
		Labeled("pep", "p-3", "Peptide Counts", 5, "Semi/Tryp Peps"),

		// Chromatography
		Labeled("chrom", "c-1a", "Fraction of Repeat Peptide IDs with Divergent", 1, "- 4 min"),
		Labeled("chrom", "c-1b", "Fraction of Repeat Peptide IDs with Divergent", 2, "+ 4 min"),
		Labeled("chrom", "c-2a", "Middle Peptide Retention Time Period", 1, "Half Period"),
		Labeled("chrom", "c-2b", "Middle Peptide Retention Time Period", 7, "Pep ID Rate"),
		Labeled("chrom", "c-3a", "Peak Width at Half Height", 1, "Median Value"),
		Labeled("chrom", "c-3b", "Peak Width at Half height for IDs", 5, "Median Disper"),
		Labeled("chrom", "c-4a", "Peak Widths at Half Max over", 1, "First Decile"),
		Labeled("chrom", "c-4b", "Peak Widths at Half Max over", 3, "Last Decile"),
		Labeled("chrom", "c-4c", "Peak Widths at Half Max over", 2, "Median Value"),

		// Ion source
		Labeled("ion", "is-1a", "MS1 During Middle", 20, "MS1 Jumps >10x"),
		Labeled("ion", "is-1b", "MS1 During Middle", 21, "MS1 Falls <.1x"),
		Labeled("ion", "is-2", "Precursor m/z for IDs", 1, "Median"),
		Labeled("ion", "is-3a", "Ion IDs by Charge State", 2, "Charge +1"),
		Labeled("ion", "is-3b", "Ion IDs by Charge State", 4, "Charge +3"),
		Labeled("ion", "is-3c", "Ion IDs by Charge State", 5, "Charge +4"),

		// Dynamic sampling
		Labeled("dyn", "ds-1a", "Ratios of Peptide Ions IDed", 1, "Once/Twice"),
		Labeled("dyn", "ds-1b", "Ratios of Peptide Ions IDed", 2, "Twice/Thrice"),
		Labeled("dyn", "ds-2a", "Middle Peptide Retention Time Period", 6, "MS1 Scans"),
		Labeled("dyn", "ds-2b", "Middle Peptide Retention Time Period", 5, "MS2 scans"),
		Labeled("dyn", "ds-3a", "MS1max/MS1sampled Abundance", 1, "Median All IDs"),
		Labeled("dyn", "ds-3b", "MS1max/MS1sampled Abundance", 7, "Med Bottom 1/2"),
	)
	if err != nil {
		panic(err)
	}
	return t
}

// tableFile is the on-disk YAML structure of a metric table.
type tableFile struct {
	Metrics []struct {
		ID          string `yaml:"id"`
		Category    string `yaml:"category"`
		Header      string `yaml:"header"`
		Offset      int    `yaml:"offset"`
		Label       string `yaml:"label"`
		Pattern     string `yaml:"pattern"`
		Description string `yaml:"description"`
	} `yaml:"metrics"`
}

// LoadTableFile reads a metric table from YAML. Each entry names either a
// label (number after a literal label) or an explicit pattern with one
// capture group.
func LoadTableFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metric table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse metric table: %w", err)
	}
	if len(tf.Metrics) == 0 {
		return nil, fmt.Errorf("metric table %s defines no metrics", path)
	}

	specs := make([]MetricSpec, 0, len(tf.Metrics))
	for i, m := range tf.Metrics {
		switch {
		case m.Pattern != "":
			re, err := regexp.Compile(m.Pattern)
			if err != nil {
				return nil, fmt.Errorf("metric %d (%s): compile pattern: %w", i, m.ID, err)
			}
			desc := m.Description
			if desc == "" {
				desc = m.Header
			}
			specs = append(specs, MetricSpec{
				ID: m.ID, Category: m.Category, Header: m.Header, Offset: m.Offset,
				Pattern: re, Description: desc,
			})
		case m.Label != "":
			s := Labeled(m.Category, m.ID, m.Header, m.Offset, m.Label)
			if m.Description != "" {
				s.Description = m.Description
			}
			specs = append(specs, s)
		default:
			return nil, fmt.Errorf("metric %d (%s): label or pattern is required", i, m.ID)
		}
	}
	return NewTable(specs...)
}
