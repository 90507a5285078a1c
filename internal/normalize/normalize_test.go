package normalize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/qcwatch/internal/metrics"
)

func TestParseNumeric(t *testing.T) {
	cases := map[string]*float64{
		"0.1460":      ptr(0.146),
		" -1.5 ":      ptr(-1.5),
		"3.2e-1":      ptr(0.32),
		"N/A":         nil,
		"":            nil,
		"NaN":         nil,
		"+Inf":        nil,
		"6349 (4135)": nil,
	}
	for in, want := range cases {
		got := ParseNumeric(in)
		if want == nil {
			assert.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		assert.InDelta(t, *want, *got, 1e-9, in)
	}
}

func TestParseDate(t *testing.T) {
	got := ParseDate("2012/Jan/19 - 11:08")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2012, time.January, 19, 11, 8, 0, 0, time.Local), *got)

	got = ParseDate("2012-01-19 11:08:10")
	require.NotNil(t, got)
	assert.Equal(t, 2012, got.Year())

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("not a date"))
}

func TestToMetricRows(t *testing.T) {
	doc := metrics.Assemble(
		map[string]string{"f_size": "97.8", "date": "2012/Jan/19 - 11:08"},
		map[string]metrics.Category{
			"ms2": {"ms2-1": {Description: "MS2 Median", Value: "40.00"}},
			"ms1": {
				"ms1-1":  {Description: "MS1 Median", Value: "12.50"},
				"ms1-2a": {Description: "S/N Median", Value: "N/A"},
			},
		},
		nil,
	)

	rows := ToMetricRows("run-1", "sample", doc)
	require.Len(t, rows, 5)

	var ids []string
	for _, r := range rows {
		ids = append(ids, r.Category+"/"+r.MetricID)
		assert.Equal(t, "run-1", r.RunID)
		assert.Equal(t, "sample", r.Report)
		assert.Equal(t, "2012/Jan/19 - 11:08", r.ProcessedAt)
	}
	assert.Equal(t, []string{"generic/date", "generic/f_size", "ms1/ms1-1", "ms1/ms1-2a", "ms2/ms2-1"}, ids)
	assert.Nil(t, rows[3].Numeric)
	require.NotNil(t, rows[2].Numeric)
	assert.InDelta(t, 12.5, *rows[2].Numeric, 1e-9)
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.RAW")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	got, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = FileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func ptr(v float64) *float64 { return &v }
