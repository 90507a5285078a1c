package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFile_MergesOverDefaults(t *testing.T) {
	input := t.TempDir()
	path := writeFile(t, `
input_dir: `+input+`
report_root: /srv/qc/reports
copy_log: /var/log/robocopy.log
poll_interval: 30s
requeue_stale_after: 12h
markers:
  end: Waiting
tools:
  - name: nist
    command: perl
    args: ["{home}/run.pl", "--in_dir", "{workdir}"]
    timeout: 90m
archive:
  dsn: postgres://qc@localhost/qc
  auto_migrate: true
`)

	c := Default()
	require.NoError(t, c.LoadFromFile(path))

	assert.Equal(t, input, c.InputDir)
	assert.Equal(t, "/srv/qc/reports", c.ReportRoot)
	assert.Equal(t, 30*time.Second, c.PollInterval)
	assert.Equal(t, 12*time.Hour, c.RequeueStaleAfter)
	assert.Equal(t, "Started", c.Markers.Start)
	assert.Equal(t, "Waiting", c.Markers.End)
	assert.Equal(t, "New File", c.Markers.NewFile)
	assert.Equal(t, "robocopy*", c.CopyLogPattern)
	require.Len(t, c.Tools, 1)
	assert.Equal(t, 90*time.Minute, c.Tools[0].Timeout)
	assert.True(t, c.Archive.AutoMigrate)
	assert.NoError(t, c.Validate())
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	assert.Error(t, c.LoadFromFile("/nonexistent/config.yaml"))
}

func TestLoadFromFile_BadYAML(t *testing.T) {
	c := Default()
	assert.Error(t, c.LoadFromFile(writeFile(t, "poll_interval: [not a duration\n")))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.InputDir = t.TempDir()
		return c
	}

	c := valid()
	require.NoError(t, c.Validate())

	c = valid()
	c.InputDir = ""
	assert.ErrorContains(t, c.Validate(), "input_dir")

	c = valid()
	c.InputDir = filepath.Join(t.TempDir(), "missing")
	assert.Error(t, c.Validate())

	c = valid()
	c.Markers.NewFile = ""
	assert.ErrorContains(t, c.Validate(), "markers")

	c = valid()
	c.CopyLogPattern = "[unterminated"
	assert.Error(t, c.Validate())

	c = valid()
	c.PollInterval = -time.Second
	assert.Error(t, c.Validate())

	c = valid()
	c.Tools = append(c.Tools, c.Tools[0])
	assert.ErrorContains(t, c.Validate(), "duplicate")
}

func TestApplyEnvAndDSN(t *testing.T) {
	t.Setenv(EnvArchiveDSN, "postgres://env")

	c := Default()
	assert.Error(t, c.ValidateWithDSN())
	c.ApplyEnv()
	assert.Equal(t, "postgres://env", c.Archive.DSN)
	assert.NoError(t, c.ValidateWithDSN())

	c.Archive.DSN = "postgres://file"
	c.ApplyEnv()
	assert.Equal(t, "postgres://file", c.Archive.DSN)
}

func TestLoadTable(t *testing.T) {
	c := Default()
	table, err := c.LoadTable()
	require.NoError(t, err)
	assert.Len(t, table, 38)

	c.MetricTable = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = c.LoadTable()
	assert.Error(t, err)
}
