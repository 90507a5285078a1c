package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/qcwatch/internal/archive"
	"github.com/gyeh/qcwatch/internal/config"
	"github.com/gyeh/qcwatch/internal/metrics"
	"github.com/gyeh/qcwatch/internal/status"
	"github.com/gyeh/qcwatch/internal/tools"
)

const report = `Ion Injection Times for IDs
   MS1 Median            12.50
   MS1 Maximum           50.00
   MS2 Median            40.00
`

const runLog = "Number of MS1 scans: 6349\nMS1 scans containing peaks: 4135\n"

type fakeArchiver struct {
	metas []archive.RunMeta
	err   error
}

func (f *fakeArchiver) Save(_ context.Context, meta archive.RunMeta, _ metrics.Document) (int64, error) {
	f.metas = append(f.metas, meta)
	return 1, f.err
}

type env struct {
	cfg      config.Config
	store    *status.Store
	archiver *fakeArchiver
	now      time.Time
}

// newEnv lays out an input dir, output dir, report root and a fake
// library-search tool that copies fixture outputs into the work dir.
func newEnv(t *testing.T, raws ...string) *env {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "work")
	cfg.ReportRoot = filepath.Join(root, "reports")
	cfg.StatusLog = filepath.Join(root, "status.log")
	fixtures := filepath.Join(root, "fixtures")
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, fixtures} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	for _, name := range raws {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, name), make([]byte, 2048), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(fixtures, "report.msqc"), []byte(report), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(fixtures, "run.RLOG"), []byte(runLog), 0644))

	cfg.Tools = []tools.Step{{
		Name:    "nist",
		Command: "sh",
		Args: []string{"-c",
			"test {basename} != bad && cp " + fixtures + "/report.msqc {workdir}/{workbase}_report.msqc && cp " +
				fixtures + "/run.RLOG {workdir}/{basename}.RLOG"},
		Rename: &tools.Rename{From: "{workdir}/{workbase}_report.msqc", To: "{workdir}/{basename}.msqc"},
	}}
	return &env{cfg: cfg, store: status.Open(cfg.StatusLog), archiver: &fakeArchiver{}, now: time.Now()}
}

func (e *env) pipeline(withArchive bool) *Pipeline {
	var a Archiver
	if withArchive {
		a = e.archiver
	}
	p := New(e.cfg, e.store, tools.NewRunner(zerolog.Nop()), metrics.NewBuilder(), a, zerolog.Nop())
	p.now = func() time.Time { return e.now }
	return p
}

func TestProcessFile_Success(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	p := e.pipeline(true)

	summary, err := p.ProcessFile(context.Background(), "sample.RAW")
	require.NoError(t, err)

	assert.Equal(t, ReportDir(e.cfg.ReportRoot, "sample", e.now), summary.ReportDir)
	assert.True(t, summary.Archived)
	assert.NotEmpty(t, summary.RawSHA256)
	assert.Contains(t, summary.DurationTools, "nist")
	assert.NoDirExists(t, summary.WorkDir)

	doc, err := metrics.ReadDocument(filepath.Join(summary.ReportDir, metrics.DocumentFile))
	require.NoError(t, err)
	assert.Equal(t, "12.50", doc.Categories["ms1"]["ms1-1"].Value)
	assert.Equal(t, "6349 (4135)", doc.Generic["ms1_spectra"])
	assert.Equal(t, "NA (NA)", doc.Generic["ms2_spectra"])
	assert.Equal(t, "0.0", doc.Generic["f_size"])
	assert.Greater(t, summary.Warnings, 0)

	require.Len(t, e.archiver.metas, 1)
	assert.Equal(t, summary.RunID, e.archiver.metas[0].RunID)
	assert.Equal(t, "sample.RAW", e.archiver.metas[0].RawFile)

	states, err := e.store.Load()
	require.NoError(t, err)
	assert.Equal(t, status.StateCompleted, states["sample.RAW"])
}

func TestProcessFile_ToolFailureLeavesRunning(t *testing.T) {
	e := newEnv(t, "bad.RAW")
	p := e.pipeline(false)

	_, err := p.ProcessFile(context.Background(), "bad.RAW")
	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "tool:nist", pe.Phase)
	assert.Equal(t, "bad.RAW", pe.File)

	var te *tools.ToolError
	assert.True(t, errors.As(err, &te))

	states, err := e.store.Load()
	require.NoError(t, err)
	assert.Equal(t, status.StateRunning, states["bad.RAW"])

	entries, err := os.ReadDir(e.cfg.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^bad_[0-9a-f]{8}_QC$`, entries[0].Name())
}

func TestProcessFile_ArchiveFailureIsNonFatal(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	e.archiver.err = errors.New("connection refused")
	p := e.pipeline(true)

	summary, err := p.ProcessFile(context.Background(), "sample.RAW")
	require.NoError(t, err)
	assert.False(t, summary.Archived)
	assert.FileExists(t, summary.DocumentPath)
}

func TestProcessFile_KeepWorkDir(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	e.cfg.KeepWorkDir = true
	p := e.pipeline(false)

	summary, err := p.ProcessFile(context.Background(), "sample.RAW")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(summary.WorkDir, "sample.msqc"))
}

func TestProcessFile_MissingInput(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipeline(false).ProcessFile(context.Background(), "ghost.RAW")

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "prepare", pe.Phase)
}

func TestProcessFile_CompletedFileRejected(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	require.NoError(t, e.store.Record("sample.RAW", status.StateCompleted))

	_, err := e.pipeline(false).ProcessFile(context.Background(), "sample.RAW")
	assert.ErrorIs(t, err, status.ErrStateRegression)
}

func TestScan_DirectoryFallbackContinuesAfterFailure(t *testing.T) {
	e := newEnv(t, "bad.RAW", "good.RAW", "notes.txt")
	p := e.pipeline(false)

	res, err := p.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.RAW", "good.RAW"}, res.Pending)
	assert.Len(t, res.Summaries, 1)
	assert.Len(t, res.Failures, 1)

	states, err := e.store.Load()
	require.NoError(t, err)
	assert.Equal(t, status.StateRunning, states["bad.RAW"])
	assert.Equal(t, status.StateCompleted, states["good.RAW"])

	// A second pass finds nothing new: running and completed are never retried.
	res, err = p.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Pending)
}

func TestScan_CopyLog(t *testing.T) {
	e := newEnv(t, "U87_10mg_B.raw", "110215_13.RAW")
	e.cfg.CopyLog = filepath.Join(t.TempDir(), "robocopy.log")
	require.NoError(t, os.WriteFile(e.cfg.CopyLog, []byte(
		"  Started : Thu Jan 19 11:08:10 2012\n"+
			"\t    New File  \t\t 211.2 m\tU87_10mg_B.raw\n"+
			"\t    New File  \t\t 198.0 m\t110215_13.RAW\n"+
			"  Monitor : Waiting for 1 minutes and 1 changes...\n"), 0644))
	require.NoError(t, e.store.Record("110215_13.RAW", status.StateCompleted))

	res, err := e.pipeline(false).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"U87_10mg_B.raw"}, res.Pending)
	require.Len(t, res.Summaries, 1)
	assert.Empty(t, res.Failures)
}

func TestDiscover_MissingCopyLog(t *testing.T) {
	e := newEnv(t)
	e.cfg.CopyLog = filepath.Join(t.TempDir(), "missing.log")

	_, err := e.pipeline(false).Discover()
	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "discover", pe.Phase)
}

func TestProcessPending_Cancelled(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summaries, failures := e.pipeline(false).ProcessPending(ctx, []string{"sample.RAW"})
	assert.Empty(t, summaries)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], context.Canceled)

	states, err := e.store.Load()
	require.NoError(t, err)
	assert.NotContains(t, states, "sample.RAW")
}

func TestCandidates_OnlyNewOrUnknown(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Record("done.RAW", status.StateCompleted))
	require.NoError(t, e.store.Record("stuck.RAW", status.StateRunning))
	require.NoError(t, e.store.Record("queued.RAW", status.StateNew))

	pending, skipped, err := e.pipeline(false).Candidates([]string{"done.RAW", "stuck.RAW", "queued.RAW", "fresh.RAW"})
	require.NoError(t, err)
	assert.Equal(t, []string{"queued.RAW", "fresh.RAW"}, pending)
	assert.Equal(t, []string{"done.RAW", "stuck.RAW"}, skipped)

	require.NoError(t, e.store.Reset("stuck.RAW"))
	pending, _, err = e.pipeline(false).Candidates([]string{"stuck.RAW"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stuck.RAW"}, pending)
}

func TestProcessPending_LogsToolOutput(t *testing.T) {
	e := newEnv(t, "sample.RAW")
	e.cfg.Tools = []tools.Step{{
		Name:    "nist",
		Command: "sh",
		Args:    []string{"-c", "echo 'reading spectra'; echo 'error: library not found' >&2; exit 3"},
	}}
	var buf bytes.Buffer
	p := e.pipeline(false)
	p.log = zerolog.New(&buf)

	_, failures := p.ProcessPending(context.Background(), []string{"sample.RAW"})
	require.Len(t, failures, 1)
	assert.Contains(t, buf.String(), `"output":"reading spectra\nerror: library not found"`)
}

func TestReportDir(t *testing.T) {
	got := ReportDir("/srv/reports", "U87_10mg_B", time.Date(2012, time.January, 19, 11, 8, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("/srv/reports", "2012", "Jan", "U87_10mg_B"), got)
}
