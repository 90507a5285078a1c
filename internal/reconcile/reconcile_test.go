package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/qcwatch/internal/status"
)

func TestReconcile_AddsCopiedFiles(t *testing.T) {
	known := map[string]status.State{
		"110215_13.RAW": status.StateCompleted,
		"110308_02.RAW": status.StateCompleted,
	}
	copyLog := map[string]status.State{"U87_10mg_B.raw": status.StateNew}

	got := Reconcile(known, copyLog)
	assert.Equal(t, map[string]status.State{
		"110215_13.RAW":  status.StateCompleted,
		"110308_02.RAW":  status.StateCompleted,
		"U87_10mg_B.raw": status.StateNew,
	}, got)
	assert.Equal(t, []string{"U87_10mg_B.raw"}, Pending(got))
}

func TestReconcile_StatusWins(t *testing.T) {
	known := map[string]status.State{"a.RAW": status.StateRunning}
	copyLog := map[string]status.State{"a.RAW": status.StateNew}

	got := Reconcile(known, copyLog)
	assert.Equal(t, status.StateRunning, got["a.RAW"])
	assert.Empty(t, Pending(got))
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	known := map[string]status.State{"a.RAW": status.StateCompleted}
	copyLog := map[string]status.State{"b.RAW": status.StateNew}
	_ = Reconcile(known, copyLog)
	assert.Len(t, known, 1)
	assert.Len(t, copyLog, 1)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.RAW", "b.raw", "c.Raw", "notes.txt", "done.RAW"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.raw"), 0755))

	known := map[string]status.State{"done.RAW": status.StateCompleted}
	got, err := ScanDirectory(dir, nil, known)
	require.NoError(t, err)

	assert.Equal(t, map[string]status.State{
		"a.RAW":    status.StateNew,
		"b.raw":    status.StateNew,
		"c.Raw":    status.StateNew,
		"done.RAW": status.StateCompleted,
	}, got)
	assert.Equal(t, []string{"a.RAW", "b.raw", "c.Raw"}, Pending(got))
}

func TestScanDirectory_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.RAW", "b.mzXML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	got, err := ScanDirectory(dir, []string{".MZXML"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.mzXML"}, Pending(got))
}

func TestScanDirectory_MissingDir(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), nil, nil)
	assert.Error(t, err)
}
