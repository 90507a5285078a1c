package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/qcwatch/internal/normalize"
)

// PrepareResult holds the context resolved during the prepare phase.
type PrepareResult struct {
	// Name is the raw file name as listed in the status log.
	Name string
	// BaseName is Name without its extension.
	BaseName string
	// Source is the raw file in the input directory.
	Source string
	// RunID uniquely identifies this processing attempt.
	RunID uuid.UUID
	// WorkDir is <output>/<basename>_<run8>_QC, private to this run.
	WorkDir string
	// Input is the copy of the raw file inside WorkDir the tools read.
	Input string
	// SHA256 is the hex digest of the raw file, computed only when requested.
	SHA256 string
	// CopyDuration is how long copying the raw file took.
	CopyDuration time.Duration
}

// Prepare creates the run's work dir and copies the raw file into it.
func Prepare(log zerolog.Logger, inputDir, outputDir, name string, hash bool) (*PrepareResult, error) {
	src := filepath.Join(inputDir, name)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("prepare stat: %w", err)
	}

	runID := uuid.New()
	base := strings.TrimSuffix(name, filepath.Ext(name))
	workDir := filepath.Join(outputDir, fmt.Sprintf("%s_%s_QC", base, runID.String()[:8]))
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}

	start := time.Now()
	input := filepath.Join(workDir, name)
	if err := copyFile(src, input); err != nil {
		return nil, fmt.Errorf("prepare copy: %w", err)
	}
	copyDur := time.Since(start)

	var sha string
	if hash {
		var err error
		if sha, err = normalize.FileHash(input); err != nil {
			return nil, fmt.Errorf("prepare hash: %w", err)
		}
	}

	log.Info().
		Str("file", name).
		Str("run_id", runID.String()).
		Str("work_dir", workDir).
		Dur("duration", copyDur).
		Msg("prepare complete")

	return &PrepareResult{
		Name:         name,
		BaseName:     base,
		Source:       src,
		RunID:        runID,
		WorkDir:      workDir,
		Input:        input,
		SHA256:       sha,
		CopyDuration: copyDur,
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReportDir returns <root>/<YYYY>/<Mon>/<basename> for a run started at t.
func ReportDir(root, baseName string, t time.Time) string {
	return filepath.Join(root, t.Format("2006"), t.Format("Jan"), baseName)
}
