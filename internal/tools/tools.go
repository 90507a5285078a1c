// Package tools runs the external analysis programs of a QC run.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a step that does not set its own timeout.
const DefaultTimeout = 2 * time.Hour

// Rename moves a tool output to its expected name after the tool succeeds.
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Step is one external program invocation. Command, Args, Dir and the
// Rename paths may contain placeholders such as {input} or {workdir}.
type Step struct {
	Name     string        `yaml:"name"`
	Command  string        `yaml:"command"`
	Args     []string      `yaml:"args"`
	Dir      string        `yaml:"dir"`
	Timeout  time.Duration `yaml:"timeout"`
	Disabled bool          `yaml:"disabled"`
	Rename   *Rename       `yaml:"rename"`
}

// Vars are the placeholder values of one run.
type Vars struct {
	Input     string
	WorkDir   string
	WorkBase  string
	ReportDir string
	BaseName  string
	Home      string
}

func (v Vars) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{input}", v.Input,
		"{workdir}", v.WorkDir,
		"{workbase}", v.WorkBase,
		"{reportdir}", v.ReportDir,
		"{basename}", v.BaseName,
		"{home}", v.Home,
	)
}

// Expand substitutes every placeholder in s.
func (v Vars) Expand(s string) string {
	return v.replacer().Replace(s)
}

// ToolError reports a failed tool invocation.
type ToolError struct {
	Tool     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("tool %s exited with code %d: %v", e.Tool, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// OutputTail returns the last n lines of the captured output.
func (e *ToolError) OutputTail(n int) string {
	lines := strings.Split(strings.TrimRight(e.Output, "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Result describes a successful invocation.
type Result struct {
	Tool     string
	Output   string
	Duration time.Duration
}

// Runner executes steps.
type Runner struct {
	Log zerolog.Logger
}

// NewRunner creates a Runner that logs through log.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{Log: log}
}

// Run executes step with vars and blocks until it exits or ctx is done.
// Any failure is returned as a *ToolError.
func (r *Runner) Run(ctx context.Context, step Step, vars Vars) (*Result, error) {
	if step.Command == "" {
		return nil, &ToolError{Tool: step.Name, Err: errors.New("command is required")}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rep := vars.replacer()
	args := make([]string, len(step.Args))
	for i, a := range step.Args {
		args[i] = rep.Replace(a)
	}

	cmd := exec.CommandContext(ctx, rep.Replace(step.Command), args...)
	if step.Dir != "" {
		cmd.Dir = rep.Replace(step.Dir)
	}

	r.Log.Info().Str("tool", step.Name).Str("command", cmd.String()).Msg("running tool")
	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		te := &ToolError{Tool: step.Name, Output: string(output), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			te.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			te.Err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return nil, te
	}

	if step.Rename != nil {
		from, to := rep.Replace(step.Rename.From), rep.Replace(step.Rename.To)
		if err := os.Rename(from, to); err != nil {
			return nil, &ToolError{Tool: step.Name, Output: string(output), Err: fmt.Errorf("rename output: %w", err)}
		}
	}

	r.Log.Info().Str("tool", step.Name).Dur("elapsed", elapsed).Msg("tool finished")
	return &Result{Tool: step.Name, Output: string(output), Duration: elapsed}, nil
}

// Enabled returns the steps that are not disabled, in order.
func Enabled(steps []Step) []Step {
	var out []Step
	for _, s := range steps {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}

// DefaultSteps returns the library-search, graphics and id-free steps of a
// standard installation rooted at {home}.
func DefaultSteps() []Step {
	return []Step{
		{
			Name:     "msconvert",
			Command:  filepath.Join("{home}", "NISTMSQCv1_2_0", "converter", "msconvert.exe"),
			Args:     []string{"{input}", "-o", "{workdir}", "--mzXML", "-e", ".RAW.mzXML", "--32", "--filter", "peakPicking true 1"},
			Disabled: true,
		},
		{
			Name:    "nist",
			Command: "perl",
			Args: []string{
				filepath.Join("{home}", "NISTMSQCv1_2_0", "scripts", "run_NISTMSQC_pipeline.pl"),
				"--in_dir", "{workdir}",
				"--out_dir", "{workdir}",
				"--library", "Jurkat28new0.999",
				"--instrument_type", "Orbi_HCD",
				"--search_engine", "SpectraST",
				"--fasta", filepath.Join("{home}", "NISTMSQCv1_2_0", "libs", "Jurkat28new0.999.fasta"),
				"--overwrite_searches",
				"--pro_ms",
				"--log_file",
				"--mode", "full",
				"--updated_converter",
			},
			Rename: &Rename{
				From: filepath.Join("{workdir}", "{workbase}_report.msqc"),
				To:   filepath.Join("{workdir}", "{basename}.msqc"),
			},
		},
		{
			Name:    "oplreader",
			Command: "java",
			Args:    []string{"-jar", filepath.Join("{home}", "oplreader.jar"), "{workdir}", "{basename}", "{reportdir}"},
		},
		{
			Name:    "quameter",
			Command: filepath.Join("{home}", "quameter", "quameter.exe"),
			Args: []string{
				"{input}",
				"-MetricsType", "idfree",
				"-OutputFilepath", filepath.Join("{workdir}", "{basename}_quametermetrics.tsv"),
				"-cpus", "1",
			},
		},
	}
}
