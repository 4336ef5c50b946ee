package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// ProcessRunner measures each task in a fresh child process so that no
// candidate shares a heap with another. The child is expected to print a
// single JSON Result on stdout; the flatbench binary does this for its
// measure subcommand.
type ProcessRunner struct {
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// NewProcessRunner creates a ProcessRunner. An empty binaryPath means the
// currently running executable. Env is appended to the inherited
// environment.
func NewProcessRunner(
	binaryPath string,
	extraArgs, env []string,
	timeout time.Duration,
	logger *slog.Logger,
) (*ProcessRunner, error) {
	if binaryPath == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}

		binaryPath = self
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ProcessRunner{
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Env:        env,
		Timeout:    timeout,
		Logger:     logger.With(slog.String("binary", binaryPath)),
	}, nil
}

// Args returns the child command line for task, excluding the binary.
func (r *ProcessRunner) Args(task Task) []string {
	args := make([]string, 0, len(r.ExtraArgs)+7)
	args = append(args, r.ExtraArgs...)
	args = append(args,
		"measure",
		"--suite", task.Suite,
		"--candidate", task.Candidate.Name,
		"--players", strconv.Itoa(task.NumPlayers),
	)

	return args
}

// MeasureTask runs the child for task and parses its Result. The child
// generates its own document, so task.Doc is not used.
func (r *ProcessRunner) MeasureTask(ctx context.Context, task Task) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, r.Args(task)...)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.DebugContext(ctx, "starting child",
		slog.String("candidate", task.Candidate.Name),
		slog.Int("players", task.NumPlayers),
	)

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf(
			"measure %s in child: %w\nstderr: %s",
			task.Candidate.Name, err, stderr.String(),
		)
	}

	result, err := parseResult(task.Candidate.Name, &stdout)
	if err != nil {
		return Result{}, fmt.Errorf(
			"parse %s output: %w\nstdout: %s",
			task.Candidate.Name, err, stdout.String(),
		)
	}

	if result.Suite == "" {
		result.Suite = task.Suite
	}

	if result.InputSize == 0 {
		result.InputSize = task.NumPlayers
	}

	return *result, nil
}

func parseResult(function string, r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if result.Function == "" {
		result.Function = function
	}

	if result.ElapsedSeconds < 0 || result.PeakMemoryMB < 0 {
		return nil, fmt.Errorf("negative measurement in %+v", result)
	}

	return &result, nil
}

// WriteResult encodes r as the single JSON document a child prints.
func WriteResult(w io.Writer, r Result) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}
