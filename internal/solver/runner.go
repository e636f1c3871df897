package solver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// InputFileName is the fixed name of the solver input file. Both programs
// read it from their working directory after receiving the literal token
// "input\n" on standard input; we always supply both channels, whichever
// one the specific binary actually consumes.
const InputFileName = "input"

// stdinToken is the continuation token written to the child's stdin.
const stdinToken = "input\n"

// RunResult is the raw outcome of a successful solver invocation, kept
// for diagnostics.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner manages the lifecycle of one external solver process: it writes
// the rendered input into the working directory, launches the program,
// blocks until completion and classifies the result.
type Runner struct {
	// Program is the executable name, resolved against PATH.
	Program string

	// Dir is the working directory; created if missing. The input file is
	// written here and the solver leaves its outputs here.
	Dir string

	// Force overwrites an existing input file instead of failing.
	Force bool
}

// Run invokes the program with the given rendered input. The wait has no
// timeout; it is bounded only by ctx. On cancellation the child receives
// SIGTERM, is reaped, and ErrInterrupted is returned; a partial result is
// never treated as valid.
//
// Error classification, in order: unresolvable executable (before any
// file is written), cancellation, non-zero exit state, the literal string
// 'error' (case-insensitive) in standard output. Output on stderr alone is
// logged, not fatal.
func (r *Runner) Run(ctx context.Context, input []byte) (*RunResult, error) {
	program, err := exec.LookPath(r.Program)
	if err != nil {
		return nil, &ConfigError{Program: r.Program, Err: err}
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create solver run directory: %w", err)
	}

	inputPath := filepath.Join(r.Dir, InputFileName)
	if !r.Force {
		if _, err := os.Stat(inputPath); err == nil {
			return nil, fmt.Errorf("input file already exists: %s", inputPath)
		}
	}
	if err := os.WriteFile(inputPath, input, 0o644); err != nil {
		return nil, fmt.Errorf("write solver input: %w", err)
	}

	slog.Debug("invoking solver", "program", r.Program, "dir", r.Dir)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, program)
	cmd.Dir = r.Dir
	cmd.Stdin = bytes.NewReader([]byte(stdinToken))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Terminate, don't kill: give the solver a chance to flush before the
	// hard kill after WaitDelay.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	runErr := cmd.Run()

	if ctx.Err() != nil {
		slog.Info("solver interrupted", "program", r.Program)
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}

	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			// Launch failure despite successful lookup (permissions, ...).
			return nil, &ConfigError{Program: r.Program, Err: runErr}
		}
	}

	if stderr.Len() > 0 {
		slog.Warn("solver emitted something via stderr",
			"program", r.Program, "stderr", stderr.String())
	}

	var messages []string
	if runErr != nil {
		state := cmd.ProcessState
		messages = append(messages, fmt.Sprintf(
			"%s had a non-zero exit state: %d", r.Program, state.ExitCode()))
	}
	if bytes.Contains(bytes.ToLower(stdout.Bytes()), []byte("error")) {
		messages = append(messages, fmt.Sprintf(
			"the string 'error' appeared in %s output", r.Program))
	}
	if len(messages) > 0 {
		return nil, &RunError{
			Program:  r.Program,
			Dir:      r.Dir,
			Input:    input,
			Output:   stdout.Bytes(),
			ErrText:  stderr.Bytes(),
			Messages: messages,
		}
	}

	return &RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}
