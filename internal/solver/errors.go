package solver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInterrupted signals that a blocking solver wait was cancelled. The
// child process has been terminated and reaped before this surfaces;
// callers distinguish it from solver failure via errors.Is.
var ErrInterrupted = errors.New("solver run interrupted")

// ConfigError means the external program could not be found or launched.
// It is raised before any input file is written; the build does not start.
type ConfigError struct {
	Program string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf(
		"could not resolve solver executable %q: %v"+
			" (is the modelling code installed and on PATH?)",
		e.Program, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RunError means the solver ran but failed: a non-zero exit state or the
// literal string 'error' in its standard output. The full round-trip is
// bundled so an operator can diagnose the solver-side problem.
type RunError struct {
	Program  string
	Dir      string
	Input    []byte
	Output   []byte
	ErrText  []byte
	Messages []string
}

func (e *RunError) Error() string {
	return fmt.Sprintf(`solver failure:
===== begin %[1]s input =====
%[2]s===== end %[1]s input =====
===== begin %[1]s output =====
%[3]s===== end %[1]s output =====
===== begin %[1]s error =====
%[4]s===== end %[1]s error =====
%[5]s
%[1]s has been invoked in the directory %[6]s`,
		e.Program, e.Input, e.Output, e.ErrText,
		strings.Join(e.Messages, "\n"), e.Dir)
}
