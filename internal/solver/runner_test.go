package solver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub creates an executable shell script standing in for a solver
// binary and returns its path.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakesolver")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func TestRun_MissingExecutable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	r := &Runner{Program: "no-such-solver-binary", Dir: dir}

	_, err := r.Run(context.Background(), []byte("payload\n"))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "no-such-solver-binary", cfgErr.Program)

	// The failure must precede any filesystem effect.
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "run directory must not be created")
}

func TestRun_Success(t *testing.T) {
	stub := writeStub(t, `read line
[ "$line" = "input" ] || exit 9
echo "computation finished"
`)
	dir := filepath.Join(t.TempDir(), "run")
	r := &Runner{Program: stub, Dir: dir}

	res, err := r.Run(context.Background(), []byte("payload\n"))
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "computation finished")

	written, err := os.ReadFile(filepath.Join(dir, InputFileName))
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(written))
}

func TestRun_ExistingInput(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\n")
	dir := t.TempDir()
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, InputFileName), []byte("stale\n"), 0o644))

	r := &Runner{Program: stub, Dir: dir}
	_, err := r.Run(context.Background(), []byte("fresh\n"))
	require.ErrorContains(t, err, "already exists")

	r.Force = true
	_, err = r.Run(context.Background(), []byte("fresh\n"))
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, InputFileName))
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(written))
}

func TestRun_NonZeroExit(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\necho some output\nexit 3\n")
	r := &Runner{Program: stub, Dir: t.TempDir(), Force: true}

	_, err := r.Run(context.Background(), []byte("payload\n"))

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Contains(t, err.Error(), "non-zero exit state: 3")
	assert.Equal(t, []byte("payload\n"), runErr.Input)
	assert.Contains(t, string(runErr.Output), "some output")
}

func TestRun_ErrorInStdout(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\necho \"ERROR: bad wavenumber sampling\"\n")
	r := &Runner{Program: stub, Dir: t.TempDir(), Force: true}

	_, err := r.Run(context.Background(), []byte("payload\n"))

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Contains(t, err.Error(), "the string 'error' appeared")
}

func TestRun_StderrAloneIsNotFatal(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\necho \"spurious warning\" >&2\n")
	r := &Runner{Program: stub, Dir: t.TempDir(), Force: true}

	res, err := r.Run(context.Background(), []byte("payload\n"))
	require.NoError(t, err)
	assert.Contains(t, string(res.Stderr), "spurious warning")
}

func TestRun_Interrupted(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\nexec sleep 30\n")
	r := &Runner{Program: stub, Dir: t.TempDir(), Force: true}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Run(ctx, []byte("payload\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInterrupted), "got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second,
		"cancellation must not wait for the solver to finish")
}
