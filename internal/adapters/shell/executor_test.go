package shell_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"forge/internal/adapters/logger"
	"forge/internal/adapters/shell"
)

func newTestExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	return shell.NewExecutor(logger.New())
}

func TestExecutor_Execute_MultiLineOutput(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{"sh", "-c", "echo line1; echo line2"}, WorkingDir: tmpDir}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), spec, &stdout, io.Discard)
	require.NoError(t, err)

	output := stdout.String()
	require.Contains(t, output, "line1")
	require.Contains(t, output, "line2")
}

func TestExecutor_Execute_FragmentedOutput(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{"sh", "-c", "printf part1; sleep 0.1; echo part2"}, WorkingDir: tmpDir}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), spec, &stdout, io.Discard)
	require.NoError(t, err)

	output := stdout.String()
	require.Contains(t, output, "part1")
	require.Contains(t, output, "part2")
}

func TestExecutor_Execute_EnvironmentVariables(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{
		Command:     []string{"sh", "-c", "echo $MY_TEST_VAR"},
		WorkingDir:  tmpDir,
		Environment: map[string]string{"MY_TEST_VAR": "test-value-123"},
	}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), spec, &stdout, io.Discard)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "test-value-123")
}

func TestExecutor_Execute_InvalidCommand(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{"nonexistent-command-xyz123"}, WorkingDir: tmpDir}
	err := executor.Execute(context.Background(), spec, io.Discard, io.Discard)
	require.Error(t, err)
}

func TestExecutor_Execute_CommandFailure(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{"sh", "-c", "exit 42"}, WorkingDir: tmpDir}
	err := executor.Execute(context.Background(), spec, io.Discard, io.Discard)
	require.Error(t, err)
	require.Contains(t, err.Error(), "command failed")
}

func TestExecutor_Execute_EmptyCommand(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{}, WorkingDir: tmpDir}
	err := executor.Execute(context.Background(), spec, io.Discard, io.Discard)
	require.NoError(t, err)
}

func TestExecutor_Execute_AbsolutePath(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	spec := shell.Spec{Command: []string{"/bin/sh", "-c", "echo test"}, WorkingDir: tmpDir}
	err := executor.Execute(context.Background(), spec, io.Discard, io.Discard)
	require.NoError(t, err)
}

func TestExecutor_Execute_StreamsOutput(t *testing.T) {
	executor := newTestExecutor(t)
	tmpDir := t.TempDir()

	ansiRed := "\033[31m"
	ansiReset := "\033[0m"
	msg := "Hello Red World"
	spec := shell.Spec{Command: []string{"sh", "-c", "printf '" + ansiRed + msg + ansiReset + "'"}, WorkingDir: tmpDir}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), spec, &stdout, io.Discard)
	require.NoError(t, err)

	output := stdout.String()
	require.True(t, strings.Contains(output, ansiRed))
	require.Contains(t, output, msg)
}
