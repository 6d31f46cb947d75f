// Package shell runs a forgefile.yaml task's Cmd as a child process,
// wired into a domain.PlainAction by internal/adapters/config.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Process represents a running command.
type Process interface {
	Wait() error
	Resize(rows, cols int) error
}

type ptyProcess struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone <-chan struct{}
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()
	<-p.ioDone
	return err
}

func (p *ptyProcess) Resize(rows, cols int) error {
	if rows > math.MaxUint16 || cols > math.MaxUint16 || rows < 0 || cols < 0 {
		return errors.New("terminal size out of bounds")
	}

	return pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
		X:    0,
		Y:    0,
	})
}

// Spec describes one command invocation: the argv, working directory and
// environment overrides a config.TaskDTO carries.
type Spec struct {
	Command     []string
	WorkingDir  string
	Environment map[string]string
}

// Executor runs a Spec's command using os/exec and a PTY, relaying output
// line-by-line to a ports.Logger.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Start launches spec's command in a PTY. The command's stdout and stderr
// both arrive through the PTY and are relayed to stdout; nothing is written
// to stderr. It returns a Process interface to control and wait for the
// command.
func (e *Executor) Start(ctx context.Context, spec Spec, stdout, stderr io.Writer) (Process, error) {
	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "error"}

	finalStdout := io.MultiWriter(stdoutLog, stdout)
	finalStderr := io.MultiWriter(stderrLog, stderr)

	return start(ctx, spec, finalStdout, finalStderr, stdoutLog, stderrLog)
}

func start(ctx context.Context, spec Spec, stdout, _ io.Writer, stdoutLog, stderrLog *logWriter) (Process, error) {
	if len(spec.Command) == 0 {
		return nil, nil
	}

	name := spec.Command[0]
	args := spec.Command[1:]

	cmdEnv := resolveEnvironment(os.Environ(), spec.Environment)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // task-author provided command

	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}

	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}

	cmd.Env = cmdEnv

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		defer func() {
			_ = stdoutLog.Close()
			_ = stderrLog.Close()
		}()

		_, _ = io.Copy(stdout, ptmx)
	}()

	return &ptyProcess{cmd: cmd, ptmx: ptmx, ioDone: ioDone}, nil
}

// Execute runs spec's command and waits for it to complete.
func (e *Executor) Execute(ctx context.Context, spec Spec, stdout, stderr io.Writer) error {
	proc, err := e.Start(ctx, spec, stdout, stderr)
	if err != nil {
		return err
	}
	if proc == nil {
		return nil
	}

	if err := proc.Wait(); err != nil {
		var exitCode int
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	return nil
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := w.buf[:i]
		w.logLine(line)
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(msg)
	}
}

// allowListedEnvVars are the system environment variables inherited by a
// task's command, keeping the run environment close to hermetic.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges the allow-listed system environment with the
// task's own Environment overrides, the latter taking priority.
func resolveEnvironment(sysEnv []string, taskEnv map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)
	for k, v := range taskEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

// lookPath searches for an executable in the directories named by env's
// PATH entry.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
