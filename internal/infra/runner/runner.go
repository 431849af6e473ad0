// Where: internal/infra/runner/runner.go
// What: External command execution for docker and other host tools.
// Why: Use cases depend on CommandRunner so tests can record calls without a docker daemon.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrToolNotFound reports that the executable is not on PATH.
var ErrToolNotFound = errors.New("tool not found")

// ToolNotFoundError names the missing executable.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return e.Name + " not found! Please install it."
}

func (e *ToolNotFoundError) Unwrap() error {
	return ErrToolNotFound
}

// ExitError is returned when a command starts but exits unsuccessfully.
type ExitError struct {
	Name   string
	Args   []string
	Code   int
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d", e.Name, strings.Join(e.Args, " "), e.Code)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// CommandRunner defines the interface for executing external commands.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	RunInput(ctx context.Context, dir string, stdin io.Reader, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. Run streams output to Stdout and Stderr
// while also capturing it for error reports.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner() ExecRunner {
	return ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	var captured bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = io.MultiWriter(writerOrDiscard(r.Stdout), &captured)
	cmd.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), &captured)
	return wrapError(name, args, captured.Bytes, cmd.Run())
}

func (r ExecRunner) RunInput(ctx context.Context, dir string, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	output, err := cmd.CombinedOutput()
	return wrapError(name, args, func() []byte { return output }, err)
}

func wrapError(name string, args []string, output func() []byte, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &ToolNotFoundError{Name: name}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Name:   name,
			Args:   append([]string(nil), args...),
			Code:   exitErr.ExitCode(),
			Output: string(output()),
			Err:    err,
		}
	}
	return fmt.Errorf("run %s: %w", name, err)
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
