// Package handoff marks a verified artifact executable and transfers control
// to it through an interpreter.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

var ErrInterpreterNotFound = errors.New("interpreter not found")

// Request describes the process that receives control.
type Request struct {
	Interpreter     string
	InterpreterArgs []string
	Artifact        string
	// Args are forwarded verbatim after the artifact path.
	Args []string
	// Env defaults to the current environment when nil.
	Env []string
}

// Argv returns the full argument vector, starting with the interpreter.
func (r Request) Argv() []string {
	argv := make([]string, 0, 2+len(r.InterpreterArgs)+len(r.Args))
	argv = append(argv, r.Interpreter)
	argv = append(argv, r.InterpreterArgs...)
	argv = append(argv, r.Artifact)
	argv = append(argv, r.Args...)
	return argv
}

func (r Request) environ() []string {
	if r.Env == nil {
		return os.Environ()
	}
	return r.Env
}

// Handoff transfers control to the artifact and reports its exit status.
// Implementations that replace the running process only return on error.
type Handoff interface {
	Handoff(ctx context.Context, req Request) (int, error)
}

// MakeExecutable sets 0755 permissions on the artifact.
func MakeExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}

func resolveInterpreter(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty interpreter", ErrInterpreterNotFound)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInterpreterNotFound, name, err)
	}
	return path, nil
}

// CommandHandoff runs the interpreter as a child process and propagates its
// exit code.
type CommandHandoff struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandHandoff returns a CommandHandoff attached to the process' stdio.
func NewCommandHandoff() *CommandHandoff {
	return &CommandHandoff{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Handoff implements Handoff.
func (h *CommandHandoff) Handoff(ctx context.Context, req Request) (int, error) {
	path, err := resolveInterpreter(req.Interpreter)
	if err != nil {
		return 1, err
	}

	argv := req.Argv()
	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Env = req.environ()
	cmd.Stdin = h.Stdin
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return 1, fmt.Errorf("run %s: %w", req.Interpreter, err)
}
