//go:build unix

package handoff

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// ExecHandoff replaces the current process image with the interpreter.
type ExecHandoff struct{}

// Handoff implements Handoff. It returns only if execve fails.
func (ExecHandoff) Handoff(ctx context.Context, req Request) (int, error) {
	if err := ctx.Err(); err != nil {
		return 1, err
	}

	path, err := resolveInterpreter(req.Interpreter)
	if err != nil {
		return 1, err
	}

	if err := unix.Exec(path, req.Argv(), req.environ()); err != nil {
		return 1, fmt.Errorf("exec %s: %w", path, err)
	}
	return 0, nil
}

// Default returns the platform's preferred Handoff.
func Default() Handoff {
	return ExecHandoff{}
}
