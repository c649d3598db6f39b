package fetch

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// OutputFunc opens a sink for a method's tool output. The method closes it
// once the tool exits.
type OutputFunc func(method string) io.WriteCloser

// CommandMethod downloads by running an external tool.
type CommandMethod struct {
	name   string
	tool   string
	args   func(url, dest string) []string
	output OutputFunc
}

// NewCurl returns the curl method: IPv4 only, fail on HTTP error status,
// follow redirects, verbose trace to output.
func NewCurl(output OutputFunc) *CommandMethod {
	return &CommandMethod{
		name: "curl",
		tool: "curl",
		args: func(url, dest string) []string {
			return []string{"-4", "--fail", "--location", "--verbose", "--output", dest, url}
		},
		output: output,
	}
}

// NewWget returns the quiet wget method.
func NewWget(output OutputFunc) *CommandMethod {
	return &CommandMethod{
		name: "wget",
		tool: "wget",
		args: func(url, dest string) []string {
			return []string{"--quiet", "--output-document", dest, url}
		},
		output: output,
	}
}

// Name implements Method.
func (c *CommandMethod) Name() string {
	return c.name
}

// Args returns the argument list the tool is run with.
func (c *CommandMethod) Args(url, dest string) []string {
	return c.args(url, dest)
}

// Fetch runs the tool; a non-zero exit is a failed download.
func (c *CommandMethod) Fetch(ctx context.Context, url, dest string) error {
	path, err := exec.LookPath(c.tool)
	if err != nil {
		return fmt.Errorf("%s: %w", c.tool, ErrToolMissing)
	}

	//nolint:gosec // G204: tool path resolved from PATH, url comes from operator configuration
	cmd := exec.CommandContext(ctx, path, c.args(url, dest)...)
	if c.output != nil {
		sink := c.output(c.name)
		defer sink.Close()
		cmd.Stdout = sink
		cmd.Stderr = sink
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", c.tool, err)
	}
	return nil
}
