package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Method is one way of downloading url into dest.
type Method interface {
	Name() string
	Fetch(ctx context.Context, url, dest string) error
}

// Attempt records one method invocation.
type Attempt struct {
	Method   string
	Err      error
	Duration time.Duration
}

// Strategy is a named way of producing a T.
type Strategy[T any] struct {
	Name string
	Try  func(ctx context.Context) (T, error)
}

// FirstSuccess runs strategies in order and returns the value of the first
// one that succeeds, together with every attempt made. When all fail the
// error is a *ChainError. A cancelled context stops the sequence before the
// next strategy starts.
func FirstSuccess[T any](ctx context.Context, strategies []Strategy[T], observe func(Attempt)) (T, []Attempt, error) {
	var zero T
	attempts := make([]Attempt, 0, len(strategies))

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, attempts, err
		}

		start := time.Now()
		value, err := s.Try(ctx)
		attempt := Attempt{Method: s.Name, Err: err, Duration: time.Since(start)}
		attempts = append(attempts, attempt)
		if observe != nil {
			observe(attempt)
		}

		if err == nil {
			return value, attempts, nil
		}
	}

	return zero, attempts, &ChainError{Attempts: attempts}
}

// ChainError reports that every method failed.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return "no download methods configured"
	}

	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Method, a.Err))
	}
	return fmt.Sprintf("all %d download methods failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// Unwrap exposes each attempt's error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Artifact is a file a method reported as downloaded.
type Artifact struct {
	Path   string
	Method string
	Size   int64
}

// Result is the outcome of a successful chain run.
type Result struct {
	Artifact Artifact
	Attempts []Attempt
}

// Chain tries its methods in order.
type Chain struct {
	methods []Method
	observe func(Attempt)
}

// NewChain creates a chain over methods.
func NewChain(methods ...Method) *Chain {
	return &Chain{methods: methods}
}

// OnAttempt registers a callback invoked after every attempt.
func (c *Chain) OnAttempt(fn func(Attempt)) {
	c.observe = fn
}

// Methods returns the method names in order.
func (c *Chain) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for _, m := range c.methods {
		names = append(names, m.Name())
	}
	return names
}

// Run downloads url into dest. On failure the returned error is a
// *ChainError (or the context error) and the Result still lists the
// attempts made.
func (c *Chain) Run(ctx context.Context, url, dest string) (*Result, error) {
	if err := clearDest(dest); err != nil {
		return &Result{}, err
	}

	strategies := make([]Strategy[Artifact], 0, len(c.methods))
	for _, m := range c.methods {
		strategies = append(strategies, Strategy[Artifact]{
			Name: m.Name(),
			Try: func(ctx context.Context) (Artifact, error) {
				if err := m.Fetch(ctx, url, dest); err != nil {
					return Artifact{}, err
				}
				art := Artifact{Path: dest, Method: m.Name()}
				if info, err := os.Stat(dest); err == nil {
					art.Size = info.Size()
				}
				return art, nil
			},
		})
	}

	artifact, attempts, err := FirstSuccess(ctx, strategies, c.observe)
	return &Result{Artifact: artifact, Attempts: attempts}, err
}

// clearDest removes dest when it exists but is not a regular file, so no
// method writes through a symlink planted at a fixed path.
func clearDest(dest string) error {
	info, err := os.Lstat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("inspect destination: %w", err)
	}
	if info.Mode().IsRegular() {
		return nil
	}
	if err := os.Remove(dest); err != nil {
		return fmt.Errorf("remove non-regular destination: %w", err)
	}
	return nil
}

// ErrToolMissing is returned by external methods whose binary is not on PATH.
var ErrToolMissing = errors.New("tool not found on PATH")
