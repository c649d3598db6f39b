package fetch

import (
	"fmt"
	"time"
)

// DefaultMethods is the built-in fallback order.
var DefaultMethods = []string{"curl", "wget", "http"}

// Options configures the built-in methods.
type Options struct {
	// Output receives external tool output (typically the debug log).
	Output    OutputFunc
	Timeout   time.Duration
	UserAgent string
}

// Build instantiates the named methods in order.
func Build(names []string, opts Options) ([]Method, error) {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		m, err := newMethod(name, opts)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// Known reports whether name is a built-in method.
func Known(name string) bool {
	_, err := newMethod(name, Options{})
	return err == nil
}

func newMethod(name string, opts Options) (Method, error) {
	switch name {
	case "curl":
		return NewCurl(opts.Output), nil
	case "wget":
		return NewWget(opts.Output), nil
	case "http":
		return NewHTTPMethod(opts.Timeout, opts.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown download method %q", name)
	}
}
