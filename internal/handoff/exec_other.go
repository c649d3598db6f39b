//go:build !unix

package handoff

// Default returns the platform's preferred Handoff.
func Default() Handoff {
	return NewCommandHandoff()
}
