package verify

import (
	"fmt"
	"strings"
)

// Check identifies one verification step.
type Check int

const (
	CheckExists Check = iota
	CheckSize
	CheckContent
	CheckChecksum
	CheckSignature
)

// String returns the string representation of the check
func (c Check) String() string {
	switch c {
	case CheckExists:
		return "exists"
	case CheckSize:
		return "size"
	case CheckContent:
		return "content"
	case CheckChecksum:
		return "sha256"
	case CheckSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// SignatureKind selects the detached signature scheme.
type SignatureKind string

const (
	SignaturePGP      SignatureKind = "pgp"
	SignatureMinisign SignatureKind = "minisign"
)

// KindFromPath infers the signature scheme from a signature file name.
func KindFromPath(path string) SignatureKind {
	if strings.HasSuffix(path, ".minisig") {
		return SignatureMinisign
	}
	return SignaturePGP
}

// Signature locates a detached signature and the key to check it with.
type Signature struct {
	Kind    SignatureKind
	Path    string // downloaded signature file
	KeyPath string // OpenPGP keyring or minisign public key
}

// DefaultErrorMarkers are substrings that mark an HTTP error page.
var DefaultErrorMarkers = []string{"404", "Not Found", "Error", "Failed"}

const (
	// DefaultMinSize is the smallest artifact accepted, in bytes.
	DefaultMinSize = 100
	// DefaultPreviewLines is how many leading lines the content check reads.
	DefaultPreviewLines = 5
)

// Options configures a Verifier.
type Options struct {
	MinSize             int64
	PreviewLines        int
	ErrorMarkers        []string
	DisableContentCheck bool
	SHA256              string
	Signature           *Signature
}

// Result is the outcome of one check.
type Result struct {
	Check   Check
	Success bool
	Error   error
}

// Report summarizes a verification run.
type Report struct {
	Path    string
	Size    int64
	Preview []string
	Results []Result
}

// Passed reports whether every executed check succeeded.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return len(r.Results) > 0
}

// Error describes a failed check. Contents holds what the operator should see:
// the whole file for size failures, the preview for content failures.
type Error struct {
	Check    Check
	Path     string
	Contents []string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s check failed for %s: %v", e.Check, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
