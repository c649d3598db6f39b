package verify

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotRegular is returned when the artifact path is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

// Verifier runs the artifact checks.
type Verifier struct {
	opts Options
}

// NewVerifier creates a verifier, filling unset limits with defaults.
// A nil ErrorMarkers slice means DefaultErrorMarkers; an empty non-nil slice
// means no markers.
func NewVerifier(opts Options) *Verifier {
	if opts.MinSize == 0 {
		opts.MinSize = DefaultMinSize
	}
	if opts.PreviewLines <= 0 {
		opts.PreviewLines = DefaultPreviewLines
	}
	if opts.ErrorMarkers == nil {
		opts.ErrorMarkers = DefaultErrorMarkers
	}
	return &Verifier{opts: opts}
}

// Verify checks the artifact at path. On failure the returned error is an
// *Error and the report lists every check executed so far.
func (v *Verifier) Verify(path string) (*Report, error) {
	report := &Report{Path: path}

	steps := []struct {
		check Check
		run   func(*Report) *Error
	}{
		{CheckExists, v.checkExists},
		{CheckSize, v.checkSize},
		{CheckContent, v.checkContent},
		{CheckChecksum, v.checkChecksum},
		{CheckSignature, v.checkSignature},
	}

	for _, step := range steps {
		if !v.enabled(step.check) {
			continue
		}
		if verr := step.run(report); verr != nil {
			report.Results = append(report.Results, Result{Check: step.check, Error: verr})
			return report, verr
		}
		report.Results = append(report.Results, Result{Check: step.check, Success: true})
	}

	return report, nil
}

func (v *Verifier) enabled(c Check) bool {
	switch c {
	case CheckContent:
		return !v.opts.DisableContentCheck && len(v.opts.ErrorMarkers) > 0
	case CheckChecksum:
		return v.opts.SHA256 != ""
	case CheckSignature:
		return v.opts.Signature != nil
	default:
		return true
	}
}

func (v *Verifier) checkExists(r *Report) *Error {
	info, err := os.Stat(r.Path)
	if err != nil {
		return &Error{Check: CheckExists, Path: r.Path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &Error{Check: CheckExists, Path: r.Path, Err: ErrNotRegular}
	}
	r.Size = info.Size()
	return nil
}

func (v *Verifier) checkSize(r *Report) *Error {
	if r.Size >= v.opts.MinSize {
		return nil
	}

	contents, _ := Preview(r.Path, -1)
	return &Error{
		Check:    CheckSize,
		Path:     r.Path,
		Contents: contents,
		Err:      fmt.Errorf("file is %d bytes, want at least %d", r.Size, v.opts.MinSize),
	}
}

func (v *Verifier) checkContent(r *Report) *Error {
	preview, err := Preview(r.Path, v.opts.PreviewLines)
	if err != nil {
		return &Error{Check: CheckContent, Path: r.Path, Err: fmt.Errorf("read preview: %w", err)}
	}
	r.Preview = preview

	if marker, ok := findMarker(preview, v.opts.ErrorMarkers); ok {
		return &Error{
			Check:    CheckContent,
			Path:     r.Path,
			Contents: preview,
			Err:      fmt.Errorf("content looks like an error page (contains %q)", marker),
		}
	}
	return nil
}

func (v *Verifier) checkChecksum(r *Report) *Error {
	if err := verifySHA256(r.Path, v.opts.SHA256); err != nil {
		return &Error{Check: CheckChecksum, Path: r.Path, Err: err}
	}
	return nil
}

func (v *Verifier) checkSignature(r *Report) *Error {
	sig := v.opts.Signature

	var err error
	switch sig.Kind {
	case SignatureMinisign:
		err = verifyMinisign(r.Path, sig.Path, sig.KeyPath)
	case SignaturePGP, "":
		err = verifyPGP(r.Path, sig.Path, sig.KeyPath)
	default:
		err = fmt.Errorf("unsupported signature kind %q", sig.Kind)
	}
	if err != nil {
		return &Error{Check: CheckSignature, Path: r.Path, Err: err}
	}
	return nil
}

// findMarker returns the first marker contained in any of lines.
func findMarker(lines, markers []string) (string, bool) {
	for _, line := range lines {
		for _, m := range markers {
			if m != "" && strings.Contains(line, m) {
				return m, true
			}
		}
	}
	return "", false
}

// MaxPreviewLine caps how much of a single line Preview keeps. Longer lines
// are truncated, not rejected.
const MaxPreviewLine = 64 << 10

// Preview returns up to n leading lines of the file at path; n < 0 reads all.
func Preview(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	for n < 0 || len(lines) < n {
		line, err := readLine(r, MaxPreviewLine)
		if err == io.EOF {
			break
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// readLine reads one line without its terminator, keeping at most limit
// bytes and discarding the rest. It returns io.EOF only when nothing is left.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	read := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && read {
				return string(buf), nil
			}
			return "", err
		}
		read = true
		if room := limit - len(buf); room > 0 {
			buf = append(buf, frag[:min(len(frag), room)]...)
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}
