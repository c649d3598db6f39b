package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ZebulonRouseFrantzich/handoff/internal/fetch"
	"github.com/ZebulonRouseFrantzich/handoff/internal/netprobe"
	"github.com/ZebulonRouseFrantzich/handoff/internal/verify"
)

// Handoff modes.
const (
	ModeExec  = "exec"
	ModeChild = "child"
)

// Settings is the fully resolved configuration of one run.
type Settings struct {
	URL             string   `env:"HANDOFF_URL"`
	ArtifactPath    string   `env:"HANDOFF_ARTIFACT"`
	DebugLogPath    string   `env:"HANDOFF_DEBUG_LOG"`
	Interpreter     string   `env:"HANDOFF_INTERPRETER"`
	InterpreterArgs []string `env:"HANDOFF_INTERPRETER_ARGS"`
	HandoffMode     string   `env:"HANDOFF_MODE"`

	ProbeHost    string        `env:"HANDOFF_PROBE_HOST"`
	ProbeMode    string        `env:"HANDOFF_PROBE_MODE"`
	ProbeTimeout time.Duration `env:"HANDOFF_PROBE_TIMEOUT"`

	Methods     []string      `env:"HANDOFF_METHODS"`
	UserAgent   string        `env:"HANDOFF_USER_AGENT"`
	HTTPTimeout time.Duration `env:"HANDOFF_HTTP_TIMEOUT"`

	MinSize      int64    `env:"HANDOFF_MIN_SIZE"`
	PreviewLines int      `env:"HANDOFF_PREVIEW_LINES"`
	ContentCheck bool     `env:"HANDOFF_CONTENT_CHECK"`
	ErrorMarkers []string `env:"HANDOFF_ERROR_MARKERS"`

	SHA256        string `env:"HANDOFF_SHA256"`
	SignatureURL  string `env:"HANDOFF_SIGNATURE_URL"`
	SignatureKind string `env:"HANDOFF_SIGNATURE_KIND"`
	KeyPath       string `env:"HANDOFF_KEY"`

	RequireRoot bool   `env:"HANDOFF_REQUIRE_ROOT"`
	LockDir     string `env:"HANDOFF_LOCK_DIR"`

	// ConfigFile is the optional Lua file applied last.
	ConfigFile string `env:"HANDOFF_CONFIG"`
}

// Default returns the built-in settings. URL is left empty: it comes from the
// build or from configuration.
func Default() Settings {
	tmp := os.TempDir()
	return Settings{
		ArtifactPath: filepath.Join(tmp, "handoff-artifact"),
		DebugLogPath: filepath.Join(tmp, "handoff-debug.log"),
		Interpreter:  "python3",
		HandoffMode:  ModeExec,
		ProbeMode:    netprobe.ModeICMP,
		ProbeTimeout: netprobe.DefaultTimeout,
		Methods:      slices.Clone(fetch.DefaultMethods),
		UserAgent:    fetch.DefaultUserAgent,
		HTTPTimeout:  fetch.DefaultTimeout,
		MinSize:      verify.DefaultMinSize,
		PreviewLines: verify.DefaultPreviewLines,
		ContentCheck: true,
		ErrorMarkers: slices.Clone(verify.DefaultErrorMarkers),
		RequireRoot:  true,
	}
}

// ValidationError reports an invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	if s.URL == "" {
		return &ValidationError{Field: "url", Message: "must not be empty (set HANDOFF_URL)"}
	}
	if err := validateHTTPURL(s.URL); err != nil {
		return &ValidationError{Field: "url", Message: err.Error()}
	}

	if s.ArtifactPath == "" {
		return &ValidationError{Field: "artifact", Message: "must not be empty"}
	}
	if s.DebugLogPath == "" {
		return &ValidationError{Field: "debug_log", Message: "must not be empty"}
	}
	if s.ArtifactPath == s.DebugLogPath {
		return &ValidationError{Field: "debug_log", Message: "must differ from the artifact path"}
	}
	if s.Interpreter == "" {
		return &ValidationError{Field: "interpreter", Message: "must not be empty"}
	}

	switch s.HandoffMode {
	case ModeExec, ModeChild:
	default:
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown handoff mode %q", s.HandoffMode)}
	}

	switch s.ProbeMode {
	case netprobe.ModeICMP, netprobe.ModeTCP:
	default:
		return &ValidationError{Field: "probe_mode", Message: fmt.Sprintf("unknown probe mode %q", s.ProbeMode)}
	}
	if s.ProbeTimeout <= 0 {
		return &ValidationError{Field: "probe_timeout", Message: "must be positive"}
	}

	if len(s.Methods) == 0 {
		return &ValidationError{Field: "methods", Message: "at least one download method is required"}
	}
	for i, m := range s.Methods {
		if !fetch.Known(m) {
			return &ValidationError{Field: fmt.Sprintf("methods[%d]", i), Message: fmt.Sprintf("unknown download method %q", m)}
		}
	}
	if s.HTTPTimeout < 0 {
		return &ValidationError{Field: "http_timeout", Message: "must not be negative"}
	}

	if s.MinSize < 0 {
		return &ValidationError{Field: "min_size", Message: "must not be negative"}
	}
	if s.PreviewLines < 0 {
		return &ValidationError{Field: "preview_lines", Message: "must not be negative"}
	}

	if s.SHA256 != "" {
		if b, err := hex.DecodeString(s.SHA256); err != nil || len(b) != 32 {
			return &ValidationError{Field: "sha256", Message: "must be 64 hex characters"}
		}
	}

	switch verify.SignatureKind(s.SignatureKind) {
	case "", verify.SignaturePGP, verify.SignatureMinisign:
	default:
		return &ValidationError{Field: "signature_kind", Message: fmt.Sprintf("unknown signature kind %q", s.SignatureKind)}
	}
	if s.SignatureURL != "" {
		if err := validateHTTPURL(s.SignatureURL); err != nil {
			return &ValidationError{Field: "signature_url", Message: err.Error()}
		}
		if s.KeyPath == "" {
			return &ValidationError{Field: "key", Message: "required when signature_url is set"}
		}
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// ProbeTarget returns the host the connectivity probe checks: ProbeHost,
// or the URL's host when unset.
func (s *Settings) ProbeTarget() string {
	if s.ProbeHost != "" {
		return s.ProbeHost
	}
	if u, err := url.Parse(s.URL); err == nil {
		return u.Hostname()
	}
	return ""
}

// LockDirectory returns LockDir, or the artifact's directory when unset.
func (s *Settings) LockDirectory() string {
	if s.LockDir != "" {
		return s.LockDir
	}
	return filepath.Dir(s.ArtifactPath)
}

// SignaturePath is where a downloaded detached signature is stored.
func (s *Settings) SignaturePath() string {
	return s.ArtifactPath + ".sig"
}

// Signature returns the signature check described by the settings, or nil.
// sigPath is where the downloaded signature is stored.
func (s *Settings) Signature(sigPath string) *verify.Signature {
	if s.SignatureURL == "" {
		return nil
	}
	kind := verify.SignatureKind(s.SignatureKind)
	if kind == "" {
		kind = verify.KindFromPath(s.SignatureURL)
	}
	return &verify.Signature{Kind: kind, Path: sigPath, KeyPath: s.KeyPath}
}

// normalize drops empty error markers. An empty, non-nil list disables the
// content check's marker matching.
func (s *Settings) normalize() {
	if s.ErrorMarkers == nil {
		return
	}
	markers := make([]string, 0, len(s.ErrorMarkers))
	for _, m := range s.ErrorMarkers {
		if m != "" {
			markers = append(markers, m)
		}
	}
	s.ErrorMarkers = markers
}
