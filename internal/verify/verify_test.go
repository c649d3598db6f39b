package verify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// script is a plausible artifact comfortably above DefaultMinSize.
const script = `#!/usr/bin/env python3
import os
import sys

def main() -> None:
    print("configuring reverse proxy")

if __name__ == "__main__":
    main()
`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.py")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		opts      Options
		wantCheck Check
		wantErr   bool
	}{
		{
			name:    "valid script",
			content: script,
		},
		{
			name:      "empty file",
			content:   "",
			wantCheck: CheckSize,
			wantErr:   true,
		},
		{
			name:      "truncated response below threshold",
			content:   "#!/usr/bin/env python3\n",
			wantCheck: CheckSize,
			wantErr:   true,
		},
		{
			name:      "404 page above threshold",
			content:   "404: Not Found\n" + strings.Repeat("padding line\n", 20),
			wantCheck: CheckContent,
			wantErr:   true,
		},
		{
			name:      "marker on last preview line",
			content:   "l1\nl2\nl3\nl4\nupstream request Failed\n" + strings.Repeat("x", 200),
			wantCheck: CheckContent,
			wantErr:   true,
		},
		{
			name:    "marker after preview window",
			content: "l1\nl2\nl3\nl4\nl5\nraise Error('boom')\n" + strings.Repeat("x", 200),
		},
		{
			name:    "markers are case sensitive",
			content: "# not found handling lives below\n" + script,
		},
		{
			name:    "content check disabled",
			content: "# Error handling helpers\n" + script,
			opts:    Options{DisableContentCheck: true},
		},
		{
			name:    "empty marker list disables content check",
			content: "# Error handling helpers\n" + script,
			opts:    Options{ErrorMarkers: []string{}},
		},
		{
			name:      "custom markers",
			content:   "<html><title>Bad Gateway</title>\n" + script,
			opts:      Options{ErrorMarkers: []string{"<html>"}},
			wantCheck: CheckContent,
			wantErr:   true,
		},
		{
			name:      "custom min size",
			content:   script,
			opts:      Options{MinSize: 10_000},
			wantCheck: CheckSize,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, tt.content)

			report, err := NewVerifier(tt.opts).Verify(path)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Verify() unexpected error: %v", err)
				}
				if !report.Passed() {
					t.Errorf("report.Passed() = false, results = %+v", report.Results)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Verify() error = %v, want *Error", err)
			}
			if verr.Check != tt.wantCheck {
				t.Errorf("failed check = %v, want %v", verr.Check, tt.wantCheck)
			}
			if report.Passed() {
				t.Error("report.Passed() = true for failed verification")
			}
		})
	}
}

func TestVerify_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.py")

	_, err := NewVerifier(Options{}).Verify(path)

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Verify() error = %v, want *Error", err)
	}
	if verr.Check != CheckExists {
		t.Errorf("failed check = %v, want exists", verr.Check)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestVerify_Directory(t *testing.T) {
	_, err := NewVerifier(Options{}).Verify(t.TempDir())
	if !errors.Is(err, ErrNotRegular) {
		t.Errorf("Verify(dir) error = %v, want ErrNotRegular", err)
	}
}

func TestVerify_ErrorCarriesContents(t *testing.T) {
	t.Run("size failure dumps whole file", func(t *testing.T) {
		path := writeArtifact(t, "Bad Gateway\nretry later\n")
		_, err := NewVerifier(Options{}).Verify(path)

		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("Verify() error = %v", err)
		}
		if strings.Join(verr.Contents, "|") != "Bad Gateway|retry later" {
			t.Errorf("Contents = %q", verr.Contents)
		}
	})

	t.Run("content failure shows preview", func(t *testing.T) {
		lines := []string{"<html>", "<head><title>404 Not Found</title></head>", "<body>", "<h1>", "nginx", "</h1>"}
		path := writeArtifact(t, strings.Join(lines, "\n")+"\n"+strings.Repeat(" ", 200))
		_, err := NewVerifier(Options{}).Verify(path)

		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("Verify() error = %v", err)
		}
		if len(verr.Contents) != DefaultPreviewLines {
			t.Errorf("len(Contents) = %d, want %d", len(verr.Contents), DefaultPreviewLines)
		}
		if !strings.Contains(verr.Error(), `"404"`) {
			t.Errorf("error %q should name the matched marker", verr.Error())
		}
	})
}

func TestVerify_ReportOrder(t *testing.T) {
	path := writeArtifact(t, script)
	sum, err := calculateSHA256(path)
	if err != nil {
		t.Fatal(err)
	}

	report, err := NewVerifier(Options{SHA256: sum}).Verify(path)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	var got []string
	for _, r := range report.Results {
		got = append(got, r.Check.String())
	}
	if want := "exists,size,content,sha256"; strings.Join(got, ",") != want {
		t.Errorf("checks = %v, want %v", got, want)
	}
	if report.Size != int64(len(script)) {
		t.Errorf("Size = %d, want %d", report.Size, len(script))
	}
	if len(report.Preview) != DefaultPreviewLines {
		t.Errorf("len(Preview) = %d, want %d", len(report.Preview), DefaultPreviewLines)
	}
}

func TestPreview(t *testing.T) {
	path := writeArtifact(t, "a\nb\nc\n")

	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{2, "a,b"},
		{10, "a,b,c"},
		{-1, "a,b,c"},
	}

	for _, tt := range tests {
		lines, err := Preview(path, tt.n)
		if err != nil {
			t.Fatalf("Preview(%d) error = %v", tt.n, err)
		}
		if got := strings.Join(lines, ","); got != tt.want {
			t.Errorf("Preview(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPreview_LongLine(t *testing.T) {
	long := strings.Repeat("x", 70<<10)
	path := writeArtifact(t, long+"\nprint(X)\n")

	lines, err := Preview(path, 5)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(Preview) = %d, want 2", len(lines))
	}
	if len(lines[0]) != MaxPreviewLine {
		t.Errorf("len(lines[0]) = %d, want truncated to %d", len(lines[0]), MaxPreviewLine)
	}
	if lines[1] != "print(X)" {
		t.Errorf("lines[1] = %q, want print(X)", lines[1])
	}
}

func TestVerify_LongFirstLinePasses(t *testing.T) {
	path := writeArtifact(t, "# "+strings.Repeat("a", 70<<10)+"\nprint(X)\n")

	if _, err := NewVerifier(Options{}).Verify(path); err != nil {
		t.Errorf("Verify() error = %v, want long lines accepted", err)
	}
}

func TestVerify_LongLineMarkerStillFound(t *testing.T) {
	path := writeArtifact(t, "404 Not Found "+strings.Repeat("-", 70<<10)+"\n")

	_, err := NewVerifier(Options{}).Verify(path)
	var verr *Error
	if !errors.As(err, &verr) || verr.Check != CheckContent {
		t.Errorf("Verify() error = %v, want content check failure", err)
	}
}

func TestCheckString(t *testing.T) {
	tests := []struct {
		check Check
		want  string
	}{
		{CheckExists, "exists"},
		{CheckSize, "size"},
		{CheckContent, "content"},
		{CheckChecksum, "sha256"},
		{CheckSignature, "signature"},
		{Check(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.check.String(); got != tt.want {
			t.Errorf("Check(%d).String() = %q, want %q", tt.check, got, tt.want)
		}
	}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		want SignatureKind
	}{
		{"traefik_manager.py.minisig", SignatureMinisign},
		{"traefik_manager.py.asc", SignaturePGP},
		{"traefik_manager.py.sig", SignaturePGP},
	}

	for _, tt := range tests {
		if got := KindFromPath(tt.path); got != tt.want {
			t.Errorf("KindFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
