package debuglog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestOpen_TruncatesExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	if err := os.WriteFile(path, []byte("stale content from an earlier run\n"), 0600); err != nil {
		t.Fatal(err)
	}

	l, err := Open(path, "run-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	l.Logger().Info().Msg("started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale content") {
		t.Error("Open() did not truncate the previous log")
	}
}

func TestLogger_TagsRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := Open(path, "run-42")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	l.Logger().Debug().Str("stage", "probe").Msg("probing")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	events := readEvents(t, path)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0]["run_id"] != "run-42" {
		t.Errorf("run_id = %v, want run-42", events[0]["run_id"])
	}
	if events[0]["stage"] != "probe" {
		t.Errorf("stage = %v, want probe", events[0]["stage"])
	}
}

func TestStream_OneEventPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := Open(path, "run-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	w := l.Stream("curl")
	fmt.Fprint(w, "* Trying 1.2.3.4:443...\n* Conn")
	fmt.Fprint(w, "ected\r\n\n< HTTP/2 200")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	l.Close()

	events := readEvents(t, path)
	var lines []string
	for _, ev := range events {
		if ev["source"] != "curl" {
			t.Errorf("source = %v, want curl", ev["source"])
		}
		lines = append(lines, ev["line"].(string))
	}

	want := []string{"* Trying 1.2.3.4:443...", "* Connected", "< HTTP/2 200"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := Open(path, "run-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	l.Logger().Warn().Msg("probe failed")

	var buf bytes.Buffer
	if err := l.Dump(&buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(buf.String(), "probe failed") {
		t.Errorf("Dump() = %q, want it to contain the logged message", buf.String())
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := Open(path, "run-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if !l.Exists() {
		t.Fatal("log should exist after Open()")
	}
	if err := l.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if l.Exists() {
		t.Error("log should not exist after Remove()")
	}

	// Removing twice is harmless.
	if err := l.Remove(); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}

	if _, err := l.Write([]byte("late")); err == nil {
		t.Error("Write() after Remove() should fail")
	}
}
