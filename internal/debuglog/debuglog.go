// Package debuglog keeps the per-run diagnostic trace.
//
// The log is created (truncated) when a run starts, receives structured
// zerolog events plus the raw output of subprocesses, and is either removed
// once the run hands off or left on disk for postmortem.
package debuglog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Log is an append-only debug log file.
type Log struct {
	path   string
	runID  string
	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

// Open creates or truncates the log at path and tags every event with runID.
func Open(path, runID string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND|noFollow, 0600)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}

	l := &Log{path: path, runID: runID, file: file}
	l.logger = zerolog.New(l).With().Timestamp().Str("run_id", runID).Logger()
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// RunID returns the identifier every event is tagged with.
func (l *Log) RunID() string {
	return l.runID
}

// Logger returns the structured logger writing into the file.
func (l *Log) Logger() *zerolog.Logger {
	return &l.logger
}

// Write appends p to the log. It is safe for concurrent use so that a
// subprocess' stdout and stderr can share the log.
func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return 0, os.ErrClosed
	}
	return l.file.Write(p)
}

// Stream returns a writer that records each line written to it as a debug
// event tagged with source. Close flushes a trailing partial line.
func (l *Log) Stream(source string) io.WriteCloser {
	return &lineWriter{logger: l.logger.With().Str("source", source).Logger()}
}

// Dump copies the current log contents to w.
func (l *Log) Dump(w io.Writer) error {
	l.mu.Lock()
	if l.file != nil {
		_ = l.file.Sync()
	}
	l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("dump debug log: %w", err)
	}
	return nil
}

// Close closes the file and keeps it on disk.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Remove closes and deletes the log.
func (l *Log) Remove() error {
	if err := l.Close(); err != nil {
		return fmt.Errorf("close debug log: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove debug log: %w", err)
	}
	return nil
}

// Exists reports whether the log file is still on disk.
func (l *Log) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// lineWriter turns a byte stream into one debug event per line.
type lineWriter struct {
	logger zerolog.Logger
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)

	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// incomplete line: keep it for the next write
			rest := append([]byte(nil), line...)
			w.buf.Reset()
			w.buf.Write(rest)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
	return nil
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	w.logger.Debug().Str("line", string(line)).Send()
}
