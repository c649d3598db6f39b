package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquire(t *testing.T) {
	t.Run("creates lock file with metadata", func(t *testing.T) {
		dir := t.TempDir()

		l, err := Acquire(context.Background(), dir, "run-1")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer l.Release()

		data, err := os.ReadFile(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatalf("lock file not created: %v", err)
		}
		if !strings.Contains(string(data), "run_id=run-1") {
			t.Errorf("lock data = %q, want run_id", data)
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		dir := t.TempDir()

		first, err := Acquire(context.Background(), dir, "run-1")
		if err != nil {
			t.Fatalf("first Acquire() error = %v", err)
		}
		defer first.Release()

		if _, err := Acquire(context.Background(), dir, "run-2"); !errors.Is(err, ErrLocked) {
			t.Errorf("second Acquire() error = %v, want ErrLocked", err)
		}
	})

	t.Run("replaces stale lock", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		if err := os.WriteFile(path, []byte("pid=1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-2 * StaleThreshold)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}

		l, err := Acquire(context.Background(), dir, "run-3")
		if err != nil {
			t.Fatalf("Acquire() over stale lock error = %v", err)
		}
		defer l.Release()
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "locks")

		l, err := Acquire(context.Background(), dir, "run-4")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer l.Release()
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := Acquire(ctx, t.TempDir(), "run-5"); !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire() error = %v, want context.Canceled", err)
		}
	})
}

func TestRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(context.Background(), dir, "run-1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); !os.IsNotExist(err) {
		t.Error("lock file still exists after Release()")
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	again, err := Acquire(context.Background(), dir, "run-2")
	if err != nil {
		t.Fatalf("Acquire() after Release() error = %v", err)
	}
	again.Release()
}
