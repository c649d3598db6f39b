// Package testutil provides utilities for testing handoff in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Env holds the isolated paths set up by SetupTestEnv.
type Env struct {
	Dir          string
	ArtifactPath string
	DebugLogPath string
	LockDir      string
}

// SetupTestEnv points every handoff path at a fresh temp directory and clears
// HANDOFF_* variables inherited from the developer's shell, so tests never
// touch a real artifact, debug log or lock. The privilege check is disabled.
//
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "HANDOFF_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}

	env := &Env{
		Dir:          tmpDir,
		ArtifactPath: filepath.Join(tmpDir, "artifact"),
		DebugLogPath: filepath.Join(tmpDir, "debug.log"),
		LockDir:      filepath.Join(tmpDir, "lock"),
	}

	t.Setenv("HANDOFF_ARTIFACT", env.ArtifactPath)
	t.Setenv("HANDOFF_DEBUG_LOG", env.DebugLogPath)
	t.Setenv("HANDOFF_LOCK_DIR", env.LockDir)
	t.Setenv("HANDOFF_REQUIRE_ROOT", "false")

	if err := os.MkdirAll(env.LockDir, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", env.LockDir, err)
	}
	return env
}
