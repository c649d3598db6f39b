package testutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/handoff/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	t.Setenv("HANDOFF_URL", "https://leaked.example.com/x")

	env := testutil.SetupTestEnv(t)

	if _, ok := os.LookupEnv("HANDOFF_URL"); ok {
		t.Error("HANDOFF_URL should be cleared")
	}

	for key, want := range map[string]string{
		"HANDOFF_ARTIFACT":     env.ArtifactPath,
		"HANDOFF_DEBUG_LOG":    env.DebugLogPath,
		"HANDOFF_LOCK_DIR":     env.LockDir,
		"HANDOFF_REQUIRE_ROOT": "false",
	} {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	for _, path := range []string{env.ArtifactPath, env.DebugLogPath, env.LockDir} {
		if !filepath.IsAbs(path) || !strings.HasPrefix(path, env.Dir) {
			t.Errorf("path %s is not under %s", path, env.Dir)
		}
	}

	if _, err := os.Stat(env.LockDir); err != nil {
		t.Errorf("lock directory not created: %v", err)
	}
}

func TestSetupTestEnv_Isolation(t *testing.T) {
	var dirs []string
	for i := 0; i < 2; i++ {
		t.Run("run", func(t *testing.T) {
			dirs = append(dirs, testutil.SetupTestEnv(t).Dir)
		})
	}

	if dirs[0] == dirs[1] {
		t.Error("SetupTestEnv should create unique directories for each test")
	}
}
