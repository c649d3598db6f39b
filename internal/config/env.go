package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DefaultDotEnv is the .env file read from the working directory.
const DefaultDotEnv = ".env"

// readDotEnv returns the variables in path. A missing file yields nil.
func readDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vars, nil
}

// envLookuper resolves variables from the environment first and the .env
// file second, so the real environment always wins.
func envLookuper(env envconfig.Lookuper, dotenv map[string]string) envconfig.Lookuper {
	if env == nil {
		env = envconfig.OsLookuper()
	}
	if len(dotenv) == 0 {
		return env
	}
	return envconfig.MultiLookuper(env, envconfig.MapLookuper(dotenv))
}

// errorMarkersVar is resolved by hand because envconfig treats an empty
// value like an unset one.
const errorMarkersVar = "HANDOFF_ERROR_MARKERS"

// applyEnv overrides s with every HANDOFF_* variable l can resolve. Fields
// whose variable is unset keep their current value. A set but empty
// HANDOFF_ERROR_MARKERS disables marker matching.
func applyEnv(ctx context.Context, s *Settings, l envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           s,
		Lookuper:         l,
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if v, ok := l.Lookup(errorMarkersVar); ok && strings.TrimSpace(v) == "" {
		s.ErrorMarkers = []string{}
	}
	return nil
}
