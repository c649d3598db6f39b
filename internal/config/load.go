package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/ZebulonRouseFrantzich/handoff/internal/platform"
	"github.com/sethvargo/go-envconfig"
)

// Loader layers configuration sources over a base Settings.
type Loader struct {
	// Detector supplies the platform table for Lua files. Nil leaves the
	// table undefined.
	Detector platform.Detector
	// Lookuper resolves environment variables. Nil uses the process
	// environment.
	Lookuper envconfig.Lookuper
	// DotEnv is the .env file consulted after the environment. Empty skips it.
	DotEnv string
}

// NewLoader returns a Loader reading the process environment and ./.env.
func NewLoader(detector platform.Detector) *Loader {
	return &Loader{Detector: detector, DotEnv: DefaultDotEnv}
}

// Load applies .env, environment and the optional Lua file over base, then
// validates the result.
func (l *Loader) Load(ctx context.Context, base Settings) (*Settings, error) {
	s := base
	s.InterpreterArgs = slices.Clone(base.InterpreterArgs)
	s.Methods = slices.Clone(base.Methods)
	s.ErrorMarkers = slices.Clone(base.ErrorMarkers)

	var dotenv map[string]string
	if l.DotEnv != "" {
		vars, err := readDotEnv(l.DotEnv)
		if err != nil {
			return nil, err
		}
		dotenv = vars
	}

	if err := applyEnv(ctx, &s, envLookuper(l.Lookuper, dotenv)); err != nil {
		return nil, err
	}

	if s.ConfigFile != "" {
		var info *platform.Info
		if l.Detector != nil {
			detected, err := l.Detector.Detect(ctx)
			if err != nil {
				return nil, fmt.Errorf("platform detection failed: %w", err)
			}
			info = detected
		}
		if err := applyLuaFile(ctx, &s, s.ConfigFile, info); err != nil {
			return nil, fmt.Errorf("config file %s: %w", s.ConfigFile, err)
		}
	}

	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
