package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/handoff/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

const (
	luaGlobal = "handoff"

	// MaxConfigSize bounds the Lua file read from disk.
	MaxConfigSize = 1 << 20

	// DefaultParseTimeout applies when the context carries no deadline.
	DefaultParseTimeout = 5 * time.Second
)

// ParseError is a Lua configuration failure with a short message and the raw
// interpreter detail.
type ParseError struct {
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

type luaSetter func(s *Settings, v lua.LValue) error

// luaFields maps keys of the handoff table onto settings.
var luaFields = map[string]luaSetter{
	"url":              stringField(func(s *Settings, v string) { s.URL = v }),
	"artifact":         stringField(func(s *Settings, v string) { s.ArtifactPath = v }),
	"debug_log":        stringField(func(s *Settings, v string) { s.DebugLogPath = v }),
	"interpreter":      stringField(func(s *Settings, v string) { s.Interpreter = v }),
	"interpreter_args": listField(func(s *Settings, v []string) { s.InterpreterArgs = v }),
	"mode":             stringField(func(s *Settings, v string) { s.HandoffMode = v }),
	"probe_host":       stringField(func(s *Settings, v string) { s.ProbeHost = v }),
	"probe_mode":       stringField(func(s *Settings, v string) { s.ProbeMode = v }),
	"probe_timeout":    durationField(func(s *Settings, v time.Duration) { s.ProbeTimeout = v }),
	"methods":          listField(func(s *Settings, v []string) { s.Methods = v }),
	"user_agent":       stringField(func(s *Settings, v string) { s.UserAgent = v }),
	"http_timeout":     durationField(func(s *Settings, v time.Duration) { s.HTTPTimeout = v }),
	"min_size":         intField(func(s *Settings, v int64) { s.MinSize = v }),
	"preview_lines":    intField(func(s *Settings, v int64) { s.PreviewLines = int(v) }),
	"content_check":    boolField(func(s *Settings, v bool) { s.ContentCheck = v }),
	"error_markers":    listField(func(s *Settings, v []string) { s.ErrorMarkers = v }),
	"sha256":           stringField(func(s *Settings, v string) { s.SHA256 = v }),
	"signature_url":    stringField(func(s *Settings, v string) { s.SignatureURL = v }),
	"signature_kind":   stringField(func(s *Settings, v string) { s.SignatureKind = v }),
	"key":              stringField(func(s *Settings, v string) { s.KeyPath = v }),
	"require_root":     boolField(func(s *Settings, v bool) { s.RequireRoot = v }),
	"lock_dir":         stringField(func(s *Settings, v string) { s.LockDir = v }),
}

// applyLuaFile runs the Lua file at path and applies its handoff table to s.
func applyLuaFile(ctx context.Context, s *Settings, path string, info *platform.Info) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if st.Size() > MaxConfigSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigSize)
	}

	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return applyLua(ctx, s, string(code), path, info)
}

// applyLua evaluates code in a sandboxed VM and applies the resulting handoff
// table to s. info, when non-nil, is exposed as the platform table.
func applyLua(ctx context.Context, s *Settings, code, chunk string, info *platform.Info) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if info != nil {
		platform.InjectTable(L, info)
	}

	fn, err := L.Load(strings.NewReader(code), chunk)
	if err != nil {
		return &ParseError{Message: "Lua syntax error", Detail: err.Error()}
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if ctx.Err() != nil {
			return &ParseError{Message: "Lua evaluation timed out", Detail: ctx.Err().Error()}
		}
		return &ParseError{Message: "Lua runtime error", Detail: err.Error()}
	}

	val := L.GetGlobal(luaGlobal)
	tbl, ok := val.(*lua.LTable)
	if !ok {
		return &ParseError{
			Message: "missing or invalid 'handoff' table",
			Detail:  fmt.Sprintf("expected table, got %s", val.Type()),
		}
	}
	return extractSettings(tbl, s)
}

// extractSettings applies tbl to s in key order so errors are deterministic.
func extractSettings(tbl *lua.LTable, s *Settings) error {
	var keys []string
	var bad lua.LValue
	tbl.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			keys = append(keys, string(ks))
		} else if bad == nil {
			bad = k
		}
	})
	if bad != nil {
		return &ParseError{Message: "invalid 'handoff' table", Detail: fmt.Sprintf("non-string key %s", bad.String())}
	}
	sort.Strings(keys)

	for _, key := range keys {
		set, ok := luaFields[key]
		if !ok {
			return &ValidationError{Field: key, Message: "unknown field"}
		}
		if err := set(s, tbl.RawGetString(key)); err != nil {
			return &ValidationError{Field: key, Message: err.Error()}
		}
	}
	return nil
}

func typeError(want string, v lua.LValue) error {
	return fmt.Errorf("expected %s, got %s", want, v.Type())
}

func stringField(set func(*Settings, string)) luaSetter {
	return func(s *Settings, v lua.LValue) error {
		str, ok := v.(lua.LString)
		if !ok {
			return typeError("string", v)
		}
		set(s, string(str))
		return nil
	}
}

func boolField(set func(*Settings, bool)) luaSetter {
	return func(s *Settings, v lua.LValue) error {
		b, ok := v.(lua.LBool)
		if !ok {
			return typeError("boolean", v)
		}
		set(s, bool(b))
		return nil
	}
}

func intField(set func(*Settings, int64)) luaSetter {
	return func(s *Settings, v lua.LValue) error {
		n, ok := v.(lua.LNumber)
		if !ok {
			return typeError("number", v)
		}
		f := float64(n)
		if f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %v", f)
		}
		set(s, int64(f))
		return nil
	}
}

// durationField accepts a Go duration string ("30s") or a number of seconds.
func durationField(set func(*Settings, time.Duration)) luaSetter {
	return func(s *Settings, v lua.LValue) error {
		switch val := v.(type) {
		case lua.LString:
			d, err := time.ParseDuration(string(val))
			if err != nil {
				return err
			}
			set(s, d)
		case lua.LNumber:
			set(s, time.Duration(float64(val)*float64(time.Second)))
		default:
			return typeError("duration string or seconds", v)
		}
		return nil
	}
}

// listField reads an array of strings. Nil holes left by platform
// conditionals are skipped.
func listField(set func(*Settings, []string)) luaSetter {
	return func(s *Settings, v lua.LValue) error {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return typeError("list of strings", v)
		}
		list := make([]string, 0, tbl.Len())
		var err error
		tbl.ForEach(func(_, item lua.LValue) {
			if err != nil || item == lua.LNil {
				return
			}
			str, ok := item.(lua.LString)
			if !ok {
				err = typeError("string list item", item)
				return
			}
			list = append(list, string(str))
		})
		if err != nil {
			return err
		}
		set(s, list)
		return nil
	}
}
