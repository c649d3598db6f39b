// Package config resolves handoff's runtime settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. built-in defaults ([Default]),
//  2. a .env file in the working directory, if present,
//  3. HANDOFF_* environment variables,
//  4. an optional Lua file named by HANDOFF_CONFIG.
//
// The Lua file runs in a restricted gopher-lua VM with the read-only platform
// table injected, and sets a global "handoff" table:
//
//	handoff = {
//	    url = "https://example.com/setup.py",
//	    methods = platform.is_alpine and { "wget", "http" } or nil,
//	    min_size = 512,
//	}
//
// Fields left nil keep the value from the previous layers.
package config
