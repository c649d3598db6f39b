package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectTable_Linux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectTable(L, &Info{
		Hostname:      "edge-1",
		OS:            "linux",
		Arch:          "amd64",
		Distro:        "ubuntu",
		Family:        FamilyDebian,
		DistroVersion: "22.04",
	})

	tests := []struct {
		code string
		want lua.LValue
	}{
		{`return platform.os`, lua.LString("linux")},
		{`return platform.arch`, lua.LString("amd64")},
		{`return platform.hostname`, lua.LString("edge-1")},
		{`return platform.is_linux`, lua.LTrue},
		{`return platform.is_macos`, lua.LFalse},
		{`return platform.distro`, lua.LString("ubuntu")},
		{`return platform.family`, lua.LString("debian")},
		{`return platform.version`, lua.LString("22.04")},
		{`return platform.is_debian`, lua.LTrue},
		{`return platform.is_rhel`, lua.LFalse},
		{`return platform.when(platform.is_debian, "python3")`, lua.LString("python3")},
		{`return platform.when(platform.is_alpine, "python3")`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if err := L.DoString(tt.code); err != nil {
				t.Fatalf("DoString() error = %v", err)
			}
			got := L.Get(-1)
			L.Pop(1)

			if got.Type() != tt.want.Type() || got.String() != tt.want.String() {
				t.Errorf("got %v (%v), want %v (%v)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestInjectTable_NonLinuxHasNoDistro(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectTable(L, &Info{OS: "darwin", Arch: "arm64"})

	if err := L.DoString(`return platform.distro`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if got := L.Get(-1); got != lua.LNil {
		t.Errorf("platform.distro = %v, want nil", got)
	}
}

func TestInjectTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectTable(L, &Info{OS: "linux", Arch: "amd64"})

	err := L.DoString(`platform.os = "windows"`)
	if err == nil {
		t.Fatal("expected write to platform table to fail")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("error = %v, want read-only error", err)
	}

	if err := L.DoString(`setmetatable(platform, {})`); err == nil {
		t.Error("expected setmetatable on platform table to fail")
	}
}
