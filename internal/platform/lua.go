package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// familyFlags are exposed as platform.is_<family> booleans.
var familyFlags = []string{FamilyDebian, FamilyRHEL, FamilyFedora, FamilySUSE, FamilyArch, FamilyAlpine}

// InjectTable installs a read-only global "platform" table describing info.
// Call it before running any user configuration code.
func InjectTable(L *lua.LState, info *Info) {
	tbl := L.NewTable()

	L.SetField(tbl, "os", lua.LString(info.OS))
	L.SetField(tbl, "arch", lua.LString(info.Arch))
	L.SetField(tbl, "hostname", lua.LString(info.Hostname))
	L.SetField(tbl, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(tbl, "is_macos", lua.LBool(info.OS == "darwin"))
	L.SetField(tbl, "is_windows", lua.LBool(info.OS == "windows"))

	if info.IsLinux() && info.Distro != "" {
		L.SetField(tbl, "distro", lua.LString(info.Distro))
		L.SetField(tbl, "family", lua.LString(info.Family))
		L.SetField(tbl, "version", lua.LString(info.DistroVersion))
	}

	for _, family := range familyFlags {
		L.SetField(tbl, "is_"+family, lua.LBool(info.IsFamily(family)))
	}

	// when(cond, value) returns value if cond holds, nil otherwise
	L.SetField(tbl, "when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", readOnly(L, tbl))
}

// readOnly wraps tbl in an empty proxy whose metatable forwards reads and
// rejects writes.
func readOnly(L *lua.LState, tbl *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", tbl)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
