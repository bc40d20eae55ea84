package lua

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts what module code can reach. Loading code from outside
// the module is not possible: the loader globals are removed and require
// only resolves files inside the module directory.
type Sandbox struct {
	L *lua.LState

	dir    string
	loaded map[string]lua.LValue
	files  []string
}

// builtinModules can be required by name; they are already open.
var builtinModules = map[string]bool{
	"string":    true,
	"table":     true,
	"math":      true,
	"coroutine": true,
	"os":        true,
}

// NewSandbox creates a sandbox. dir is the module directory, "" for a
// single-file module.
func NewSandbox(L *lua.LState, dir string) *Sandbox {
	return &Sandbox{
		L:      L,
		dir:    dir,
		loaded: make(map[string]lua.LValue),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installOS()
	s.L.SetGlobal("require", s.L.NewFunction(s.require))
}

// installOS provides the harmless part of the os library.
func (s *Sandbox) installOS() {
	osMod := s.L.NewTable()

	s.L.SetField(osMod, "getenv", s.L.NewFunction(func(L *lua.LState) int {
		value, ok := os.LookupEnv(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(value))
		}
		return 1
	}))

	s.L.SetField(osMod, "time", s.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(time.Now().Unix()))
		return 1
	}))

	start := time.Now()
	s.L.SetField(osMod, "clock", s.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(time.Since(start).Seconds()))
		return 1
	}))

	s.L.SetGlobal("os", osMod)
}

// require loads name.lua (dots separate directories) from the module
// directory once per state.
func (s *Sandbox) require(L *lua.LState) int {
	name := L.CheckString(1)

	if builtinModules[name] {
		L.Push(L.GetGlobal(name))
		return 1
	}
	if v, ok := s.loaded[name]; ok {
		L.Push(v)
		return 1
	}
	if s.dir == "" {
		L.RaiseError("module %q is not available", name)
		return 0
	}

	path := filepath.Join(s.dir, filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))+".lua")
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		L.RaiseError("module %q is outside the module directory", name)
		return 0
	}

	fn, err := L.LoadFile(path)
	if err != nil {
		L.RaiseError("module %q: %s", name, err.Error())
		return 0
	}
	L.Push(fn)
	L.Call(0, 1)
	v := L.Get(-1)
	L.Pop(1)
	if v == lua.LNil {
		v = lua.LTrue
	}

	s.loaded[name] = v
	s.files = append(s.files, path)
	L.Push(v)
	return 1
}
