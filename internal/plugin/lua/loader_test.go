package lua

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/host/memhost"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadSource(t *testing.T, src string, opts ...LoaderOption) command.Unit {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.lua")
	writeFile(t, path, src)

	u, err := NewLoader(opts...).Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { u.Close() })
	return u
}

func findSpec(t *testing.T, u command.Unit, name string) *command.Spec {
	t.Helper()
	for _, e := range u.Exports() {
		if e.Name == name && e.Spec != nil {
			return e.Spec
		}
	}
	t.Fatalf("export %q not found", name)
	return nil
}

func newEntry() *memhost.Entry {
	doc := memhost.NewDocument("", "one\ntwo\nthree\n")
	return memhost.NewEntry(memhost.NewView(doc, memhost.NewWindow()))
}

func call(t *testing.T, spec *command.Spec, entry *memhost.Entry, words []string, opts map[string]any) (any, error) {
	t.Helper()
	ctx := command.NewContext(entry, strings.Join(words, " "), words, 0)
	c, err := command.Bind(spec.Call.Params(), ctx, words, opts)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return spec.Call.Call(c)
}

func TestLoaderMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "single.lua"), "return {}")
	writeFile(t, filepath.Join(dir, "pkg", "init.lua"), "return {}")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, ".hidden.lua"), "return {}")
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path  string
		name  string
		isDir bool
		ok    bool
	}{
		{"single.lua", "single", false, true},
		{"pkg", "pkg", true, true},
		{"notes.txt", "", false, false},
		{".hidden.lua", "", false, false},
		{"empty", "", false, false},
		{"missing.lua", "", false, false},
	}

	ld := NewLoader()
	for _, tt := range tests {
		name, isDir, ok := ld.Match(filepath.Join(dir, tt.path))
		if name != tt.name || isDir != tt.isDir || ok != tt.ok {
			t.Errorf("Match(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.path, name, isDir, ok, tt.name, tt.isDir, tt.ok)
		}
	}
}

func TestLoadExports(t *testing.T) {
	u := loadSource(t, `
local M = {}
M.greet = commander.command(function(entry, name) end, { doc = "Say hello" })
M.plain = function() end
M._private = function() end
M.__default = function() end
M.__root = { "greet" }
M.number = 42
M.sub = commander.module({ inner = function() end })
return M
`)

	var names []string
	for _, e := range u.Exports() {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "greet,plain,sub" {
		t.Errorf("exports = %s, want greet,plain,sub", got)
	}
	if got := u.Roots(); len(got) != 1 || got[0] != "greet" {
		t.Errorf("Roots() = %v", got)
	}
	if u.Default() == nil {
		t.Error("expected a default command")
	}

	greet := findSpec(t, u, "greet")
	if greet.Doc != "Say hello" {
		t.Errorf("Doc = %q", greet.Doc)
	}
	if got := greet.Call.Params().Positional(); len(got) != 1 || got[0] != "name" {
		t.Errorf("Positional() = %v, want [name]", got)
	}

	for _, e := range u.Exports() {
		if e.Name == "sub" {
			if e.Module == nil || len(e.Module.Exports()) != 1 {
				t.Errorf("sub module exports = %v", e.Module)
			}
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	notTable := filepath.Join(dir, "nt.lua")
	writeFile(t, notTable, "return 1")
	broken := filepath.Join(dir, "broken.lua")
	writeFile(t, broken, "this is not lua")
	sandboxed := filepath.Join(dir, "sandboxed.lua")
	writeFile(t, sandboxed, `dofile("/etc/passwd") return {}`)

	ld := NewLoader()
	if _, err := ld.Load(notTable, false); !errors.Is(err, ErrNotModule) {
		t.Errorf("Load(not table) error = %v, want ErrNotModule", err)
	}
	if _, err := ld.Load(broken, false); err == nil {
		t.Error("Load(broken) expected error")
	}
	if _, err := ld.Load(sandboxed, false); err == nil {
		t.Error("Load(dofile) expected error")
	}
}

func TestCallReturnsResult(t *testing.T) {
	u := loadSource(t, `
return {
	greet = function(entry, name)
		entry:info_show("hello " .. name)
		return commander.DONE
	end,
}
`)
	entry := newEntry()

	v, err := call(t, findSpec(t, u, "greet"), entry, []string{"world"}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != command.Done {
		t.Errorf("Call() = %v, want Done", v)
	}
	if got := entry.Info(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("Info() = %v", got)
	}
}

func TestCallDefaultsAndRest(t *testing.T) {
	u := loadSource(t, `
return {
	pos = commander.command(function(view, line, column, ...)
		return line .. ":" .. column .. ":" .. select("#", ...)
	end, { defaults = { column = 1 } }),
}
`)
	spec := findSpec(t, u, "pos")

	if got := spec.Call.Params().String(); got != "line [column=1] rest..." {
		t.Errorf("Params() = %q", got)
	}

	v, err := call(t, spec, newEntry(), []string{"3"}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != "3:1:0" {
		t.Errorf("Call() = %v, want 3:1:0", v)
	}

	v, err = call(t, spec, newEntry(), []string{"3", "7", "a", "b"}, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != "3:7:2" {
		t.Errorf("Call() = %v, want 3:7:2", v)
	}
}

func TestCallOptionsOverride(t *testing.T) {
	u := loadSource(t, `
return {
	mode = commander.command(function(mode) return mode end, {
		defaults = { mode = "slow" },
		accelerator = "<Control>m",
		arguments = { mode = "fast" },
	}),
}
`)
	spec := findSpec(t, u, "mode")

	if spec.Accelerator == nil || spec.Accelerator.Keys[0] != "<Control>m" {
		t.Fatalf("Accelerator = %v", spec.Accelerator)
	}
	v, err := call(t, spec, newEntry(), nil, spec.Accelerator.Arguments)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != "fast" {
		t.Errorf("Call() = %v, want fast", v)
	}
}

func TestDeclaredError(t *testing.T) {
	u := loadSource(t, `return { bad = function() commander.error("bad input") end }`)

	_, err := call(t, findSpec(t, u, "bad"), newEntry(), nil, nil)
	if !command.IsDeclared(err) {
		t.Fatalf("error = %v, want declared", err)
	}
	if err.Error() != "bad input" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestScriptError(t *testing.T) {
	u := loadSource(t, `return { boom = function() error("boom") end }`)

	_, err := call(t, findSpec(t, u, "boom"), newEntry(), nil, nil)
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T %v, want *ScriptError", err, err)
	}
	if !strings.Contains(se.Msg, "boom") {
		t.Errorf("Msg = %q", se.Msg)
	}
	if command.IsDeclared(err) {
		t.Error("script errors are undeclared")
	}
}

func TestGeneratorAsk(t *testing.T) {
	u := loadSource(t, `
return {
	ask = function(entry)
		local reply, args = commander.ask("Name:")
		entry:info_show(reply .. " " .. #args)
		return commander.DONE
	end,
}
`)
	entry := newEntry()

	v, err := call(t, findSpec(t, u, "ask"), entry, nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	gen, ok := v.(command.Generator)
	if !ok {
		t.Fatalf("Call() = %T, want Generator", v)
	}

	y, done, err := gen.Resume(nil)
	if err != nil || done {
		t.Fatalf("first Resume = (%v, %v, %v)", y, done, err)
	}
	p, ok := y.(*command.Prompt)
	if !ok || p.Text != "Name:" {
		t.Fatalf("yielded %v, want prompt", y)
	}

	y, done, err = gen.Resume(command.Reply{ArgStr: "bob smith", Args: []string{"bob", "smith"}})
	if err != nil || done || y != command.Done {
		t.Fatalf("second Resume = (%v, %v, %v), want Done", y, done, err)
	}
	if got := entry.Info(); len(got) != 1 || got[0] != "bob smith 2" {
		t.Errorf("Info() = %v", got)
	}

	_, done, err = gen.Resume(nil)
	if !done || err != nil {
		t.Errorf("final Resume = (%v, %v)", done, err)
	}
}

func TestGeneratorThrow(t *testing.T) {
	u := loadSource(t, `
return {
	ask = function()
		commander.ask("Name:")
		return "unreachable"
	end,
}
`)
	v, err := call(t, findSpec(t, u, "ask"), newEntry(), nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	gen := v.(command.Generator)
	if _, _, err := gen.Resume(nil); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	_, done, err := gen.Throw(boom)
	if !done || !errors.Is(err, boom) {
		t.Errorf("Throw = (%v, %v), want done with boom", done, err)
	}
}

func TestGeneratorCloseRunsFinally(t *testing.T) {
	u := loadSource(t, `
return {
	job = function(entry)
		commander.finally(function() entry:info_show("cleanup") end)
		commander.ask("Name:")
		entry:info_show("not reached")
	end,
}
`)
	entry := newEntry()

	v, err := call(t, findSpec(t, u, "job"), entry, nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	gen := v.(command.Generator)
	if _, _, err := gen.Resume(nil); err != nil {
		t.Fatal(err)
	}
	if err := gen.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := entry.Info(); len(got) != 1 || got[0] != "cleanup" {
		t.Errorf("Info() = %v, want [cleanup]", got)
	}
	if err := gen.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestFinallyOnReturn(t *testing.T) {
	u := loadSource(t, `
return {
	job = function(entry)
		commander.finally(function() entry:info_show("first") end)
		commander.finally(function() entry:info_show("second") end)
		return commander.HIDE
	end,
}
`)
	entry := newEntry()

	v, err := call(t, findSpec(t, u, "job"), entry, nil, nil)
	if err != nil || v != command.Hide {
		t.Fatalf("Call() = (%v, %v)", v, err)
	}
	if got := strings.Join(entry.Info(), ","); got != "second,first" {
		t.Errorf("Info() = %s, want second,first", got)
	}
}

func TestWaitSuspends(t *testing.T) {
	u := loadSource(t, `return { nap = function() commander.wait(1) return commander.DONE end }`)

	v, err := call(t, findSpec(t, u, "nap"), newEntry(), nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	gen := v.(command.Generator)
	y, _, err := gen.Resume(nil)
	if err != nil {
		t.Fatal(err)
	}
	sus, ok := y.(*command.Suspend)
	if !ok {
		t.Fatalf("yielded %T, want *command.Suspend", y)
	}

	resumed := make(chan struct{})
	sus.Register(func() { close(resumed) })
	<-resumed

	y, _, err = gen.Resume(command.Reply{})
	if err != nil || y != command.Done {
		t.Errorf("Resume = (%v, %v), want Done", y, err)
	}
}

func TestUnitCloseClosesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.lua")
	writeFile(t, path, `return { hi = function() return "hi" end }`)
	u, err := NewLoader().Load(path, false)
	if err != nil {
		t.Fatal(err)
	}
	spec := findSpec(t, u, "hi")

	if err := u.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := call(t, spec, newEntry(), nil, nil); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close error = %v, want ErrStateClosed", err)
	}
}

func TestDirectoryModuleRequire(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pkg")
	writeFile(t, filepath.Join(dir, "init.lua"), `
local util = require("util")
return { shout = function(word) return util.upper(word) end }
`)
	writeFile(t, filepath.Join(dir, "util.lua"), `
return { upper = function(s) return string.upper(s) end }
`)

	u, err := NewLoader().Load(dir, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer u.Close()

	v, err := call(t, findSpec(t, u, "shout"), newEntry(), []string{"hey"}, nil)
	if err != nil || v != "HEY" {
		t.Errorf("Call() = (%v, %v), want HEY", v, err)
	}
}

func TestRequireOutsideModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.lua")
	writeFile(t, path, `require("other") return {}`)

	if _, err := NewLoader().Load(path, false); err == nil {
		t.Error("expected require to fail in a single-file module")
	}
}

func TestCompleters(t *testing.T) {
	u := loadSource(t, `
return {
	open = commander.command(function(path, name, kind) end, {
		autocomplete = {
			path = "files",
			name = function(word) return { "alpha", "beta", "alpine" } end,
			kind = { "red", "green" },
		},
	}),
}
`, WithNamedCompleters(map[string]command.Completer{"files": completion.Words("a.txt")}))
	spec := findSpec(t, u, "open")

	if len(spec.Autocomplete) != 3 {
		t.Fatalf("Autocomplete = %v", spec.Autocomplete)
	}

	c, ok := spec.Autocomplete["name"](command.CompletionRequest{Words: []string{"al"}})
	if !ok {
		t.Fatal("name completer found nothing")
	}
	if got := strings.Join(c.Items, ","); got != "alpha,alpine" || c.Completed != "alp" {
		t.Errorf("completion = %s / %q", got, c.Completed)
	}

	c, ok = spec.Autocomplete["kind"](command.CompletionRequest{Words: []string{"g"}})
	if !ok || c.Completed != "green" {
		t.Errorf("kind completion = %v", c)
	}

	c, ok = spec.Autocomplete["path"](command.CompletionRequest{Words: []string{"a"}})
	if !ok || c.Completed != "a.txt" {
		t.Errorf("path completion = %v", c)
	}
}

func TestDocumentMethods(t *testing.T) {
	u := loadSource(t, `
return {
	edit = function(view)
		local doc = view:document()
		doc:goto_line(2)
		return doc:cursor_line() .. "/" .. doc:line_count()
	end,
}
`)
	v, err := call(t, findSpec(t, u, "edit"), newEntry(), nil, nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != "2/4" {
		t.Errorf("Call() = %v", v)
	}
}
