package builtin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/engine"
	"github.com/dshills/commander/internal/history"
	"github.com/dshills/commander/internal/host/memhost"
	"github.com/dshills/commander/internal/input/key"
	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/registry"
	"github.com/dshills/commander/internal/session"
)

var (
	enter  = key.NewSpecialEvent(key.KeyEnter, 0)
	escape = key.NewSpecialEvent(key.KeyEscape, 0)
)

type fixture struct {
	doc   *memhost.Document
	win   *memhost.Window
	view  *memhost.View
	entry *memhost.Entry
	reg   *registry.Registry
	sess  *session.Session
}

func newFixture(t *testing.T, path, text string) *fixture {
	t.Helper()
	reg := registry.New(registry.WithLogger(logging.Discard()))
	Register(reg, reg, WithLogger(logging.Discard()))

	doc := memhost.NewDocument(path, text)
	win := memhost.NewWindow()
	view := memhost.NewView(doc, win)
	entry := memhost.NewEntry(view)
	eng := engine.New(reg, engine.WithLogger(logging.Discard()))
	hist := history.New(filepath.Join(t.TempDir(), "history"))

	return &fixture{
		doc:   doc,
		win:   win,
		view:  view,
		entry: entry,
		reg:   reg,
		sess: session.New(entry, eng, reg, hist,
			session.WithLogger(logging.Discard()),
			session.WithWaitDelay(time.Hour)),
	}
}

func (f *fixture) run(line string) {
	f.entry.SetText(line)
	f.sess.KeyPress(enter)
}

// settle pumps posted work until the bar is no longer suspended.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for f.sess.Suspended() {
		require.True(t, time.Now().Before(deadline), "command did not finish")
		f.entry.Pump(100 * time.Millisecond)
	}
}

func TestHelpShowsDoc(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("help goto")
	assert.Equal(t, []string{"Goto line number"}, f.entry.Info())
	assert.False(t, f.entry.Closed())
}

func TestHelpDefaultsToItself(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("help")
	info := f.entry.Info()
	require.NotEmpty(t, info)
	assert.Equal(t, "Show help on commands: help <command>", info[0])
}

func TestHelpRoot(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("help !!")
	info := f.entry.Info()
	require.NotEmpty(t, info)
	assert.Equal(t, "Run shell command and place output in document: !! <command>", info[0])
}

func TestHelpNotFound(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("help nosuch")
	assert.Equal(t, []string{"Error: Could not find command: nosuch"}, f.entry.Info())
}

func TestHelpText(t *testing.T) {
	zoom := command.NewCommand("zoom-in", &command.Spec{Doc: "Zoom in"}, nil)
	bare := command.NewCommand("bare", &command.Spec{}, nil)

	assert.Equal(t, "Zoom in", helpText("zo-i", zoom))
	assert.Equal(t, "Zoom in", helpText("view.zoom-in", zoom))
	assert.Equal(t, "(Alias): Zoom in", helpText("magnify", zoom))
	assert.Equal(t, "bare\n\nNo documentation available", helpText("bare", bare))
}

func TestReload(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("reload !")
	assert.Empty(t, f.entry.Info())
	assert.False(t, f.entry.Closed())

	names := make(map[string]bool)
	for _, n := range f.reg.Modules() {
		names[n.Name()] = true
	}
	assert.True(t, names["!"], "roots are restored after reload")
	assert.True(t, names["shell"])
}

func TestReloadNotFound(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("reload nosuch")
	assert.Equal(t, []string{"Error: Could not find command: nosuch"}, f.entry.Info())
}

func TestTopModule(t *testing.T) {
	top := command.NewModule("top", "", false)
	top.Load(command.NewStaticUnit().AddModule("sub", command.NewStaticUnit().Add("leaf", &command.Spec{})))

	sub, ok := command.Find(top.Children(), "sub")
	require.True(t, ok)
	leaf, ok := command.Find(sub.(*command.Module).Children(), "leaf")
	require.True(t, ok)

	assert.Same(t, top, topModule(leaf))
	assert.Same(t, top, topModule(sub))
	assert.Same(t, top, topModule(top))
}

func TestGoto(t *testing.T) {
	tests := []struct {
		line   string
		start  int
		want   int
		column int
	}{
		{"goto 2", 0, 1, 0},
		{"goto +1", 1, 2, 0},
		{"goto -1", 2, 1, 0},
		{"goto -10", 1, 0, 0},
		{"goto 99", 0, 3, 0},
		{"goto 2 3", 0, 1, 2},
		{"goto 2 99", 0, 1, 3},
		{"goto 2 0", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFixture(t, "", "one\ntwo\nthree\nfour")
			f.doc.Goto(tt.start, 0)

			f.run(tt.line)
			assert.Empty(t, f.entry.Info())
			assert.Equal(t, tt.want, f.doc.CursorLine())
			assert.Equal(t, tt.column, f.doc.CursorColumn())
			assert.True(t, f.entry.Closed())
		})
	}
}

func TestGotoInvalid(t *testing.T) {
	for _, line := range []string{"goto x", "goto +x", "goto 2 y"} {
		f := newFixture(t, "", "one\ntwo")
		f.run(line)
		assert.Equal(t, []string{"Error: Please specify a valid line number"}, f.entry.Info(), line)
	}
}

func TestGotoMissingLine(t *testing.T) {
	f := newFixture(t, "", "one")
	f.run("goto")
	assert.Equal(t, []string{"Error: Invalid number of arguments (need line)"}, f.entry.Info())
}

func TestEdit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	f := newFixture(t, filepath.Join(dir, "doc.go"), "")
	f.run("edit *.txt")
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, f.win.Opened())
	assert.True(t, f.entry.Closed())

	f = newFixture(t, filepath.Join(dir, "doc.go"), "")
	f.run("edit new.go")
	assert.Equal(t, []string{filepath.Join(dir, "new.go")}, f.win.Opened())

	f = newFixture(t, filepath.Join(dir, "doc.go"), "")
	abs := filepath.Join(dir, "c.go")
	f.run("edit " + abs)
	assert.Equal(t, []string{abs}, f.win.Opened())
}

func TestShellOutput(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, filepath.Join(dir, "doc.txt"), "")

	f.run("! echo one; echo two; pwd")
	assert.True(t, f.sess.Suspended())
	assert.False(t, f.entry.Sensitive())

	f.settle(t)
	assert.True(t, f.entry.Sensitive())
	assert.Equal(t, 0, f.sess.State().Len())
	assert.False(t, f.entry.Closed())

	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	info := f.entry.Info()
	require.Len(t, info, 3)
	assert.Equal(t, []string{"one", "two"}, info[:2])
	assert.Contains(t, []string{dir, real}, info[2])
}

func TestShellInputMarker(t *testing.T) {
	f := newFixture(t, "", "b\nc\na\n")

	f.run("! sort <!")
	f.settle(t)
	assert.Equal(t, []string{"a", "b", "c"}, f.entry.Info())
}

func TestShellReplace(t *testing.T) {
	f := newFixture(t, "", "keep\nb\na\n")
	f.doc.Select(5, 9)

	f.run("!! sort <!")
	assert.False(t, f.view.Editable())

	f.settle(t)
	assert.True(t, f.view.Editable())
	assert.Equal(t, "keep\na\nb\n", f.doc.Text())
	assert.Empty(t, f.entry.Info())
}

func TestShellBackground(t *testing.T) {
	f := newFixture(t, "", "")

	f.run("!& true")
	assert.False(t, f.sess.Suspended())
	assert.True(t, f.entry.Closed())
}

func TestShellEscapeStopsCommand(t *testing.T) {
	f := newFixture(t, "", "")

	start := time.Now()
	f.run("! sleep 30")
	require.True(t, f.sess.Suspended())

	f.sess.KeyPress(escape)
	f.settle(t)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, 0, f.sess.State().Len())
	assert.True(t, f.entry.Sensitive())
}

func TestShellReplaceLocksViewUntilEscape(t *testing.T) {
	f := newFixture(t, "", "a\n")
	f.doc.Select(0, 2)

	f.run("!! sleep 30")
	require.True(t, f.sess.Suspended())
	assert.False(t, f.view.Editable())

	f.sess.KeyPress(escape)
	f.settle(t)
	assert.True(t, f.view.Editable())
	assert.Equal(t, "a\n", f.doc.Text())
}

func TestShellErrors(t *testing.T) {
	f := newFixture(t, "", "")
	f.run("!")
	assert.Equal(t, []string{"Error: Please specify a command to run"}, f.entry.Info())

	reg := registry.New(registry.WithLogger(logging.Discard()))
	reg.Register("shell", Shell(filepath.Join(t.TempDir(), "no-such-shell"), logging.Discard()))
	entry := memhost.NewEntry(memhost.NewView(memhost.NewDocument("", ""), memhost.NewWindow()))
	eng := engine.New(reg, engine.WithLogger(logging.Discard()))
	st := engine.NewState()

	text := "! echo hi"
	_, err := eng.Execute(st, text, engine.ParseWords(text), entry, 0)
	require.Error(t, err)
	assert.True(t, command.IsDeclared(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to execute: "), err.Error())
}
