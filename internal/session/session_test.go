package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commander/internal/accel"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/engine"
	"github.com/dshills/commander/internal/history"
	"github.com/dshills/commander/internal/host/memhost"
	"github.com/dshills/commander/internal/input/key"
	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/registry"
)

var (
	enter  = key.NewSpecialEvent(key.KeyEnter, 0)
	escape = key.NewSpecialEvent(key.KeyEscape, 0)
	tab    = key.NewSpecialEvent(key.KeyTab, 0)
	up     = key.NewSpecialEvent(key.KeyUp, 0)
	down   = key.NewSpecialEvent(key.KeyDown, 0)
)

type fixture struct {
	entry *memhost.Entry
	reg   *registry.Registry
	sess  *Session
	hist  *history.History
}

func returning(v any, err error) *command.Spec {
	return &command.Spec{Call: command.Func(nil, func(*command.Call) (any, error) { return v, err })}
}

func generator(body func(co *command.Coroutine) error) *command.Spec {
	return &command.Spec{Call: command.Func(nil, func(*command.Call) (any, error) {
		return command.Go(body), nil
	})}
}

func newFixture(t *testing.T, units map[string]command.Unit, opts ...Option) *fixture {
	t.Helper()
	reg := registry.New(registry.WithLogger(logging.Discard()))
	for name, u := range units {
		reg.Register(name, u)
	}

	doc := memhost.NewDocument("", "")
	entry := memhost.NewEntry(memhost.NewView(doc, memhost.NewWindow()))
	eng := engine.New(reg, engine.WithLogger(logging.Discard()))
	hist := history.New(filepath.Join(t.TempDir(), "history"))

	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return &fixture{
		entry: entry,
		reg:   reg,
		hist:  hist,
		sess:  New(entry, eng, reg, hist, opts...),
	}
}

func unit(spec *command.Spec) command.Unit {
	return command.NewStaticUnit().SetDefault(spec)
}

func (f *fixture) run(line string) {
	f.entry.SetText(line)
	f.sess.KeyPress(enter)
}

func TestHideClosesBar(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{"hi": unit(returning(command.Hide, nil))})

	f.run("hi")
	assert.True(t, f.entry.Closed())
	assert.Equal(t, "", f.entry.Text())
	assert.Equal(t, []string{"hi", ""}, f.hist.Lines())

	data, err := os.ReadFile(f.hist.Path())
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestDoneKeepsBarOpen(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{"stay": unit(returning(command.Done, nil))})

	f.run("stay")
	assert.False(t, f.entry.Closed())
	assert.Equal(t, "", f.entry.Text())
}

func TestEmptyLine(t *testing.T) {
	f := newFixture(t, nil)
	f.run("   ")
	assert.False(t, f.entry.Closed())
	assert.Equal(t, "", f.entry.Text())
	assert.True(t, f.entry.InfoEmpty())
}

func TestErrorShown(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{
		"bad":  unit(returning(nil, command.Errorf("Please specify a valid line number"))),
		"boom": unit(returning(nil, errors.New("boom"))),
	})

	f.run("nope")
	assert.Equal(t, []string{"Error: Could not find command: nope"}, f.entry.Info())
	assert.False(t, f.entry.Closed())

	f.run("bad")
	assert.Equal(t, []string{"Error: Please specify a valid line number"}, f.entry.Info())

	f.run("boom")
	info := f.entry.Info()
	require.Greater(t, len(info), 1)
	assert.Equal(t, "Error: boom", info[0])
}

func TestPromptConversation(t *testing.T) {
	var got string
	f := newFixture(t, map[string]command.Unit{
		"name": unit(generator(func(co *command.Coroutine) error {
			r, err := co.Ask(command.NewPrompt("Name:"))
			got = r.ArgStr
			return err
		})),
	})

	f.run("name")
	assert.Equal(t, "Name:", f.entry.Prompt())
	assert.Equal(t, 1, f.sess.State().Len())

	f.run("bob")
	assert.Equal(t, "bob", got)
	assert.Equal(t, "", f.entry.Prompt())
	assert.True(t, f.entry.Closed())
}

func TestSuspendConversation(t *testing.T) {
	sus := command.NewSuspend()
	var steps []string
	f := newFixture(t, map[string]command.Unit{
		"wait": unit(generator(func(co *command.Coroutine) error {
			steps = append(steps, "start")
			if err := co.Wait(sus); err != nil {
				return err
			}
			steps = append(steps, "resumed")
			_, err := co.Yield(command.Done)
			return err
		})),
	}, WithWaitDelay(time.Hour))

	f.run("wait")
	assert.True(t, f.sess.Suspended())
	assert.False(t, f.entry.Sensitive())

	go sus.Resume()
	require.True(t, f.entry.Pump(2*time.Second))

	assert.False(t, f.sess.Suspended())
	assert.True(t, f.entry.Sensitive())
	assert.Equal(t, []string{"start", "resumed"}, steps)
	assert.Equal(t, 0, f.sess.State().Len())
	assert.False(t, f.entry.Closed())
}

func TestSuspendedIgnoresInput(t *testing.T) {
	sus := command.NewSuspend()
	var steps []string
	f := newFixture(t, map[string]command.Unit{
		"wait": unit(generator(func(co *command.Coroutine) error {
			if err := co.Wait(sus); err != nil {
				return err
			}
			steps = append(steps, "resumed")
			_, err := co.Yield(command.Done)
			return err
		})),
	}, WithWaitDelay(time.Hour))

	f.run("wait")
	require.True(t, f.sess.Suspended())

	f.entry.SetText("typed while waiting")
	assert.True(t, f.sess.KeyPress(enter), "keys are consumed while suspended")
	f.sess.Execute(0)
	assert.True(t, f.sess.KeyPress(tab))

	assert.Empty(t, steps)
	assert.True(t, f.sess.Suspended())
	assert.False(t, f.entry.Sensitive())
	assert.Equal(t, 1, f.sess.State().Len())

	go sus.Resume()
	require.True(t, f.entry.Pump(2*time.Second))

	assert.Equal(t, []string{"resumed"}, steps)
	assert.False(t, f.sess.Suspended())
	assert.True(t, f.entry.Sensitive())
	assert.Equal(t, 0, f.sess.State().Len())
}

func TestWaitStatus(t *testing.T) {
	sus := command.NewSuspend()
	f := newFixture(t, map[string]command.Unit{
		"wait": unit(generator(func(co *command.Coroutine) error {
			return co.Wait(sus)
		})),
	}, WithWaitDelay(0))

	f.run("wait")
	require.True(t, f.entry.Pump(2*time.Second))
	assert.Equal(t, WaitStatus, f.entry.Status())

	f.sess.KeyPress(escape)
	require.True(t, f.entry.Pump(2*time.Second))
	assert.Equal(t, "", f.entry.Status())
	assert.True(t, f.entry.Sensitive())
	assert.Equal(t, 0, f.sess.State().Len())
}

func TestEscapeOrder(t *testing.T) {
	cleaned := false
	f := newFixture(t, map[string]command.Unit{
		"ask": unit(generator(func(co *command.Coroutine) error {
			defer func() { cleaned = true }()
			_, err := co.Ask(command.NewPrompt("Value:"))
			return err
		})),
	})

	f.run("ask")
	require.Equal(t, "Value:", f.entry.Prompt())

	f.entry.SetText("partial")
	f.sess.KeyPress(escape)
	assert.Equal(t, "", f.entry.Text())
	assert.Equal(t, 1, f.sess.State().Len())

	f.sess.KeyPress(escape)
	assert.Equal(t, 0, f.sess.State().Len())
	assert.True(t, cleaned)
	assert.Equal(t, "", f.entry.Prompt())
	assert.False(t, f.entry.Closed())

	f.sess.KeyPress(escape)
	assert.True(t, f.entry.Closed())
}

func TestEscapeClearsInfo(t *testing.T) {
	f := newFixture(t, nil)
	f.run("nope")
	require.False(t, f.entry.InfoEmpty())

	f.sess.KeyPress(escape)
	assert.True(t, f.entry.InfoEmpty())
	assert.False(t, f.entry.Closed())
}

func TestCancel(t *testing.T) {
	cleaned := false
	f := newFixture(t, map[string]command.Unit{
		"ask": unit(generator(func(co *command.Coroutine) error {
			defer func() { cleaned = true }()
			_, err := co.Ask(command.NewPrompt("?"))
			return err
		})),
	})
	f.run("ask")
	f.sess.Cancel()
	assert.True(t, cleaned)
	assert.Equal(t, 0, f.sess.State().Len())
	assert.Equal(t, "", f.entry.Prompt())
}

func completionFixture(t *testing.T) *fixture {
	gotoSpec := returning(command.Hide, nil)
	gotoSpec.Doc = "Go to a line\n\nMore text."
	grep := command.NewStaticUnit().
		Add("hide", returning(nil, nil)).
		Add("zoom_in", returning(nil, nil))
	open := &command.Spec{
		Call:         command.Func(command.NewParams("view", "filename"), func(*command.Call) (any, error) { return nil, nil }),
		Autocomplete: map[string]command.Completer{"filename": completion.Words("alpha", "beta", "alphabet")},
	}
	return newFixture(t, map[string]command.Unit{
		"goto": unit(gotoSpec),
		"grep": grep,
		"open": unit(open),
	})
}

func (f *fixture) complete(text string, cursor int) {
	f.entry.SetText(text)
	f.entry.SetCursor(cursor)
	f.sess.KeyPress(tab)
}

func TestCompleteCommandName(t *testing.T) {
	f := completionFixture(t)

	f.complete("got", -1)
	assert.Equal(t, "goto ", f.entry.Text())
	assert.Equal(t, 5, f.entry.Cursor())

	f.complete("g", -1)
	assert.Equal(t, "g", f.entry.Text())
	assert.Equal(t, []string{"goto (Go to a line)", "grep ()"}, f.entry.Info())

	f.complete("gre", -1)
	assert.Equal(t, "grep.", f.entry.Text())
	assert.True(t, f.entry.InfoEmpty())

	f.complete("grep.h", -1)
	assert.Equal(t, "grep.hide ", f.entry.Text())

	f.complete("grep.z-i", -1)
	assert.Equal(t, "grep.zoom-in ", f.entry.Text())
}

func TestCompleteArgument(t *testing.T) {
	f := completionFixture(t)

	f.complete("open be", -1)
	assert.Equal(t, "open beta ", f.entry.Text())

	f.complete("open al", -1)
	assert.Equal(t, "open alpha", f.entry.Text())
	assert.Equal(t, []string{"alpha", "alphabet"}, f.entry.Info())

	f.complete("open ", -1)
	assert.Equal(t, "open ", f.entry.Text())
	assert.Len(t, f.entry.Info(), 3)

	f.complete("open al", 6)
	assert.Equal(t, "open al", f.entry.Text())

	f.complete("open alpha x", -1)
	assert.Equal(t, "open alpha x", f.entry.Text())
}

func TestCompleteQuotedArgument(t *testing.T) {
	f := completionFixture(t)
	f.complete(`open "be"`, 8)
	assert.Equal(t, `open "beta" `, f.entry.Text())
}

func TestCompletePromptReply(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{
		"confirm": unit(generator(func(co *command.Coroutine) error {
			p := command.NewPrompt("Sure?").WithCompleter("*", completion.Words("yes", "no"))
			_, err := co.Ask(p)
			return err
		})),
	})
	f.run("confirm")

	f.complete("y", -1)
	assert.Equal(t, "yes ", f.entry.Text())
}

func TestAcceleratorChord(t *testing.T) {
	var opts map[string]any
	spec := &command.Spec{
		Call: command.Func(nil, func(c *command.Call) (any, error) {
			opts = c.Options
			return command.Done, nil
		}),
		Accelerator: accel.New("<Control>x", "<Control>s").WithArguments(map[string]any{"all": true}),
	}
	f := newFixture(t, map[string]command.Unit{"save": unit(spec)})

	ctrlX := key.MustParse("Ctrl+x")
	ctrlS := key.MustParse("Ctrl+s")

	f.entry.SetText("typed")
	assert.True(t, f.sess.KeyPress(ctrlX))
	assert.Equal(t, "", f.entry.Text())
	assert.Equal(t, "<Control>x", f.entry.Prompt())
	assert.False(t, f.entry.Editable())

	assert.True(t, f.sess.KeyPress(key.NewRuneEvent('q', 0)))
	assert.Nil(t, opts)

	assert.True(t, f.sess.KeyPress(ctrlS))
	assert.Equal(t, map[string]any{"all": true}, opts)
	assert.True(t, f.entry.Editable())
	assert.Equal(t, "", f.entry.Prompt())

	f.sess.KeyPress(ctrlX)
	f.sess.KeyPress(escape)
	assert.True(t, f.entry.Editable())
	assert.Equal(t, "", f.entry.Prompt())
}

func TestUnboundKeysPassThrough(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.sess.KeyPress(key.NewRuneEvent('a', 0)))
	assert.False(t, f.sess.KeyPress(key.MustParse("Ctrl+q")))
}

func TestHistoryNavigation(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{"stay": unit(returning(command.Done, nil))})
	f.run("stay 1")
	f.run("other")
	f.run("stay 2")

	f.entry.SetText("stay")
	f.sess.KeyPress(up)
	assert.Equal(t, "stay 2", f.entry.Text())
	f.sess.KeyPress(up)
	assert.Equal(t, "stay 1", f.entry.Text())
	f.sess.KeyPress(up)
	assert.Equal(t, "stay 1", f.entry.Text())

	f.sess.KeyPress(down)
	assert.Equal(t, "stay 2", f.entry.Text())
	f.sess.KeyPress(down)
	assert.Equal(t, "stay", f.entry.Text())
}

func TestHistoryWithoutPrefix(t *testing.T) {
	f := newFixture(t, map[string]command.Unit{"stay": unit(returning(command.Done, nil))})
	f.run("stay 1")
	f.run("other")

	f.sess.KeyPress(up)
	assert.Equal(t, "other", f.entry.Text())
	f.sess.KeyPress(up)
	assert.Equal(t, "stay 1", f.entry.Text())

	f.sess.KeyPress(key.NewRuneEvent('x', 0))
	f.entry.SetCursor(0)
	f.sess.KeyPress(down)
	assert.Equal(t, "other", f.entry.Text())
}
