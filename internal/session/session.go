// Package session drives one command bar: it turns key presses on a
// host.Entry into command execution, completion, history navigation and
// accelerator dispatch, and shows results and errors on the entry.
//
// All methods must be called on the UI loop that owns the entry.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/commander/internal/accel"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/engine"
	"github.com/dshills/commander/internal/history"
	"github.com/dshills/commander/internal/host"
	"github.com/dshills/commander/internal/input/key"
	"github.com/dshills/commander/internal/logging"
)

// DefaultWaitDelay is how long a suspended command runs before the bar
// shows that it is waiting.
const DefaultWaitDelay = 500 * time.Millisecond

// WaitStatus is the info status shown while a suspended command runs.
const WaitStatus = "Waiting to finish..."

// Commands is what a session needs from the registry.
type Commands interface {
	completion.Source
	AccelGroup() *accel.Group
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithWaitDelay sets the delay before the waiting status is shown.
func WithWaitDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.waitDelay = d
		}
	}
}

// Session is the state of one command bar.
type Session struct {
	entry host.Entry
	eng   *engine.Engine
	cmds  Commands
	hist  *history.History
	st    *engine.State
	log   *logging.Logger

	prompt    string
	group     *accel.Group
	editable  bool
	suspended *command.Suspend
	waitDelay time.Duration
	waitTimer *time.Timer

	histPrefix    string
	hasHistPrefix bool
}

// New creates a session for entry. hist may be nil.
func New(entry host.Entry, eng *engine.Engine, cmds Commands, hist *history.History, opts ...Option) *Session {
	if hist == nil {
		hist = history.New("")
	}
	s := &Session{
		entry:     entry,
		eng:       eng,
		cmds:      cmds,
		hist:      hist,
		st:        engine.NewState(),
		log:       logging.Default().WithComponent("session"),
		editable:  true,
		waitDelay: DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setPrompt("")
	return s
}

// State returns the session's suspension stack.
func (s *Session) State() *engine.State { return s.st }

// Prompt returns the current prompt text.
func (s *Session) Prompt() string { return s.prompt }

// Suspended reports whether a command is waiting on a suspension.
func (s *Session) Suspended() bool { return s.suspended != nil }

// KeyPress handles one key press. It reports whether the key was consumed;
// unconsumed keys are left to the entry's own line editing.
func (s *Session) KeyPress(ev key.Event) bool {
	if ev.IsEscape() {
		s.escape()
		return true
	}
	if s.suspended != nil {
		return true
	}

	if ev.IsModified() || s.group != nil {
		if s.activateChord(ev) {
			return true
		}
	}
	if !s.editable {
		return true
	}

	plain := !ev.IsModified() && !ev.Modifiers.HasShift()
	switch {
	case ev.Key == key.KeyUp && plain:
		s.historyMove(-1)
		return true
	case ev.Key == key.KeyDown && plain:
		s.historyMove(1)
		return true
	case ev.IsEnter():
		s.Execute(ev.Modifiers)
		return true
	case ev.IsTab():
		s.Complete()
		return true
	}

	s.hasHistPrefix = false
	return false
}

func (s *Session) escape() {
	switch {
	case s.suspended != nil || !s.entry.InfoEmpty():
		if s.suspended != nil {
			s.suspended.Resume()
		}
		s.entry.InfoClear()
		s.entry.SetSensitive(true)
	case s.group != nil:
		s.group = s.group.Parent()
		if s.group == nil || s.group.Parent() == nil {
			s.group = nil
			s.setEditable(true)
		}
		s.setPrompt("")
	case s.entry.Text() != "":
		s.entry.SetText("")
	case s.st.Len() > 0:
		s.st.Clear()
		s.setPrompt("")
	default:
		s.Close()
	}
}

// activateChord feeds ev to the active chord group, or the registry's
// group when no chord is in progress.
func (s *Session) activateChord(ev key.Event) bool {
	g := s.group
	if g == nil {
		g = s.cmds.AccelGroup()
	}

	cb, sub := g.Activate(ev)
	switch {
	case sub != nil:
		s.group = sub
		s.entry.SetText("")
		s.setEditable(false)
		s.setPrompt("")
		return true
	case cb != nil:
		s.group = nil
		s.setEditable(true)
		s.setPrompt("")
		s.runCommand(func() (any, error) {
			return s.eng.ActivateAccelerator(s.st, cb, s.entry)
		})
		return true
	}
	return false
}

func (s *Session) setEditable(editable bool) {
	s.editable = editable
	s.entry.SetEditable(editable)
}

func (s *Session) setPrompt(p string) {
	s.prompt = p
	if s.group != nil {
		p = s.group.FullName()
	}
	s.entry.SetPrompt(p)
}

func (s *Session) historyMove(dir int) {
	text := s.entry.Text()
	pos := s.entry.Cursor()
	s.hist.Update(text)

	if !s.hasHistPrefix {
		s.histPrefix = ""
		if pos == len(text) {
			s.histPrefix = text
		}
		s.hasHistPrefix = true
	}

	if next, ok := s.hist.Move(dir, s.histPrefix); ok {
		s.entry.SetText(next)
		s.entry.SetCursor(-1)
	}
}

func (s *Session) historyDone() {
	s.hist.Add(s.entry.Text())
	s.hasHistPrefix = false
	s.entry.SetText("")
}

// Execute runs the entry's line, or delivers it to the paused command.
// While a command is suspended the line is left alone; only the
// suspension's own resume continues the command.
func (s *Session) Execute(mod key.Modifier) {
	if s.suspended != nil {
		return
	}
	if !s.entry.InfoEmpty() {
		s.entry.InfoClear()
	}
	s.execute(mod)
}

func (s *Session) execute(mod key.Modifier) {
	text := strings.TrimSpace(s.entry.Text())
	words := engine.ParseWords(text)
	if len(words) == 0 && s.st.Len() == 0 {
		s.entry.SetText("")
		return
	}

	s.runCommand(func() (any, error) {
		return s.eng.Execute(s.st, text, words, s.entry, mod)
	})
}

// runCommand runs fn and presents its outcome on the entry.
func (s *Session) runCommand(fn func() (any, error)) {
	s.suspended = nil

	ret, err := fn()
	if err != nil {
		s.historyDone()
		s.st.Clear()
		s.setPrompt("")
		s.showError(err)
		return
	}

	if sus, ok := ret.(*command.Suspend); ok {
		s.suspend(sus)
		return
	}

	s.historyDone()
	s.setPrompt("")

	switch v := ret.(type) {
	case *command.Prompt:
		s.setPrompt(v.Text)
	case nil, command.Result:
		if v == command.Done {
			return
		}
		if s.prompt == "" && s.entry.InfoEmpty() {
			s.st.Clear()
			s.Close()
		}
	}
}

func (s *Session) showError(err error) {
	s.entry.InfoShow("Error: " + err.Error())
	if !command.IsDeclared(err) {
		s.log.Error("command failed: %v", err)
		s.entry.InfoShow(command.Detail(err))
	}
}

func (s *Session) suspend(sus *command.Suspend) {
	s.suspended = sus
	s.entry.SetSensitive(false)

	s.waitTimer = time.AfterFunc(s.waitDelay, func() {
		s.entry.Post(func() {
			if s.suspended == sus {
				s.entry.InfoStatus(WaitStatus)
			}
		})
	})
	sus.Register(func() {
		s.entry.Post(func() { s.resumeSuspended(sus) })
	})
}

func (s *Session) resumeSuspended(sus *command.Suspend) {
	if s.suspended != sus {
		return
	}
	if s.waitTimer != nil {
		s.waitTimer.Stop()
		s.waitTimer = nil
	}
	s.entry.InfoStatus("")
	s.entry.SetSensitive(true)
	s.historyDone()
	s.execute(0)
}

// Cancel abandons the active conversation. A suspended command is resumed
// so it can stop its work; otherwise every paused command is cancelled.
func (s *Session) Cancel() {
	if s.suspended != nil {
		s.suspended.Resume()
		return
	}
	s.st.Clear()
	s.setPrompt("")
	s.entry.SetSensitive(true)
}

// Complete completes the word under the cursor.
func (s *Session) Complete() {
	text := s.entry.Text()
	pos := s.entry.Cursor()
	words := engine.ParseWords(text)
	texts := engine.Texts(words)

	posidx := -1
	inserted := false
	for i, w := range words {
		if w.Pos() > pos {
			texts = append(texts[:i], append([]string{""}, texts[i:]...)...)
			posidx, inserted = i, true
			break
		}
		if w.End == pos {
			posidx = i
			break
		}
		if w.Start <= pos && w.End > pos {
			return
		}
	}
	if posidx < 0 {
		texts = append(texts, "")
		posidx, inserted = len(texts)-1, true
	}

	res, ok := s.complete(texts, posidx)
	if !ok || res == nil || len(res.Items) == 0 {
		return
	}

	after := res.After
	if after == "" {
		after = " "
	}

	var newText string
	var cursor int
	if inserted {
		newText = text[:pos] + res.Completed + text[pos:]
		cursor = pos + len(res.Completed)
	} else {
		w := words[posidx]
		newText = text[:w.Start] + res.Completed + text[w.End:]
		cursor = w.Start + len(res.Completed)
	}

	s.entry.InfoClear()
	if len(res.Items) == 1 {
		mod, isMod := singleModule(res)
		switch {
		case !isMod || len(mod.Children()) == 0:
			if !inserted && after == " " && words[posidx].Quoted {
				cursor = min(cursor+1, len(newText))
			}
			newText = newText[:cursor] + after + newText[cursor:]
			cursor += len(after)
		case res.Completed == texts[posidx] || mod.Callable() == nil:
			newText = newText[:cursor] + "." + newText[cursor:]
			cursor++
		}
	} else {
		s.entry.InfoShow(describe(res))
	}

	s.entry.SetText(newText)
	s.entry.SetCursor(cursor)
}

// complete asks the right completer for texts[posidx]: the command
// resolver for the first word, otherwise the command's (or the active
// prompt's) completer for the argument at that position.
func (s *Session) complete(texts []string, posidx int) (*command.Completion, bool) {
	if s.st.Len() == 0 && posidx == 0 {
		return completion.Command(s.cmds, texts, 0)
	}

	realidx := posidx
	words := texts
	var complete map[string]command.Completer
	var args []string
	variadic := true

	if s.st.Len() == 0 {
		node := completion.SingleCommand(s.cmds, texts, 0)
		if node == nil {
			return nil, false
		}
		realidx--
		words = texts[1:]
		complete = node.Autocomplete()
		params := node.Callable().Params()
		args, variadic = params.Positional(), params.Variadic()
	} else if p := s.st.Top().Prompt(); p != nil {
		complete = p.Autocomplete
	}
	if len(complete) == 0 {
		return nil, false
	}

	var arg string
	switch {
	case realidx < len(args):
		arg = args[realidx]
	case variadic:
		arg = "*"
	default:
		return nil, false
	}
	fn := complete[arg]
	if fn == nil {
		return nil, false
	}
	if len(words) == 0 {
		words = []string{""}
	}

	return s.safeComplete(fn, command.CompletionRequest{
		Words:   words,
		Index:   realidx,
		Context: command.NewContext(s.entry, "", nil, 0),
	})
}

func (s *Session) safeComplete(fn command.Completer, req command.CompletionRequest) (res *command.Completion, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("completer panicked: %v", r)
			res, ok = nil, false
		}
	}()
	return fn(req)
}

func singleModule(res *command.Completion) (*command.Module, bool) {
	if len(res.Nodes) != 1 {
		return nil, false
	}
	mod, ok := res.Nodes[0].(*command.Module)
	return mod, ok
}

func describe(res *command.Completion) string {
	if len(res.Nodes) == 0 {
		return strings.Join(res.Items, "\n")
	}
	lines := make([]string, len(res.Nodes))
	for i, n := range res.Nodes {
		lines[i] = fmt.Sprintf("%s (%s)", n.Name(), command.OneLineDoc(n))
	}
	return strings.Join(lines, "\n")
}

// Close saves the history and dismisses the bar. Paused commands are kept
// so the conversation can continue when the bar reopens.
func (s *Session) Close() {
	if err := s.hist.Save(); err != nil {
		s.log.Warn("saving history: %v", err)
	}
	s.entry.InfoClear()
	s.entry.Close()
}
