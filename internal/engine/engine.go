package engine

import (
	"runtime/debug"
	"strings"

	"github.com/dshills/commander/internal/accel"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/host"
	"github.com/dshills/commander/internal/input/key"
	"github.com/dshills/commander/internal/logging"
)

// Engine resolves and runs commands against a command source.
type Engine struct {
	src         completion.Source
	log         *logging.Logger
	suggestions int
}

// New creates an engine resolving names against src.
func New(src completion.Source, opts ...Option) *Engine {
	e := &Engine{
		src:         src,
		log:         logging.Default().WithComponent("engine"),
		suggestions: DefaultSuggestions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one line of input. When st holds a paused command the line
// is delivered to it as a command.Reply. Otherwise the first word names the
// command and the remaining words are its arguments; argstr is the full
// line.
//
// The returned value is the settled result: a *command.Prompt or
// *command.Suspend while a conversation is pending, otherwise the final
// value of the command.
func (e *Engine) Execute(st *State, argstr string, words []Word, entry host.Entry, mod key.Modifier) (any, error) {
	args := Texts(words)

	if st.Len() > 0 {
		return e.runGenerator(st, command.Reply{ArgStr: argstr, Args: args, Modifier: mod})
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	node := completion.SingleCommand(e.src, args, 0)
	if node == nil {
		return nil, e.notFound(args[0])
	}

	rest := ""
	if len(words) > 1 {
		rest = argstr[words[1].Pos():]
	}

	e.log.Debug("execute %s", command.FullName(node))
	ctx := command.NewContext(entry, rest, args[1:], mod)
	v, err := e.call(node, ctx, args[1:], nil)
	if err != nil {
		return nil, err
	}
	return e.Run(st, v)
}

func (e *Engine) notFound(name string) error {
	if e.suggestions > 0 {
		if s := completion.Suggest(e.src, name, e.suggestions); len(s) > 0 {
			return command.Errorf("Could not find command: %s (did you mean %s?)", name, strings.Join(s, ", "))
		}
	}
	return command.Errorf("Could not find command: %s", name)
}

// Run settles a value returned by a command. A Generator is pushed and
// driven; any other value is returned, or forwarded to the parent
// continuation when it ends a nested conversation.
func (e *Engine) Run(st *State, v any) (any, error) {
	if gen, ok := v.(command.Generator); ok {
		st.push(gen)
		return e.runGenerator(st, nil)
	}
	if !command.IsResult(v) && st.Len() > 1 {
		st.pop()
		return e.runGenerator(st, v)
	}
	return v, nil
}

// runGenerator resumes the top continuation with v and settles what it does.
func (e *Engine) runGenerator(st *State, v any) (any, error) {
	yielded, done, err := st.Top().resume(v)

	for {
		switch {
		case err != nil:
			if st.Top().running {
				// Re-entered from inside the running continuation; leave it alone.
				return nil, err
			}
			st.pop()
			if st.Len() == 0 {
				return nil, err
			}
			e.log.Debug("forwarding error to continuation %s: %v", st.Top().ID(), err)
			yielded, done, err = st.Top().throw(err)
			continue

		case done, command.IsFinal(yielded):
			st.pop()
			if st.Len() == 0 {
				if done {
					return nil, nil
				}
				return yielded, nil
			}
			yielded, done, err = st.Top().resume(nil)
			continue
		}
		return e.Run(st, yielded)
	}
}

// Invoke runs the named command directly, outside any conversation. The
// command must not pause; one that does is started and then cancelled so
// its cleanup runs.
func (e *Engine) Invoke(entry host.Entry, mod key.Modifier, name string, args []string, argstr string) (any, error) {
	node := completion.SingleCommand(e.src, []string{name}, 0)
	if node == nil {
		return nil, e.notFound(name)
	}
	if argstr == "" {
		argstr = strings.Join(args, " ")
	}

	ctx := command.NewContext(entry, argstr, args, mod)
	v, err := e.call(node, ctx, args, nil)
	if err != nil {
		return nil, err
	}
	if gen, ok := v.(command.Generator); ok {
		if _, done, err := gen.Resume(nil); err == nil && !done {
			_ = gen.Close()
		}
		return nil, command.Errorf("Cannot invoke commands that yield")
	}
	return v, nil
}

// ActivateAccelerator runs the command bound to cb. The accelerator's
// arguments are passed as options.
func (e *Engine) ActivateAccelerator(st *State, cb *accel.Callback, entry host.Entry) (any, error) {
	node, ok := cb.Data.(command.Node)
	if !ok || node.Callable() == nil {
		return nil, ErrNotInvocable
	}

	var opts map[string]any
	if cb.Accelerator != nil {
		opts = cb.Accelerator.Arguments
	}

	e.log.Debug("accelerator %s -> %s", cb.Accelerator, command.FullName(node))
	ctx := command.NewContext(entry, "", nil, 0)
	v, err := e.call(node, ctx, nil, opts)
	if err != nil {
		return nil, err
	}
	return e.Run(st, v)
}

// call binds and invokes node, turning a panic into a *command.PanicError.
func (e *Engine) call(node command.Node, ctx *command.Context, words []string, opts map[string]any) (v any, err error) {
	fn := node.Callable()
	c, err := command.Bind(fn.Params(), ctx, words, opts)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &command.PanicError{Value: r, Stack: debug.Stack()}
			e.log.Error("command %s panicked: %v", command.FullName(node), r)
		}
	}()
	return fn.Call(c)
}
