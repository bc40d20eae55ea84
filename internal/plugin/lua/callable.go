package lua

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/command"
)

// VariadicParam names the parameter collecting a Lua function's "...".
const VariadicParam = "rest"

// ScriptError is an uncaught Lua error. It is undeclared: the trace is
// shown alongside the message.
type ScriptError struct {
	Msg   string
	Trace string
}

func (e *ScriptError) Error() string { return e.Msg }

// Detail returns the Lua stack trace.
func (e *ScriptError) Detail() string { return e.Trace }

// luaCallable invokes a Lua function. Parameters are read once from the
// function prototype: names from its debug locals, defaults from the
// declaration.
type luaCallable struct {
	st     *State
	fn     *lua.LFunction
	params command.Params
}

func newCallable(st *State, fn *lua.LFunction, defaults *lua.LTable) *luaCallable {
	c := &luaCallable{st: st, fn: fn}
	proto := fn.Proto
	if proto == nil {
		return c
	}

	for i := 0; i < int(proto.NumParameters) && i < len(proto.DbgLocals); i++ {
		name := proto.DbgLocals[i].Name
		if defaults != nil {
			if d := defaults.RawGetString(name); d != lua.LNil {
				c.params = append(c.params, command.Opt(name, ToGoValue(d)))
				continue
			}
		}
		c.params = append(c.params, command.Arg(name))
	}
	if proto.IsVarArg != 0 {
		c.params = append(c.params, command.Rest(VariadicParam))
	}
	return c
}

func (c *luaCallable) Params() command.Params {
	return c.params
}

// Call runs the function on a fresh Lua thread. A function that returns
// without yielding produces its value; one that yields becomes a
// generator paused at its first yield.
func (c *luaCallable) Call(call *command.Call) (any, error) {
	st := c.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil, ErrStateClosed
	}

	th, cancel := st.L.NewThread()
	t := &thread{st: st, L: th, cancel: cancel, fn: c.fn}

	v, done, err := t.resume(c.args(call)...)
	if done || err != nil {
		if ferr := t.finish(); err == nil {
			err = ferr
		}
		return v, err
	}
	return &generator{t: t, pending: v}, nil
}

// args converts bound values to Lua. Keyword options, such as accelerator
// arguments, override positional values of the same name.
func (c *luaCallable) args(call *command.Call) []lua.LValue {
	L := c.st.L
	var out []lua.LValue
	for i, p := range call.Params {
		v := call.Args[i]
		switch p.Kind {
		case command.ParamVariadic:
			for _, w := range call.Strings(p.Name) {
				out = append(out, lua.LString(w))
			}
			continue
		case command.ParamPositional:
			if opt, ok := call.Options[p.Name]; ok {
				v = opt
			}
		}
		out = append(out, ToLuaValue(L, v))
	}
	return out
}

// thread is one running invocation.
type thread struct {
	st         *State
	L          *lua.LState
	cancel     context.CancelFunc
	fn         *lua.LFunction
	finalizers []*lua.LFunction
	finished   bool
}

// resume continues the thread with args. The state lock must be held.
func (t *thread) resume(args ...lua.LValue) (any, bool, error) {
	if t.st.closed {
		return nil, true, ErrStateClosed
	}

	prev := t.st.current
	t.st.current = t
	defer func() { t.st.current = prev }()

	var (
		state  lua.ResumeState
		rerr   error
		values []lua.LValue
	)
	if err := t.st.doWithRecovery(func() error {
		state, rerr, values = t.st.L.Resume(t.L, t.fn, args...)
		return nil
	}); err != nil {
		return nil, true, err
	}

	switch state {
	case lua.ResumeError:
		return nil, true, scriptError(rerr)
	case lua.ResumeOK:
		return fromLua(values), true, nil
	default:
		return fromLua(values), false, nil
	}
}

// finish runs the registered finalizers once, last registered first.
func (t *thread) finish() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.cancel != nil {
		t.cancel()
	}
	if t.st.closed {
		return nil
	}

	var errs []error
	for i := len(t.finalizers) - 1; i >= 0; i-- {
		fn := t.finalizers[i]
		err := t.st.doWithRecovery(func() error {
			return t.st.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		})
		if err != nil {
			errs = append(errs, scriptError(err))
		}
	}
	t.finalizers = nil
	return errors.Join(errs...)
}

// fromLua converts the first returned or yielded value.
func fromLua(values []lua.LValue) any {
	if len(values) == 0 || values[0] == lua.LNil {
		return nil
	}
	return ToGoValue(values[0])
}

// scriptError turns a Lua error back into a Go error. Errors raised with
// commander.error, or thrown in from Go, keep their identity.
func scriptError(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return err
	}
	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		if e, ok := ud.Value.(error); ok {
			return e
		}
	}
	msg := fmt.Sprint(apiErr.Object)
	if apiErr.Object == nil {
		msg = apiErr.Error()
	}
	return &ScriptError{Msg: msg, Trace: apiErr.StackTrace}
}

// generator adapts a paused Lua thread to command.Generator.
type generator struct {
	t       *thread
	pending any
	started bool
	// last is a value the thread returned; it is delivered as a yield so
	// that it reaches the engine before completion.
	last any
	done bool
}

func (g *generator) Resume(v any) (any, bool, error) {
	g.t.st.mu.Lock()
	defer g.t.st.mu.Unlock()

	if !g.started {
		g.started = true
		return g.pending, false, nil
	}
	return g.step(replyValues(g.t.st.L, v)...)
}

func (g *generator) Throw(err error) (any, bool, error) {
	g.t.st.mu.Lock()
	defer g.t.st.mu.Unlock()

	if !g.started {
		g.started = true
	}
	return g.step(lua.LNil, errorValue(g.t.st.L, err))
}

func (g *generator) step(args ...lua.LValue) (any, bool, error) {
	if g.done {
		return nil, true, nil
	}
	v, done, err := g.t.resume(args...)
	if !done {
		return v, false, nil
	}
	g.done = true
	if ferr := g.t.finish(); err == nil {
		err = ferr
	}
	if err == nil && v != nil {
		return v, false, nil
	}
	return nil, true, err
}

// Close cancels a paused thread: ErrCancelled is raised at the yield,
// then the finalizers run.
func (g *generator) Close() error {
	g.t.st.mu.Lock()
	defer g.t.st.mu.Unlock()

	if g.done {
		return nil
	}
	g.done = true

	var err error
	if !g.t.st.closed {
		_, done, rerr := g.t.resume(lua.LNil, errorValue(g.t.st.L, command.ErrCancelled))
		switch {
		case !done:
			err = command.ErrYieldAfterCancel
		case rerr != nil && !errors.Is(rerr, command.ErrCancelled):
			err = rerr
		}
	}
	if ferr := g.t.finish(); err == nil {
		err = ferr
	}
	return err
}

// replyValues converts the value sent into a paused command: a reply
// arrives as its text plus the word list.
func replyValues(L *lua.LState, v any) []lua.LValue {
	switch r := v.(type) {
	case nil:
		return nil
	case command.Reply:
		return []lua.LValue{lua.LString(r.ArgStr), ToLuaValue(L, r.Args)}
	default:
		return []lua.LValue{ToLuaValue(L, v)}
	}
}
