package lua

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/accel"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
)

const errorType = "commander.error"

// luaCommand is what commander.command returns: a function plus its
// declaration options.
type luaCommand struct {
	fn   *lua.LFunction
	opts *lua.LTable
}

// luaModule marks a table as a nested module.
type luaModule struct {
	table *lua.LTable
}

// apiSource holds the parts of the API that have to yield from Lua.
const apiSource = `
function commander.ask(prompt, autocomplete)
	if type(prompt) == "string" then
		prompt = commander.prompt(prompt, autocomplete)
	end
	local reply, extra = coroutine.yield(prompt)
	if reply == nil and extra ~= nil then
		error(extra, 0)
	end
	return reply, extra
end

function commander.wait(ms)
	local reply, extra = coroutine.yield(commander.after(ms))
	if reply == nil and extra ~= nil then
		error(extra, 0)
	end
end
`

func (s *State) installAPI() error {
	L := s.L

	errMT := L.NewTypeMetatable(errorType)
	L.SetField(errMT, "__tostring", L.NewFunction(func(L *lua.LState) int {
		if err, ok := L.CheckUserData(1).Value.(error); ok {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LString("error"))
		return 1
	}))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"command": apiCommand,
		"module":  apiModule,
		"error":   apiError,
		"prompt":  s.apiPrompt,
		"after":   apiAfter,
		"finally": s.apiFinally,
		"log":     s.apiLog,
	})
	mod.RawSetString("HIDE", ToLuaValue(L, command.Hide))
	mod.RawSetString("DONE", ToLuaValue(L, command.Done))
	L.SetGlobal("commander", mod)

	return L.DoString(apiSource)
}

// errorValue wraps a Go error so it survives a trip through Lua error().
func errorValue(L *lua.LState, err error) lua.LValue {
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(errorType))
	return ud
}

// commander.command(fn [, {doc=, defaults=, accelerator=, arguments=, autocomplete=}])
func apiCommand(L *lua.LState) int {
	fn := L.CheckFunction(1)
	opts := L.OptTable(2, nil)
	ud := L.NewUserData()
	ud.Value = &luaCommand{fn: fn, opts: opts}
	L.Push(ud)
	return 1
}

// commander.module(tbl)
func apiModule(L *lua.LState) int {
	ud := L.NewUserData()
	ud.Value = &luaModule{table: L.CheckTable(1)}
	L.Push(ud)
	return 1
}

// commander.error(msg) raises a user-facing error.
func apiError(L *lua.LState) int {
	L.Error(errorValue(L, command.Errorf("%s", L.CheckString(1))), 1)
	return 0
}

// commander.prompt(text [, autocomplete])
func (s *State) apiPrompt(L *lua.LState) int {
	p := command.NewPrompt(L.CheckString(1))
	if ac := L.OptTable(2, nil); ac != nil {
		ac.ForEach(func(k, v lua.LValue) {
			if c := s.completer(v); c != nil {
				p.WithCompleter(k.String(), c)
			}
		})
	}
	L.Push(ToLuaValue(L, p))
	return 1
}

// commander.after(ms) returns a suspension that resumes after ms.
func apiAfter(L *lua.LState) int {
	d := time.Duration(float64(L.CheckNumber(1)) * float64(time.Millisecond))
	sus := command.NewSuspend()
	time.AfterFunc(d, sus.Resume)
	L.Push(ToLuaValue(L, sus))
	return 1
}

// commander.finally(fn) runs fn when the running command ends or is
// cancelled.
func (s *State) apiFinally(L *lua.LState) int {
	fn := L.CheckFunction(1)
	if s.current == nil {
		L.RaiseError("commander.finally called outside a command")
		return 0
	}
	s.current.finalizers = append(s.current.finalizers, fn)
	return 0
}

// commander.log(msg)
func (s *State) apiLog(L *lua.LState) int {
	s.log.Info("%s", L.CheckString(1))
	return 0
}

// spec turns a function or commander.command value into a command spec.
func (s *State) spec(lv lua.LValue) *command.Spec {
	switch v := lv.(type) {
	case *lua.LFunction:
		return &command.Spec{Call: newCallable(s, v, nil)}
	case *lua.LUserData:
		c, ok := v.Value.(*luaCommand)
		if !ok {
			return nil
		}
		return s.commandSpec(c)
	}
	return nil
}

func (s *State) commandSpec(c *luaCommand) *command.Spec {
	spec := &command.Spec{}
	var defaults *lua.LTable
	if c.opts != nil {
		if doc, ok := c.opts.RawGetString("doc").(lua.LString); ok {
			spec.Doc = string(doc)
		}
		defaults, _ = c.opts.RawGetString("defaults").(*lua.LTable)

		if keys := StringList(c.opts.RawGetString("accelerator")); len(keys) > 0 {
			spec.Accelerator = accel.New(keys...)
			if args, ok := ToGoValue(c.opts.RawGetString("arguments")).(map[string]any); ok {
				spec.Accelerator.WithArguments(args)
			}
		}

		if ac, ok := c.opts.RawGetString("autocomplete").(*lua.LTable); ok {
			spec.Autocomplete = make(map[string]command.Completer)
			ac.ForEach(func(k, v lua.LValue) {
				if comp := s.completer(v); comp != nil {
					spec.Autocomplete[k.String()] = comp
				}
			})
		}
	}
	spec.Call = newCallable(s, c.fn, defaults)
	return spec
}

// completer resolves an autocomplete declaration: a completer name, a
// list of words or a function returning a list of words.
func (s *State) completer(lv lua.LValue) command.Completer {
	switch v := lv.(type) {
	case lua.LString:
		c, ok := s.completers[string(v)]
		if !ok {
			s.log.Warn("unknown completer %q", string(v))
			return nil
		}
		return c
	case *lua.LTable:
		return completion.Words(StringList(v)...)
	case *lua.LFunction:
		return func(req command.CompletionRequest) (*command.Completion, bool) {
			words, err := s.callList(v, req.Word())
			if err != nil {
				s.log.Warn("completer failed: %v", err)
				return nil, false
			}
			return completion.Words(words...)(req)
		}
	}
	return nil
}

// callList calls fn with word and reads back a list of strings.
func (s *State) callList(fn *lua.LFunction, word string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	var out []string
	err := s.doWithRecovery(func() error {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(word)); err != nil {
			return err
		}
		out = StringList(s.L.Get(-1))
		s.L.Pop(1)
		return nil
	})
	return out, err
}
