package lua

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/logging"
)

// DefaultLoadTimeout bounds how long a module chunk may run at load time.
const DefaultLoadTimeout = 5 * time.Second

// State wraps one gopher-lua state. Every loaded module source gets its own
// State, so unloading a module drops everything it defined or required.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes Go-side
// access; commands run on the host's UI loop.
type State struct {
	L *lua.LState

	mu sync.Mutex

	loadTimeout time.Duration
	dir         string
	log         *logging.Logger
	completers  map[string]command.Completer

	sandbox *Sandbox

	// current is the thread being resumed, for commander.finally.
	current *thread

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithLoadTimeout sets the load timeout. Zero disables it.
func WithLoadTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.loadTimeout = d
	}
}

// WithModuleDir makes require resolve names against dir.
func WithModuleDir(dir string) StateOption {
	return func(s *State) {
		s.dir = dir
	}
}

// WithStateLogger sets the logger used by commander.log.
func WithStateLogger(l *logging.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCompleters sets the named completers autocomplete declarations may
// refer to, such as "filename".
func WithCompleters(c map[string]command.Completer) StateOption {
	return func(s *State) {
		s.completers = c
	}
}

// NewState creates a sandboxed Lua state with the commander API installed.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		loadTimeout: DefaultLoadTimeout,
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	openSafeLibraries(L)

	state.sandbox = NewSandbox(L, state.dir)
	state.sandbox.Install()

	registerHostTypes(L)
	if err := state.installAPI(); err != nil {
		L.Close()
		return nil, fmt.Errorf("install api: %w", err)
	}

	return state, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenCoroutine(L)

	// io, os, debug and package stay closed; see Sandbox.
}

// DoFile runs a module chunk and returns its value.
func (s *State) DoFile(path string) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	if s.loadTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	var ret lua.LValue = lua.LNil
	err := s.doWithRecovery(func() error {
		fn, err := s.L.LoadFile(path)
		if err != nil {
			return err
		}
		s.L.Push(fn)
		if err := s.L.PCall(0, 1, nil); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		if ctx := s.L.Context(); ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", path, ErrLoadTimeout)
		}
		return nil, err
	}
	return ret, nil
}

// DoString runs a chunk of Lua source.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &command.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// Required returns the files loaded through require.
func (s *State) Required() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sandbox.files...)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Paused commands of this state can no
// longer be resumed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
