package engine

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/logging"
)

// Continuation is a paused command on a State's stack.
type Continuation struct {
	id      string
	gen     command.Generator
	last    any
	running bool
}

func newContinuation(gen command.Generator) *Continuation {
	return &Continuation{id: uuid.NewString(), gen: gen}
}

// ID returns the continuation's unique identifier.
func (c *Continuation) ID() string { return c.id }

// Generator returns the paused command.
func (c *Continuation) Generator() command.Generator { return c.gen }

// Last returns the value most recently yielded.
func (c *Continuation) Last() any { return c.last }

// Prompt returns the prompt the continuation is waiting on, or nil.
func (c *Continuation) Prompt() *command.Prompt {
	p, _ := c.last.(*command.Prompt)
	return p
}

func (c *Continuation) resume(v any) (any, bool, error) {
	if c.running {
		return nil, false, command.ErrReentrant
	}
	c.running = true
	defer func() { c.running = false }()

	y, done, err := c.gen.Resume(v)
	c.last = y
	return y, done, err
}

func (c *Continuation) throw(err error) (any, bool, error) {
	if c.running {
		return nil, false, command.ErrReentrant
	}
	c.running = true
	defer func() { c.running = false }()

	y, done, err2 := c.gen.Throw(err)
	c.last = y
	return y, done, err2
}

// State is the suspension stack of one command entry. The top continuation
// receives the user's next input. A State belongs to the UI loop and is not
// safe for concurrent use.
type State struct {
	stack []*Continuation
	log   *logging.Logger
}

// NewState creates an empty state.
func NewState() *State {
	return &State{log: logging.Default().WithComponent("engine")}
}

// Len returns the number of paused commands.
func (s *State) Len() int { return len(s.stack) }

// Top returns the innermost continuation, or nil.
func (s *State) Top() *Continuation {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Continuations returns the stack, outermost first.
func (s *State) Continuations() []*Continuation {
	return append([]*Continuation(nil), s.stack...)
}

func (s *State) push(gen command.Generator) *Continuation {
	c := newContinuation(gen)
	s.stack = append(s.stack, c)
	s.log.Debug("push continuation %s (depth %d)", c.id, len(s.stack))
	return c
}

// pop removes the top continuation and cancels it if it is still paused.
func (s *State) pop() {
	c := s.Top()
	if c == nil {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.close(c)
	s.log.Debug("pop continuation %s (depth %d)", c.id, len(s.stack))
}

func (s *State) close(c *Continuation) {
	if err := c.gen.Close(); err != nil && !errors.Is(err, command.ErrCancelled) {
		s.log.Warn("continuation %s: cleanup failed: %v", c.id, err)
	}
}

// Clear cancels every paused command, innermost first, and empties the
// stack. Each cancelled command runs its cleanup.
func (s *State) Clear() {
	for len(s.stack) > 0 {
		s.pop()
	}
}
