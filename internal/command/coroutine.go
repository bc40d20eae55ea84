package command

import (
	"errors"
	"runtime"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/dshills/commander/internal/input/key"
)

// Generator is a paused command. Resume starts or continues it with v and
// returns the next yielded value; done is true once the command has
// returned, in which case err is its final error.
type Generator interface {
	Resume(v any) (yielded any, done bool, err error)
	// Throw delivers err at the point the command is paused.
	Throw(err error) (yielded any, done bool, err2 error)
	// Close cancels a paused command and waits for its cleanup.
	Close() error
}

// Reply is the value a paused command receives when the user answers a
// prompt or a suspension resumes.
type Reply struct {
	ArgStr   string
	Args     []string
	Modifier key.Modifier
}

// Coroutine is the handle a command body uses to pause.
type Coroutine struct {
	in        chan message
	out       chan step
	started   bool
	finished  bool
	cancelled atomic.Bool
	running   atomic.Bool
}

type message struct {
	value any
	err   error
}

type step struct {
	value any
	done  bool
	err   error
}

// Go returns a Generator running body on its own goroutine. The goroutine
// starts at the first Resume and runs only while the caller waits in Resume,
// Throw or Close, so the body behaves like code on the caller's loop.
func Go(body func(co *Coroutine) error) Generator {
	co := &Coroutine{
		in:  make(chan message),
		out: make(chan step),
	}
	return &coroutineGenerator{co: co, body: body}
}

// Yield pauses the command with v and returns what the next Resume sends.
// After cancellation it returns ErrCancelled; yielding again after that
// stops the body, running its deferred calls.
func (co *Coroutine) Yield(v any) (any, error) {
	if co.cancelled.Load() {
		runtime.Goexit()
	}
	co.out <- step{value: v}
	msg := <-co.in
	return msg.value, msg.err
}

// Ask yields a prompt and returns the reply text.
func (co *Coroutine) Ask(prompt *Prompt) (Reply, error) {
	v, err := co.Yield(prompt)
	if err != nil {
		return Reply{}, err
	}
	switch r := v.(type) {
	case Reply:
		return r, nil
	case string:
		return Reply{ArgStr: r, Args: strings.Fields(r)}, nil
	}
	return Reply{}, nil
}

// Wait yields a suspension and returns once it is resumed.
func (co *Coroutine) Wait(s *Suspend) error {
	_, err := co.Yield(s)
	return err
}

type coroutineGenerator struct {
	co   *Coroutine
	body func(co *Coroutine) error
}

func (g *coroutineGenerator) start() {
	co := g.co
	co.started = true
	go func() {
		var err error
		returned := false
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			} else if !returned {
				// runtime.Goexit from Yield after cancellation.
				err = ErrYieldAfterCancel
			}
			co.out <- step{done: true, err: err}
		}()
		<-co.in
		err = g.body(co)
		returned = true
	}()
}

func (g *coroutineGenerator) send(msg message) (any, bool, error) {
	co := g.co
	if co.finished {
		return nil, true, msg.err
	}
	if !co.running.CompareAndSwap(false, true) {
		return nil, false, ErrReentrant
	}
	defer co.running.Store(false)

	if !co.started {
		g.start()
	}
	co.in <- msg
	s := <-co.out
	if s.done {
		co.finished = true
	}
	return s.value, s.done, s.err
}

func (g *coroutineGenerator) Resume(v any) (any, bool, error) {
	return g.send(message{value: v})
}

func (g *coroutineGenerator) Throw(err error) (any, bool, error) {
	if !g.co.started {
		g.co.finished = true
		return nil, true, err
	}
	return g.send(message{err: err})
}

func (g *coroutineGenerator) Close() error {
	co := g.co
	if !co.started || co.finished {
		co.finished = true
		return nil
	}
	co.cancelled.Store(true)
	_, _, err := g.send(message{err: ErrCancelled})
	if err == nil || errors.Is(err, ErrCancelled) {
		return nil
	}
	return err
}
