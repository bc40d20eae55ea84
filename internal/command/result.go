package command

import "sync"

// Result is a terminal outcome of a command.
type Result int

const (
	// Hide ends the interaction and hides the command bar.
	Hide Result = iota + 1
	// Done ends the interaction and keeps the command bar open.
	Done
)

func (r Result) String() string {
	switch r {
	case Hide:
		return "hide"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Prompt asks the user for one line of input. Autocomplete maps argument
// names ("*" for the whole reply) to completers.
type Prompt struct {
	Text         string
	Autocomplete map[string]Completer
}

// NewPrompt creates a prompt.
func NewPrompt(text string) *Prompt {
	return &Prompt{Text: text}
}

// WithCompleter attaches a completer for arg and returns p.
func (p *Prompt) WithCompleter(arg string, c Completer) *Prompt {
	if p.Autocomplete == nil {
		p.Autocomplete = make(map[string]Completer)
	}
	p.Autocomplete[arg] = c
	return p
}

// Suspend pauses a command until some external event calls Resume.
// Callbacks fire at most once.
type Suspend struct {
	mu        sync.Mutex
	callbacks []func()
	resumed   bool
}

// NewSuspend creates a suspension.
func NewSuspend() *Suspend {
	return &Suspend{}
}

// Register adds fn to the callbacks run on Resume. Registering after Resume
// runs fn immediately.
func (s *Suspend) Register(fn func()) {
	s.mu.Lock()
	if s.resumed {
		s.mu.Unlock()
		fn()
		return
	}
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()
}

// Resume runs the registered callbacks. Only the first call has an effect.
func (s *Suspend) Resume() {
	s.mu.Lock()
	if s.resumed {
		s.mu.Unlock()
		return
	}
	s.resumed = true
	cbs := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range cbs {
		fn()
	}
}

// Resumed reports whether Resume has been called.
func (s *Suspend) Resumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumed
}

// IsResult reports whether v is a Result, *Prompt or *Suspend.
func IsResult(v any) bool {
	switch v.(type) {
	case Result, *Prompt, *Suspend:
		return true
	}
	return false
}

// IsFinal reports whether v ends the continuation that produced it:
// nil, Hide or Done.
func IsFinal(v any) bool {
	if v == nil {
		return true
	}
	r, ok := v.(Result)
	return ok && (r == Hide || r == Done)
}
