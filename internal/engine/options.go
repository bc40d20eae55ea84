package engine

import "github.com/dshills/commander/internal/logging"

// DefaultSuggestions is the number of similar names offered when a command
// cannot be found.
const DefaultSuggestions = 1

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSuggestions sets how many similar names are offered for an unknown
// command. Zero disables suggestions.
func WithSuggestions(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.suggestions = n
		}
	}
}
