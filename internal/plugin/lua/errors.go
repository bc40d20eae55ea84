package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrLoadTimeout is returned when a module chunk runs past the load
	// timeout.
	ErrLoadTimeout = errors.New("lua module load timeout")

	// ErrNotModule is returned when a module chunk does not return a table.
	ErrNotModule = errors.New("lua module must return a table")
)
