package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrEmptyCommand indicates Execute was called without words and
	// without a paused command to deliver them to.
	ErrEmptyCommand = errors.New("empty command")

	// ErrNotInvocable indicates an accelerator is bound to something that
	// is not a command.
	ErrNotInvocable = errors.New("accelerator target is not invocable")
)
