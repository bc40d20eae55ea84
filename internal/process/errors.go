package process

import "errors"

var (
	// ErrEmptyCommand is returned by Start for a blank command line.
	ErrEmptyCommand = errors.New("empty command")

	// ErrNotRunning is returned when signalling a process that is not running.
	ErrNotRunning = errors.New("process not running")
)
