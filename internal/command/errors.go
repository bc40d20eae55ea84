package command

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is delivered into a paused command when its conversation
	// is cancelled.
	ErrCancelled = errors.New("command cancelled")

	// ErrReentrant is returned when a continuation is resumed while it is
	// already running.
	ErrReentrant = errors.New("continuation is already running")

	// ErrYieldAfterCancel is returned by Close when a body kept yielding
	// after it was cancelled.
	ErrYieldAfterCancel = errors.New("command yielded after cancellation")
)

// ExecuteError is a declared, user-facing failure. Only its message is shown.
type ExecuteError struct {
	Msg string
}

func (e *ExecuteError) Error() string {
	return e.Msg
}

// Errorf returns a declared error.
func Errorf(format string, args ...any) error {
	return &ExecuteError{Msg: fmt.Sprintf(format, args...)}
}

// IsDeclared reports whether err is, or wraps, an *ExecuteError.
func IsDeclared(err error) bool {
	var e *ExecuteError
	return errors.As(err, &e)
}

// PanicError is a panic recovered from a command body. It is an undeclared
// error and carries the stack for diagnostics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Detail returns diagnostic text for an undeclared error: the stack for a
// panic, the unwrapped chain otherwise.
func Detail(err error) string {
	var p *PanicError
	if errors.As(err, &p) {
		return string(p.Stack)
	}
	var d interface{ Detail() string }
	if errors.As(err, &d) {
		return d.Detail()
	}
	return fmt.Sprintf("%+v", err)
}
