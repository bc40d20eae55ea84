package process

import (
	"io"

	"github.com/dshills/commander/internal/logging"
)

// DefaultShell interprets command lines unless WithShell says otherwise.
const DefaultShell = "/bin/sh"

// Option configures a process before it starts.
type Option func(*Process)

// WithDir sets the working directory. Empty means the current directory.
func WithDir(dir string) Option {
	return func(p *Process) {
		p.Dir = dir
	}
}

// WithStdin pipes r to the process standard input.
func WithStdin(r io.Reader) Option {
	return func(p *Process) {
		p.stdin = r
	}
}

// WithShell overrides the shell used to interpret the command.
func WithShell(shell string) Option {
	return func(p *Process) {
		if shell != "" {
			p.shell = shell
		}
	}
}

// WithOutput sets the callback receiving output lines without their
// trailing newline. It runs on the reader goroutine.
func WithOutput(fn func(line string)) Option {
	return func(p *Process) {
		p.onLine = fn
	}
}

// WithCapture keeps the raw output so it can be read with Output once the
// process is done.
func WithCapture() Option {
	return func(p *Process) {
		p.capture = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Process) {
		if l != nil {
			p.log = l
		}
	}
}
