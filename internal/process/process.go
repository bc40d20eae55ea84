package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/commander/internal/logging"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Process is a shell command started by Start. It is safe for concurrent
// use.
type Process struct {
	// ID uniquely identifies the process.
	ID string

	// Command is the command line handed to the shell.
	Command string

	// Dir is the working directory, "" for the current one.
	Dir string

	// Started is the time the process was started.
	Started time.Time

	cmd     *exec.Cmd
	shell   string
	stdin   io.Reader
	onLine  func(line string)
	capture bool
	log     *logging.Logger

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu      sync.RWMutex
	exitErr error
	output  bytes.Buffer
}

// Start runs command through the shell and returns once it is running.
// Output is read until the process closes it; Done is closed after that
// and after the process has been reaped.
func Start(command string, opts ...Option) (*Process, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}

	p := &Process{
		ID:      uuid.NewString(),
		Command: command,
		shell:   DefaultShell,
		log:     logging.Discard(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)

	cmd := exec.Command(p.shell, "-c", command)
	cmd.Dir = p.Dir
	cmd.Stdin = p.stdin
	setProcessGroup(cmd)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}

	p.cmd = cmd
	p.Started = time.Now()
	p.state.Store(int32(StateRunning))
	p.log.Debug("started %s (pid %d): %s", p.ID, cmd.Process.Pid, command)

	go p.readLoop(out)

	return p, nil
}

func (p *Process) readLoop(out io.Reader) {
	r := bufio.NewReader(out)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if p.capture {
				p.mu.Lock()
				p.output.WriteString(line)
				p.mu.Unlock()
			}
			if p.onLine != nil {
				p.onLine(strings.TrimSuffix(line, "\n"))
			}
		}
		if err != nil {
			break
		}
	}
	p.wait()
}

// wait reaps the process. Wait closes the pipe, so it runs only after all
// output has been read.
func (p *Process) wait() {
	err := p.cmd.Wait()

	exitCode := 0
	state := StateExited
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				state = StateKilled
			}
		} else {
			exitCode = -1
		}
	}

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()

	p.exitCode.Store(int32(exitCode))
	p.state.Store(int32(state))
	p.log.Debug("process %s %s with code %d", p.ID, state, exitCode)
	close(p.done)
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the exit code, or -1 if the process has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns the error from reaping the process, nil on success.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Output returns the captured output. It is empty unless WithCapture was
// given.
func (p *Process) Output() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.output.String()
}

// Done returns a channel that is closed when the process exits and all of
// its output has been delivered.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// IsRunning returns true if the process is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// HasExited returns true if the process has exited (normally or killed).
func (p *Process) HasExited() bool {
	state := p.State()
	return state == StateExited || state == StateKilled
}

// PID returns the process ID.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process is done or ctx is cancelled.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.ExitError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill terminates the process and everything it started.
func (p *Process) Kill() error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	return killProcessGroup(p.cmd)
}

// Runtime returns how long the process has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}
