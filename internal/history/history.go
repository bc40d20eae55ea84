// Package history keeps the command line history of an entry and persists
// it to a file, one command per line.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// History is a list of past commands ending with the line currently being
// edited. The pointer selects the line shown in the entry; adding a command
// resets it to the end.
type History struct {
	mu      sync.Mutex
	path    string
	maxSize int
	lines   []string
	ptr     int
}

// Option configures a History.
type Option func(*History)

// WithMaxSize limits how many commands are kept when saving. Zero keeps
// all of them.
func WithMaxSize(n int) Option {
	return func(h *History) {
		if n >= 0 {
			h.maxSize = n
		}
	}
}

// New creates an empty history backed by path. An empty path disables
// persistence.
func New(path string, opts ...Option) *History {
	h := &History{path: path, lines: []string{""}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the backing file.
func (h *History) Path() string {
	return h.path
}

// Len returns the number of stored commands, excluding the line being
// edited.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lines[len(h.lines)-1] == "" {
		return len(h.lines) - 1
	}
	return len(h.lines)
}

// Lines returns a copy of the history including the trailing edit line.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// Load replaces the history with the contents of the backing file. A
// missing file leaves the history empty and is not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(lines, "")
	h.ptr = len(h.lines) - 1
	return nil
}

// Save writes the history to the backing file, creating its directory.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	lines := h.lines
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if h.maxSize > 0 && len(lines) > h.maxSize {
		lines = lines[len(lines)-h.maxSize:]
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.WriteFile(h.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Add records a finished command. Blank commands are not stored, but the
// pointer is still reset to a fresh edit line.
func (h *History) Add(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	last := len(h.lines) - 1
	if strings.TrimSpace(line) != "" {
		if h.lines[last] != "" {
			h.lines = append(h.lines, line)
		} else {
			h.lines[last] = line
		}
	}
	if h.lines[len(h.lines)-1] != "" {
		h.lines = append(h.lines, "")
	}
	h.ptr = len(h.lines) - 1
}

// Update replaces the line under the pointer, keeping edits made while
// browsing.
func (h *History) Update(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines[h.ptr] = line
}

// Up moves to the previous line starting with prefix.
func (h *History) Up(prefix string) (string, bool) {
	return h.Move(-1, prefix)
}

// Down moves to the next line starting with prefix.
func (h *History) Down(prefix string) (string, bool) {
	return h.Move(1, prefix)
}

// Move steps the pointer in direction dir (-1 or 1) to the nearest line
// starting with prefix. It reports false, leaving the pointer alone, when
// there is none.
func (h *History) Move(dir int, prefix string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for p := h.ptr + dir; p >= 0 && p < len(h.lines); p += dir {
		if strings.HasPrefix(h.lines[p], prefix) {
			h.ptr = p
			return h.lines[p], true
		}
	}
	return "", false
}
