// Package watcher reports changes to module sources on disk.
//
// A Watcher follows directories with fsnotify and reduces the raw
// notifications to three operations: a source appeared, changed or went
// away. Watching is best effort; errors are reported on the Errors channel
// and never stop the loop.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op is the kind of change.
type Op uint8

const (
	// OpCreated indicates a path was created or moved in.
	OpCreated Op = iota + 1
	// OpChanged indicates a file was written.
	OpChanged
	// OpDeleted indicates a path was removed or moved away.
	OpDeleted
)

func (op Op) String() string {
	switch op {
	case OpCreated:
		return "CREATED"
	case OpChanged:
		return "CHANGED"
	case OpDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Event is a change to one path.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Filter reports whether events for path should be delivered.
type Filter func(path string) bool

// Option configures a Watcher.
type Option func(*Watcher)

// WithBufferSize sets the size of the event and error channels.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// WithFilter sets a filter applied to every event.
func WithFilter(f Filter) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// Watcher watches directory trees.
type Watcher struct {
	mu      sync.RWMutex
	fsw     *fsnotify.Watcher
	paths   map[string]bool
	bufSize int
	filter  Filter

	events chan Event
	errors chan error

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	w := &Watcher{
		paths:   make(map[string]bool),
		bufSize: 100,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	w.events = make(chan Event, w.bufSize)
	w.errors = make(chan error, w.bufSize)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch follows dir and every non-hidden directory below it. Directories
// created later are followed as they appear.
func (w *Watcher) Watch(dir string) error {
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return ErrWatcherClosed
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.add(abs)
	}
	if w.IsWatching(abs) {
		return ErrAlreadyWatching
	}

	return filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != abs && isHidden(p) {
			return filepath.SkipDir
		}
		switch err := w.add(p); {
		case err == nil, errors.Is(err, ErrAlreadyWatching):
		case errors.Is(err, ErrWatcherClosed):
			return err
		default:
			w.sendError(err)
		}
		return nil
	})
}

func (w *Watcher) add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[path] {
		return ErrAlreadyWatching
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.paths[path] = true
	return nil
}

// Unwatch stops following dir and the directories below it.
func (w *Watcher) Unwatch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.paths[abs] {
		return ErrNotWatching
	}
	for p := range w.paths {
		if p == abs || strings.HasPrefix(p, abs+string(filepath.Separator)) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
	return nil
}

// IsWatching reports whether path is followed.
func (w *Watcher) IsWatching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.paths[abs]
}

// Events returns the event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Run calls fn for each event until ctx is done or the watcher is closed.
// Errors go to onErr when it is not nil.
func (w *Watcher) Run(ctx context.Context, fn func(Event), onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			fn(ev)
		case err, ok := <-w.errors:
			if !ok {
				return
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handle(fe fsnotify.Event) {
	op := convertOp(fe.Op)
	if op == 0 || isHidden(fe.Name) {
		return
	}
	if w.filter != nil && !w.filter(fe.Name) {
		return
	}

	if op == OpCreated {
		if info, err := os.Stat(fe.Name); err == nil && info.IsDir() {
			_ = w.add(fe.Name)
		}
	}
	if op == OpDeleted {
		w.mu.Lock()
		delete(w.paths, fe.Name)
		w.mu.Unlock()
	}

	w.sendEvent(Event{Path: fe.Name, Op: op, Timestamp: time.Now()})
}

// convertOp maps a raw notification to an Op. Chmod alone is dropped.
func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDeleted
	case op.Has(fsnotify.Create):
		return OpCreated
	case op.Has(fsnotify.Write):
		return OpChanged
	}
	return 0
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && base[0] == '.'
}

func (w *Watcher) sendEvent(ev Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.events <- ev:
	default:
		w.trySendError(errors.New("event channel full, dropping event for " + ev.Path))
	}
}

func (w *Watcher) sendError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	w.trySendError(err)
}

func (w *Watcher) trySendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
