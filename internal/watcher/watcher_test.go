package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitFor(t *testing.T, w *Watcher, path string, op Op) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if ev.Path == path && ev.Op == op {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s %s", op, path)
		}
	}
}

func TestWatchUnwatch(t *testing.T) {
	w := newWatcher(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	if !w.IsWatching(dir) || !w.IsWatching(sub) {
		t.Error("dir and sub should be watched")
	}
	if err := w.Watch(dir); err != ErrAlreadyWatching {
		t.Errorf("Watch again error = %v, want ErrAlreadyWatching", err)
	}

	if err := w.Unwatch(dir); err != nil {
		t.Fatalf("Unwatch error = %v", err)
	}
	if w.IsWatching(dir) || w.IsWatching(sub) {
		t.Error("nothing should be watched after Unwatch")
	}
	if err := w.Unwatch(dir); err != ErrNotWatching {
		t.Errorf("Unwatch again error = %v, want ErrNotWatching", err)
	}
}

func TestWatchNonexistent(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch("/nonexistent/path/that/does/not/exist"); err != ErrPathNotExist {
		t.Errorf("Watch error = %v, want ErrPathNotExist", err)
	}
}

func TestEvents(t *testing.T) {
	w := newWatcher(t)
	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "mod.lua")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, path, OpCreated)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, path, OpDeleted)
}

func TestEventsInNewDirectory(t *testing.T) {
	w := newWatcher(t)
	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, sub, OpCreated)

	path := filepath.Join(sub, "init.lua")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, path, OpCreated)
}

func TestFilter(t *testing.T) {
	w := newWatcher(t, WithFilter(func(p string) bool {
		return filepath.Ext(p) == ".lua"
	}))
	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(dir, "keep.lua")
	if err := os.WriteFile(keep, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if filepath.Ext(ev.Path) != ".lua" {
				t.Fatalf("unexpected event for %s", ev.Path)
			}
			if ev.Path == keep {
				return
			}
		case <-timeout:
			t.Fatal("timed out")
		}
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		in   fsnotify.Op
		want Op
	}{
		{fsnotify.Create, OpCreated},
		{fsnotify.Write, OpChanged},
		{fsnotify.Remove, OpDeleted},
		{fsnotify.Rename, OpDeleted},
		{fsnotify.Chmod, 0},
		{fsnotify.Create | fsnotify.Write, OpCreated},
	}
	for _, tt := range tests {
		if got := convertOp(tt.in); got != tt.want {
			t.Errorf("convertOp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close error = %v", err)
	}
	if err := w.Watch(t.TempDir()); err != ErrWatcherClosed {
		t.Errorf("Watch after Close error = %v, want ErrWatcherClosed", err)
	}
}
