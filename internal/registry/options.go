package registry

import (
	"time"

	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/watcher"
)

// DefaultDeleteDelay is how long a deleted module source may take to
// reappear before the module is unloaded. Editors commonly save by deleting
// and recreating a file.
const DefaultDeleteDelay = 500 * time.Millisecond

// Scheduler runs fn on the loop that owns the registry. Timer callbacks and
// watch events go through it.
type Scheduler func(fn func())

// Option configures a Registry.
type Option func(*Registry)

// WithLoaders sets the module source loaders, tried in order.
func WithLoaders(loaders ...Loader) Option {
	return func(r *Registry) {
		r.loaders = append(r.loaders, loaders...)
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithWatcher enables watching scanned directories.
func WithWatcher(w *watcher.Watcher) Option {
	return func(r *Registry) {
		r.watch = w
	}
}

// WithDeleteDelay sets the delete debounce delay.
func WithDeleteDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.deleteDelay = d
		}
	}
}

// WithScheduler sets the scheduler used for timer callbacks and watch
// events. By default they run on their own goroutine.
func WithScheduler(s Scheduler) Option {
	return func(r *Registry) {
		if s != nil {
			r.schedule = s
		}
	}
}
