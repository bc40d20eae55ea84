// Package registry discovers command modules, keeps them loaded and sorted,
// reloads them when their sources change and maintains the accelerator
// group built from their declarations.
//
// A Registry is an explicit application object; create one per editor
// instance. Its methods are safe for concurrent use, but the accelerator
// group it returns is owned by the UI loop: install a Scheduler that posts
// onto that loop when the registry is watched.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/commander/internal/accel"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/watcher"
)

type source struct {
	loader Loader
	static command.Unit
}

type builtinModule struct {
	name string
	unit command.Unit
}

type pendingDelete struct {
	timer *time.Timer
}

// Registry is the set of top-level command modules.
type Registry struct {
	mu          sync.Mutex
	loaders     []Loader
	log         *logging.Logger
	watch       *watcher.Watcher
	deleteDelay time.Duration
	schedule    Scheduler

	dirs     []string
	builtins []builtinModule
	scanned  bool

	// modules holds top-level modules and the roots they promote, sorted
	// by name.
	modules []command.Node
	sources map[*command.Module]source
	timers  map[string]*pendingDelete
	watched []string
	group   *accel.Group
	bound   map[command.Node]bool
}

// New creates a registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		log:         logging.Default().WithComponent("registry"),
		deleteDelay: DefaultDeleteDelay,
		schedule:    func(fn func()) { fn() },
		sources:     make(map[*command.Module]source),
		timers:      make(map[string]*pendingDelete),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetScanDirs sets the directories searched for module sources, highest
// priority first. It takes effect at the next scan.
func (r *Registry) SetScanDirs(dirs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append([]string(nil), dirs...)
}

// Register adds a built-in module. Built-ins are added after the scan
// directories, so a module source of the same name overrides them.
func (r *Registry) Register(name string, u command.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := builtinModule{name: name, unit: u}
	r.builtins = append(r.builtins, b)
	if r.scanned {
		r.addBuiltinLocked(b)
	}
}

// Ensure scans the module directories once.
func (r *Registry) Ensure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked()
}

func (r *Registry) ensureLocked() {
	if r.scanned {
		return
	}
	r.scanned = true

	for _, d := range r.dirs {
		r.scanLocked(d)
	}
	for _, b := range r.builtins {
		r.addBuiltinLocked(b)
	}
}

// scanLocked adds every module source directly inside dir. Unreadable
// directories are skipped.
func (r *Registry) scanLocked(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Debug("skipping module dir %s: %v", dir, err)
	}
	for _, e := range entries {
		r.addModuleLocked(filepath.Join(dir, e.Name()))
	}

	if r.watch == nil {
		return
	}
	if err := r.watch.Watch(dir); err != nil && err != watcher.ErrAlreadyWatching {
		r.log.Debug("cannot watch %s: %v", dir, err)
		return
	}
	r.watched = append(r.watched, dir)
}

// Modules returns the sorted top-level nodes: modules and promoted roots.
func (r *Registry) Modules() []command.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked()
	return append([]command.Node(nil), r.modules...)
}

// AddModule loads the module source at path. It reports false when path is
// not a module source, a module of that name already exists, or loading
// failed.
func (r *Registry) AddModule(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked()
	return r.addModuleLocked(path)
}

func (r *Registry) addModuleLocked(path string) bool {
	ld, name, isDir, ok := r.match(path)
	if !ok {
		return false
	}
	if r.findLocked(name) != nil {
		return false
	}

	mod := command.NewModule(name, path, isDir)
	r.sources[mod] = source{loader: ld}
	r.modules = command.Insert(r.modules, mod)
	return r.reloadLocked(mod)
}

func (r *Registry) addBuiltinLocked(b builtinModule) {
	if r.findLocked(command.ExportName(b.name)) != nil {
		r.log.Debug("built-in module %s overridden", b.name)
		return
	}
	mod := command.NewModule(b.name, "", false)
	r.sources[mod] = source{static: b.unit}
	r.modules = command.Insert(r.modules, mod)
	r.reloadLocked(mod)
}

func (r *Registry) match(path string) (Loader, string, bool, bool) {
	for _, ld := range r.loaders {
		if name, isDir, ok := ld.Match(path); ok {
			return ld, command.ExportName(name), isDir, true
		}
	}
	return nil, "", false, false
}

// findLocked returns the top-level module named name.
func (r *Registry) findLocked(name string) *command.Module {
	for i := command.Search(r.modules, name); i < len(r.modules) && r.modules[i].Name() == name; i++ {
		if mod, ok := r.modules[i].(*command.Module); ok {
			if _, known := r.sources[mod]; known {
				return mod
			}
		}
	}
	return nil
}

// ResolveModule returns the module whose source is, or contains, path.
// When no module matches and load is true, a module source at path is
// added.
func (r *Registry) ResolveModule(path string, load bool) *command.Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked()

	if mod := r.resolveLocked(path); mod != nil {
		return mod
	}
	if load && r.addCandidateLocked(path) {
		return r.resolveLocked(path)
	}
	return nil
}

func (r *Registry) resolveLocked(path string) *command.Module {
	path = filepath.Clean(path)
	for mod, src := range r.sources {
		if src.static != nil || mod.Path() == "" {
			continue
		}
		if mod.Path() == path {
			return mod
		}
		if mod.IsDir() && strings.HasPrefix(path, mod.Path()+string(filepath.Separator)) {
			return mod
		}
	}
	if _, name, _, ok := r.match(path); ok {
		return r.findLocked(name)
	}
	return nil
}

// addCandidateLocked adds a new top-level module for a path reported by the
// watcher: the path itself, or the directory holding it, when it sits
// directly in a scan directory.
func (r *Registry) addCandidateLocked(path string) bool {
	for _, p := range []string{path, filepath.Dir(path)} {
		if !r.inScanDir(p) {
			continue
		}
		if r.addModuleLocked(p) {
			return true
		}
	}
	return false
}

func (r *Registry) inScanDir(path string) bool {
	parent := filepath.Dir(filepath.Clean(path))
	for _, d := range r.dirs {
		if filepath.Clean(d) == parent {
			return true
		}
	}
	return false
}

// ReloadModule reloads a top-level module from its source. A module that
// fails to load is removed and the failure logged; ReloadModule reports
// whether the module is still present.
func (r *Registry) ReloadModule(mod *command.Module) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloadLocked(mod)
}

// ReloadPath reloads the module at path, adding it when it is new.
func (r *Registry) ReloadPath(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked()
	return r.reloadPathLocked(path)
}

func (r *Registry) reloadPathLocked(path string) bool {
	if mod := r.resolveLocked(path); mod != nil {
		return r.reloadLocked(mod)
	}
	return r.addCandidateLocked(path)
}

func (r *Registry) reloadLocked(mod *command.Module) bool {
	src, ok := r.sources[mod]
	if !ok {
		return false
	}

	r.detachLocked(mod)
	if u := mod.Unload(); u != nil && src.static == nil {
		r.closeUnit(mod, u)
	}

	u := src.static
	if u == nil {
		var err error
		u, err = src.loader.Load(mod.Path(), mod.IsDir())
		if err != nil {
			r.log.Error("failed to reload module %s: %v", mod.Name(), err)
			r.modules, _ = command.Remove(r.modules, mod)
			delete(r.sources, mod)
			return false
		}
	}

	mod.Load(u)
	for _, root := range mod.Roots() {
		r.modules = command.Insert(r.modules, root)
	}
	if r.group != nil {
		r.addAccelsLocked(mod)
	}
	r.log.Debug("loaded module %s", mod.Name())
	return true
}

// RemoveModule unloads a module and drops it with its roots and
// accelerators.
func (r *Registry) RemoveModule(mod *command.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(mod)
}

func (r *Registry) removeLocked(mod *command.Module) {
	src, ok := r.sources[mod]
	if !ok {
		return
	}
	r.detachLocked(mod)
	if u := mod.Unload(); u != nil && src.static == nil {
		r.closeUnit(mod, u)
	}
	r.modules, _ = command.Remove(r.modules, mod)
	delete(r.sources, mod)
	r.log.Info("removed module %s", mod.Name())
}

// detachLocked removes the module's roots and accelerators.
func (r *Registry) detachLocked(mod *command.Module) {
	roots := mod.Roots()
	if r.group != nil {
		r.removeAccelsLocked(mod)
	}
	for _, root := range roots {
		r.modules, _ = command.Remove(r.modules, root)
	}
}

func (r *Registry) closeUnit(mod *command.Module, u command.Unit) {
	if err := u.Close(); err != nil {
		r.log.Warn("closing module %s: %v", mod.Name(), err)
	}
}

// HandleEvent applies a change to a module source. A deletion is delayed
// so that a delete followed by a create of the same path, as many editors
// save, becomes a single reload.
func (r *Registry) HandleEvent(ev watcher.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.scanned {
		return
	}

	switch ev.Op {
	case watcher.OpChanged:
		r.reloadPathLocked(ev.Path)
	case watcher.OpCreated:
		r.cancelDeleteLocked(ev.Path)
		r.reloadPathLocked(ev.Path)
	case watcher.OpDeleted:
		if mod := r.resolveLocked(ev.Path); mod != nil {
			r.scheduleDeleteLocked(ev.Path, mod)
		}
	}
}

func (r *Registry) scheduleDeleteLocked(path string, mod *command.Module) {
	r.cancelDeleteLocked(path)

	p := &pendingDelete{}
	r.timers[path] = p
	p.timer = time.AfterFunc(r.deleteDelay, func() {
		r.schedule(func() { r.deleteTimeout(path, p, mod) })
	})
}

func (r *Registry) cancelDeleteLocked(path string) {
	if p, ok := r.timers[path]; ok {
		p.timer.Stop()
		delete(r.timers, path)
	}
}

func (r *Registry) deleteTimeout(path string, p *pendingDelete, mod *command.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timers[path] != p {
		return
	}
	delete(r.timers, path)

	src, ok := r.sources[mod]
	if !ok {
		return
	}
	// A file inside a directory module went away but the module is intact.
	if _, _, ok := src.loader.Match(mod.Path()); ok {
		r.reloadLocked(mod)
		return
	}
	r.removeLocked(mod)
}

// PendingDeletes returns the number of armed delete timers.
func (r *Registry) PendingDeletes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Run feeds watcher events into HandleEvent through the scheduler until
// ctx is done. It returns at once when no watcher is configured.
func (r *Registry) Run(ctx context.Context) {
	if r.watch == nil {
		return
	}
	r.watch.Run(ctx, func(ev watcher.Event) {
		r.schedule(func() { r.HandleEvent(ev) })
	}, func(err error) {
		r.log.Warn("watch error: %v", err)
	})
}

// AccelGroup returns the accelerator group, building it on first use.
func (r *Registry) AccelGroup() *accel.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.group == nil {
		r.scanAccelsLocked()
	}
	return r.group
}

// ScanAccelerators rebuilds the accelerator group from every module.
func (r *Registry) ScanAccelerators() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanAccelsLocked()
}

func (r *Registry) scanAccelsLocked() {
	r.ensureLocked()
	r.group = accel.NewGroup()
	r.bound = make(map[command.Node]bool)
	for _, n := range r.modules {
		r.addNodeAccelsLocked(n)
	}
}

func (r *Registry) addAccelsLocked(mod *command.Module) {
	r.addNodeAccelsLocked(mod)
	for _, root := range mod.Roots() {
		r.addNodeAccelsLocked(root)
	}
}

func (r *Registry) addNodeAccelsLocked(n command.Node) {
	command.Walk(n, func(c command.Node) {
		a := c.Accelerator()
		if a == nil || c.Callable() == nil {
			return
		}
		if !r.group.Add(a, nil, c) {
			r.log.Warn("accelerator %s of %s conflicts with an existing binding", a, command.FullName(c))
			return
		}
		r.bound[c] = true
	})
}

func (r *Registry) removeAccelsLocked(mod *command.Module) {
	remove := func(c command.Node) {
		if r.bound[c] {
			r.group.Remove(c.Accelerator())
			delete(r.bound, c)
		}
	}
	command.Walk(mod, remove)
	for _, root := range mod.Roots() {
		remove(root)
	}
}

// Stop cancels pending timers and watches, releases every loaded module
// and forgets the scan, so the next use rescans.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, p := range r.timers {
		p.timer.Stop()
		delete(r.timers, path)
	}
	if r.watch != nil {
		for _, d := range r.watched {
			_ = r.watch.Unwatch(d)
		}
	}
	r.watched = nil

	for mod, src := range r.sources {
		if u := mod.Unload(); u != nil && src.static == nil {
			r.closeUnit(mod, u)
		}
	}
	r.sources = make(map[*command.Module]source)
	r.modules = nil
	r.group = nil
	r.bound = nil
	r.scanned = false
}
