package command

import (
	"strings"
	"sync"
)

// Module is a command that owns child nodes loaded from a Unit. Children
// are scanned from the unit on first access.
type Module struct {
	Command

	path  string
	isDir bool

	mu       sync.Mutex
	unit     Unit
	children []Node
	roots    []Node
	scanned  bool
}

// NewModule creates an empty, unloaded module for the source at path.
func NewModule(name, path string, isDir bool) *Module {
	return &Module{
		Command: Command{name: ExportName(name)},
		path:    path,
		isDir:   isDir,
	}
}

func newSubModule(name string, u Unit, parent *Module) *Module {
	m := &Module{Command: Command{name: ExportName(name), parent: parent}}
	m.Load(u)
	return m
}

// Path returns the module source path.
func (m *Module) Path() string { return m.path }

// IsDir reports whether the module comes from a directory source.
func (m *Module) IsDir() bool { return m.isDir }

// Load attaches a freshly loaded unit. The previous children are discarded
// and rescanned lazily.
func (m *Module) Load(u Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unit = u
	m.children, m.roots, m.scanned = nil, nil, false
	if u != nil {
		m.apply(u.Default())
	} else {
		m.apply(nil)
	}
}

// Unload detaches the unit and clears the children. It returns the unit so
// the caller can release it.
func (m *Module) Unload() Unit {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.unit
	m.unit = nil
	m.children, m.roots, m.scanned = nil, nil, false
	m.apply(nil)
	return u
}

// Loaded reports whether a unit is attached.
func (m *Module) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unit != nil
}

// Children returns the sorted child nodes. The slice must not be modified.
func (m *Module) Children() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanLocked()
	return m.children
}

// Roots returns the commands this module promotes to its parent's scope.
func (m *Module) Roots() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanLocked()
	return m.roots
}

func (m *Module) scanLocked() {
	if m.scanned {
		return
	}
	m.scanned = true
	m.children, m.roots = nil, nil
	if m.unit == nil {
		return
	}

	rootNames := make(map[string]bool)
	for _, r := range m.unit.Roots() {
		rootNames[r] = true
	}

	specs := make(map[string]*Spec)
	for _, e := range m.unit.Exports() {
		switch {
		case rootNames[e.Name]:
			specs[e.Name] = e.Spec
		case strings.HasPrefix(e.Name, "_"):
		case e.Module != nil:
			sub := newSubModule(e.Name, e.Module, m)
			m.children = Insert(m.children, sub)
			for _, r := range sub.Roots() {
				m.children = Insert(m.children, r)
			}
		case e.Spec != nil:
			m.children = Insert(m.children, NewCommand(e.Name, e.Spec, m))
		}
	}

	for _, r := range m.unit.Roots() {
		if spec := specs[r]; spec != nil {
			m.roots = append(m.roots, NewCommand(r, spec, m))
		}
	}
}
