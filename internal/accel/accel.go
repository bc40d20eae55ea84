// Package accel implements chorded accelerator dispatch: a prefix tree of
// normalized key chords whose leaves are callbacks.
//
// A Group is not safe for concurrent use. It is owned by the UI loop.
package accel

import (
	"errors"
	"sort"
	"strings"

	"github.com/dshills/commander/internal/input/key"
)

// ErrNoHandler is returned by Callback.Activate when no function was bound.
var ErrNoHandler = errors.New("accelerator has no handler")

// Accelerator is a declared key binding: one or more chords pressed in
// sequence, plus keyword arguments passed to the bound command.
type Accelerator struct {
	Keys      []string
	Arguments map[string]any
}

// New creates an accelerator for the given chords.
func New(keys ...string) *Accelerator {
	return &Accelerator{Keys: keys}
}

// WithArguments sets the keyword arguments and returns a.
func (a *Accelerator) WithArguments(args map[string]any) *Accelerator {
	a.Arguments = args
	return a
}

// String returns the normalized chord list, or the raw keys when they do
// not parse.
func (a *Accelerator) String() string {
	chords, err := key.ParseChords(a.Keys...)
	if err != nil {
		return strings.Join(a.Keys, ", ")
	}
	return chords.String()
}

// Func is called when a leaf is activated. env is whatever the caller
// passes to Callback.Activate.
type Func func(cb *Callback, env any) (any, error)

// Callback is a leaf of the tree.
type Callback struct {
	Accelerator *Accelerator
	Data        any
	fn          Func
}

// Activate runs the bound function.
func (cb *Callback) Activate(env any) (any, error) {
	if cb.fn == nil {
		return nil, ErrNoHandler
	}
	return cb.fn(cb, env)
}

type node struct {
	children map[string]*node
	leaf     *Callback
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Group is one level of the chord tree. The root group has no parent and no
// name; nested groups returned by Activate share storage with the root.
type Group struct {
	parent *Group
	name   string
	root   *node
}

// NewGroup creates an empty root group.
func NewGroup() *Group {
	return &Group{root: newNode()}
}

// Add binds a to fn. It returns false, leaving the tree unchanged, when any
// chord does not parse, when the final chord is already bound (as a leaf or
// as a prefix of longer bindings), or when an earlier chord is already a leaf.
func (g *Group) Add(a *Accelerator, fn Func, data any) bool {
	chords, err := key.ParseChords(a.Keys...)
	if err != nil {
		return false
	}
	names := chords.Names()

	n := g.root
	for i, name := range names {
		child, ok := n.children[name]
		if !ok {
			break
		}
		if i == len(names)-1 || child.leaf != nil {
			return false
		}
		n = child
	}

	n = g.root
	for i, name := range names {
		child, ok := n.children[name]
		if !ok {
			child = newNode()
			n.children[name] = child
		}
		if i == len(names)-1 {
			child.leaf = &Callback{Accelerator: a, Data: data, fn: fn}
		}
		n = child
	}
	return true
}

// Remove deletes the binding for a and prunes interior nodes left empty.
// It reports whether a binding was removed.
func (g *Group) Remove(a *Accelerator) bool {
	chords, err := key.ParseChords(a.Keys...)
	if err != nil {
		return false
	}
	names := chords.Names()

	path := []*node{g.root}
	n := g.root
	for _, name := range names {
		child, ok := n.children[name]
		if !ok {
			return false
		}
		path = append(path, child)
		n = child
	}
	if n.leaf == nil {
		return false
	}
	n.leaf = nil

	for i := len(path) - 1; i > 0; i-- {
		if path[i].leaf != nil || len(path[i].children) > 0 {
			break
		}
		delete(path[i-1].children, names[i-1])
	}
	return true
}

// Activate looks up one chord at this level. It returns the bound callback,
// or a nested group when more chords are needed, or neither when the chord
// is unbound.
func (g *Group) Activate(ev key.Event) (*Callback, *Group) {
	name := ev.Name()
	child, ok := g.root.children[name]
	if !ok {
		return nil, nil
	}
	if child.leaf != nil {
		return child.leaf, nil
	}
	return nil, &Group{parent: g, name: name, root: child}
}

// Parent returns the enclosing group, or nil for the root.
func (g *Group) Parent() *Group {
	return g.parent
}

// Name returns the chord that led to this group.
func (g *Group) Name() string {
	return g.name
}

// FullName joins the chords from the root to g with ", ".
func (g *Group) FullName() string {
	var names []string
	for cur := g; cur != nil; cur = cur.parent {
		if cur.name != "" {
			names = append(names, cur.name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ", ")
}

// Len returns the number of leaves reachable from g.
func (g *Group) Len() int {
	return countLeaves(g.root)
}

func countLeaves(n *node) int {
	total := 0
	if n.leaf != nil {
		total++
	}
	for _, child := range n.children {
		total += countLeaves(child)
	}
	return total
}

// Binding pairs a full chord path with its callback.
type Binding struct {
	Chords   string
	Callback *Callback
}

// Bindings lists every leaf under g ordered by chord path.
func (g *Group) Bindings() []Binding {
	var out []Binding
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		if n.leaf != nil {
			out = append(out, Binding{Chords: prefix, Callback: n.leaf})
		}
		for name, child := range n.children {
			p := name
			if prefix != "" {
				p = prefix + ", " + name
			}
			walk(p, child)
		}
	}
	walk(g.FullName(), g.root)
	sort.Slice(out, func(i, j int) bool { return out[i].Chords < out[j].Chords })
	return out
}
