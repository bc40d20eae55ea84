package command

import (
	"sort"
	"strings"

	"github.com/dshills/commander/internal/accel"
)

// Node is a *Command or a *Module.
type Node interface {
	Name() string
	Doc() string
	// Callable returns nil for a module without a default command.
	Callable() Callable
	// Parent returns the owning module, or nil at top level.
	Parent() *Module
	Accelerator() *accel.Accelerator
	Autocomplete() map[string]Completer
}

// Command is a leaf of the command graph.
type Command struct {
	name     string
	doc      string
	fn       Callable
	parent   *Module
	accel    *accel.Accelerator
	complete map[string]Completer
}

// NewCommand creates a command from a spec. Underscores in name become
// hyphens.
func NewCommand(name string, spec *Spec, parent *Module) *Command {
	c := &Command{name: ExportName(name), parent: parent}
	c.apply(spec)
	return c
}

func (c *Command) apply(spec *Spec) {
	if spec == nil {
		c.doc, c.fn, c.accel, c.complete = "", nil, nil, nil
		return
	}
	c.doc = spec.Doc
	c.fn = spec.Call
	c.accel = spec.Accelerator
	c.complete = spec.Autocomplete
}

func (c *Command) Name() string                       { return c.name }
func (c *Command) Doc() string                        { return c.doc }
func (c *Command) Callable() Callable                 { return c.fn }
func (c *Command) Parent() *Module                    { return c.parent }
func (c *Command) Accelerator() *accel.Accelerator    { return c.accel }
func (c *Command) Autocomplete() map[string]Completer { return c.complete }

func (c *Command) String() string { return c.name }

// ExportName converts a source-level name to a command name.
func ExportName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// OneLineDoc returns the first line of n's documentation.
func OneLineDoc(n Node) string {
	doc, _, _ := strings.Cut(n.Doc(), "\n")
	return strings.TrimSpace(doc)
}

// FullName returns the dotted path of n from the top level, e.g.
// "grep.hide".
func FullName(n Node) string {
	parts := []string{n.Name()}
	for p := n.Parent(); p != nil; p = p.Parent() {
		parts = append(parts, p.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Search returns the index of the first node whose name is >= name.
func Search(nodes []Node, name string) int {
	return sort.Search(len(nodes), func(i int) bool {
		return nodes[i].Name() >= name
	})
}

// Find returns the node named name, if present.
func Find(nodes []Node, name string) (Node, bool) {
	i := Search(nodes, name)
	if i < len(nodes) && nodes[i].Name() == name {
		return nodes[i], true
	}
	return nil, false
}

// Insert adds n to the sorted slice nodes, after any nodes of equal name.
func Insert(nodes []Node, n Node) []Node {
	i := sort.Search(len(nodes), func(i int) bool {
		return nodes[i].Name() > n.Name()
	})
	nodes = append(nodes, nil)
	copy(nodes[i+1:], nodes[i:])
	nodes[i] = n
	return nodes
}

// Remove deletes n (by identity) from nodes and reports whether it was there.
func Remove(nodes []Node, n Node) ([]Node, bool) {
	for i, cur := range nodes {
		if cur == n {
			return append(nodes[:i], nodes[i+1:]...), true
		}
	}
	return nodes, false
}

// Sort sorts nodes by name, keeping equal names in their current order.
func Sort(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Name() < nodes[j].Name()
	})
}

// Walk calls fn for n and, when n is a module, every node below it.
func Walk(n Node, fn func(Node)) {
	fn(n)
	if m, ok := n.(*Module); ok {
		for _, child := range m.Children() {
			Walk(child, fn)
		}
	}
}
