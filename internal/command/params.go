package command

import (
	"fmt"
	"strings"

	"github.com/dshills/commander/internal/host"
	"github.com/dshills/commander/internal/input/key"
)

// Context keys a parameter can be named after to receive a context value.
const (
	KeyEntry    = "entry"
	KeyView     = "view"
	KeyWindow   = "window"
	KeyArgStr   = "argstr"
	KeyArgs     = "args"
	KeyModifier = "modifier"
)

var contextKeys = map[string]bool{
	KeyEntry:    true,
	KeyView:     true,
	KeyWindow:   true,
	KeyArgStr:   true,
	KeyArgs:     true,
	KeyModifier: true,
}

// IsContextKey reports whether name is bound from the invocation context.
func IsContextKey(name string) bool {
	return contextKeys[name]
}

// ParamKind classifies a parameter.
type ParamKind uint8

const (
	// ParamPositional takes the next word.
	ParamPositional ParamKind = iota
	// ParamContext takes the context value of the same name.
	ParamContext
	// ParamVariadic takes every remaining word.
	ParamVariadic
)

func (k ParamKind) String() string {
	switch k {
	case ParamPositional:
		return "positional"
	case ParamContext:
		return "context"
	case ParamVariadic:
		return "variadic"
	default:
		return "unknown"
	}
}

// Param describes one declared parameter.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Arg declares a parameter by name. Context key names become context
// parameters; everything else is positional.
func Arg(name string) Param {
	if IsContextKey(name) {
		return Param{Name: name, Kind: ParamContext}
	}
	return Param{Name: name, Kind: ParamPositional}
}

// Opt declares a positional parameter with a default.
func Opt(name string, def any) Param {
	return Param{Name: name, Kind: ParamPositional, Default: def, HasDefault: true}
}

// Rest declares a variadic parameter.
func Rest(name string) Param {
	return Param{Name: name, Kind: ParamVariadic}
}

// Params is the ordered parameter list of a callable. It is built once,
// when the command is constructed.
type Params []Param

// NewParams builds Params from names, classifying each with Arg.
// A leading "*" marks the variadic parameter.
func NewParams(names ...string) Params {
	ps := make(Params, 0, len(names))
	for _, n := range names {
		if rest, ok := strings.CutPrefix(n, "*"); ok {
			ps = append(ps, Rest(rest))
			continue
		}
		ps = append(ps, Arg(n))
	}
	return ps
}

// Index returns the position of the named parameter, or -1.
func (ps Params) Index(name string) int {
	for i, p := range ps {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Positional returns the names of parameters that take words, in order.
// These are the argument slots completion works against.
func (ps Params) Positional() []string {
	var names []string
	for _, p := range ps {
		if p.Kind == ParamPositional {
			names = append(names, p.Name)
		}
	}
	return names
}

// Variadic reports whether a variadic parameter is declared.
func (ps Params) Variadic() bool {
	for _, p := range ps {
		if p.Kind == ParamVariadic {
			return true
		}
	}
	return false
}

// String renders the parameter list like "line [column=1] args...".
func (ps Params) String() string {
	var parts []string
	for _, p := range ps {
		switch {
		case p.Kind == ParamContext:
		case p.Kind == ParamVariadic:
			parts = append(parts, p.Name+"...")
		case p.HasDefault:
			parts = append(parts, fmt.Sprintf("[%s=%v]", p.Name, p.Default))
		default:
			parts = append(parts, p.Name)
		}
	}
	return strings.Join(parts, " ")
}

// Context carries the values a command may ask for by parameter name.
type Context struct {
	Entry    host.Entry
	View     host.View
	Window   host.Window
	ArgStr   string
	Args     []string
	Modifier key.Modifier
}

// NewContext builds a context for an entry, filling View and Window from it.
func NewContext(entry host.Entry, argstr string, args []string, mod key.Modifier) *Context {
	ctx := &Context{Entry: entry, ArgStr: argstr, Args: args, Modifier: mod}
	if entry != nil {
		ctx.View = entry.View()
		if ctx.View != nil {
			ctx.Window = ctx.View.Window()
		}
	}
	return ctx
}

// Lookup returns the context value for a context key.
func (c *Context) Lookup(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	switch name {
	case KeyEntry:
		return c.Entry, true
	case KeyView:
		return c.View, true
	case KeyWindow:
		return c.Window, true
	case KeyArgStr:
		return c.ArgStr, true
	case KeyArgs:
		return c.Args, true
	case KeyModifier:
		return c.Modifier, true
	}
	return nil, false
}

// Document returns the view's document, or nil.
func (c *Context) Document() host.Document {
	if c == nil || c.View == nil {
		return nil
	}
	return c.View.Document()
}
