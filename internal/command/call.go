package command

// Callable is an invocable with a declared parameter list.
type Callable interface {
	Params() Params
	Call(c *Call) (any, error)
}

// Call is one bound invocation.
type Call struct {
	// Params is the callable's parameter list.
	Params Params
	// Args holds one value per parameter, in declaration order. Positional
	// values are strings (or the declared default), the variadic slot is a
	// []string, context slots hold the context value.
	Args []any
	// Options holds keyword arguments, such as those declared on an
	// accelerator.
	Options map[string]any
	// Context is the invocation context.
	Context *Context
}

// Bind matches params against an invocation. Missing positional values
// fall back to their defaults; a missing value without a default is a
// declared error naming the parameter. Extra words are dropped unless a
// variadic parameter collects them.
func Bind(params Params, ctx *Context, words []string, opts map[string]any) (*Call, error) {
	c := &Call{Params: params, Args: make([]any, len(params)), Options: opts, Context: ctx}
	idx := 0

	for i, p := range params {
		switch p.Kind {
		case ParamContext:
			c.Args[i], _ = ctx.Lookup(p.Name)
		case ParamVariadic:
			rest := []string{}
			if idx < len(words) {
				rest = append(rest, words[idx:]...)
				idx = len(words)
			}
			c.Args[i] = rest
		default:
			switch {
			case idx < len(words):
				c.Args[i] = words[idx]
				idx++
			case p.HasDefault:
				c.Args[i] = p.Default
			default:
				return nil, Errorf("Invalid number of arguments (need %s)", p.Name)
			}
		}
	}
	return c, nil
}

// Value returns the bound value of the named parameter, then the option of
// that name.
func (c *Call) Value(name string) any {
	if i := c.Params.Index(name); i >= 0 {
		return c.Args[i]
	}
	return c.Options[name]
}

// String returns the named value as a string, or "" when it is not one.
func (c *Call) String(name string) string {
	s, _ := c.Value(name).(string)
	return s
}

// Strings returns the named variadic value.
func (c *Call) Strings(name string) []string {
	ss, _ := c.Value(name).([]string)
	return ss
}

// Bool returns the named option or value as a bool.
func (c *Call) Bool(name string) bool {
	b, _ := c.Value(name).(bool)
	return b
}

// Func adapts a Go function to a Callable.
func Func(params Params, fn func(c *Call) (any, error)) Callable {
	return &funcCallable{params: params, fn: fn}
}

type funcCallable struct {
	params Params
	fn     func(c *Call) (any, error)
}

func (f *funcCallable) Params() Params {
	return f.params
}

func (f *funcCallable) Call(c *Call) (any, error) {
	return f.fn(c)
}
