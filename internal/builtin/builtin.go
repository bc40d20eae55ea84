// Package builtin provides the command modules that ship with commander:
// help, reload, shell (with the !, !! and !& roots), goto and edit.
package builtin

import (
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/host"
	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/process"
)

// Commands is what the built-ins need from the registry.
type Commands interface {
	completion.Source
	ReloadModule(mod *command.Module) bool
}

// Registrar accepts built-in modules.
type Registrar interface {
	Register(name string, u command.Unit)
}

type config struct {
	log   *logging.Logger
	shell string
}

// Option configures the built-ins.
type Option func(*config)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithShell sets the shell used by the shell module.
func WithShell(shell string) Option {
	return func(c *config) {
		if shell != "" {
			c.shell = shell
		}
	}
}

// Register adds every built-in module to r.
func Register(r Registrar, cmds Commands, opts ...Option) {
	cfg := &config{log: logging.Discard(), shell: process.DefaultShell}
	for _, opt := range opts {
		opt(cfg)
	}

	r.Register("help", Help(cmds))
	r.Register("reload", Reload(cmds))
	r.Register("shell", Shell(cfg.shell, cfg.log.WithComponent("shell")))
	r.Register("goto", Goto())
	r.Register("edit", Edit())
}

// entryOf and viewOf read the invocation context, so they work whether or
// not the command declares the matching parameter.
func entryOf(c *command.Call) host.Entry {
	if c.Context == nil {
		return nil
	}
	return c.Context.Entry
}

func viewOf(c *command.Call) host.View {
	if c.Context == nil {
		return nil
	}
	return c.Context.View
}

// lookup resolves a command name the way the command bar does and returns
// the first match, module or not.
func lookup(cmds completion.Source, name string) (command.Node, error) {
	res, ok := completion.Command(cmds, []string{name}, 0)
	if !ok || len(res.Nodes) == 0 {
		return nil, command.Errorf("Could not find command: %s", name)
	}
	return res.Nodes[0], nil
}
