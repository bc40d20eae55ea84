package builtin

import (
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
)

const reloadDoc = `Force reload of a module: reload <module>

Force a reload of a module. This is mostly useful on systems where file monitoring
does not work correctly.`

// Reload returns the reload module.
func Reload(cmds Commands) command.Unit {
	params := command.Params{command.Arg("command")}

	return command.NewStaticUnit().SetDefault(&command.Spec{
		Doc: reloadDoc,
		Call: command.Func(params, func(c *command.Call) (any, error) {
			n, err := lookup(cmds, c.String("command"))
			if err != nil {
				return nil, err
			}
			mod := topModule(n)
			if mod == nil || !cmds.ReloadModule(mod) {
				return nil, command.Errorf("Could not reload module: %s", command.FullName(n))
			}
			return command.Done, nil
		}),
		Autocomplete: map[string]command.Completer{
			"command": completion.CommandCompleter(cmds),
		},
	})
}

// topModule returns the registered module n belongs to.
func topModule(n command.Node) *command.Module {
	mod, _ := n.(*command.Module)
	for p := n.Parent(); p != nil; p = p.Parent() {
		mod = p
	}
	return mod
}
