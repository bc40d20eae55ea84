package builtin

import (
	"strings"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
)

const helpDoc = `Show help on commands: help <command>

Show detailed information on how to use a certain command (if available)`

// Help returns the help module.
func Help(cmds completion.Source) command.Unit {
	params := command.Params{command.Arg(command.KeyEntry), command.Opt("command", "help")}

	return command.NewStaticUnit().SetDefault(&command.Spec{
		Doc: helpDoc,
		Call: command.Func(params, func(c *command.Call) (any, error) {
			name := c.String("command")
			n, err := lookup(cmds, name)
			if err != nil {
				return nil, err
			}
			if entry := entryOf(c); entry != nil {
				entry.InfoShow(helpText(name, n))
			}
			return command.Done, nil
		}),
		Autocomplete: map[string]command.Completer{
			"command": completion.CommandCompleter(cmds),
		},
	})
}

// helpText renders the documentation of n. When the typed name does not
// abbreviate the command's own name, n was reached through an alias.
func helpText(typed string, n command.Node) string {
	last := typed
	if i := strings.LastIndex(typed, "."); i >= 0 {
		last = typed[i+1:]
	}

	doc := n.Doc()
	if doc == "" {
		return n.Name() + "\n\nNo documentation available"
	}
	if !completion.MatchName(last, n.Name()) {
		doc = "(Alias): " + doc
	}
	return doc
}
