package builtin

import (
	"strconv"
	"strings"

	"github.com/dshills/commander/internal/command"
)

// Goto returns the goto module: goto <line> [column]. A line starting with
// + or - moves relative to the cursor.
func Goto() command.Unit {
	params := command.Params{command.Arg(command.KeyView), command.Arg("line"), command.Opt("column", "1")}

	return command.NewStaticUnit().SetDefault(&command.Spec{
		Doc: "Goto line number",
		Call: command.Func(params, func(c *command.Call) (any, error) {
			doc := c.Context.Document()
			if doc == nil {
				return nil, command.Errorf("No document to go to")
			}

			line, err := targetLine(c.String("line"), doc.CursorLine())
			if err != nil {
				return nil, err
			}
			column, err := strconv.Atoi(c.String("column"))
			if err != nil {
				return nil, command.Errorf("Please specify a valid line number")
			}

			line = min(max(0, line), doc.LineCount()-1)
			column = min(max(0, column-1), doc.LineLength(line))
			doc.Goto(line, column)
			return command.Hide, nil
		}),
	})
}

// targetLine returns the zero-based line for spec.
func targetLine(spec string, current int) (int, error) {
	var (
		n   int
		err error
	)
	switch {
	case strings.HasPrefix(spec, "+"):
		n, err = strconv.Atoi(spec[1:])
		n = current + n
	case strings.HasPrefix(spec, "-"):
		n, err = strconv.Atoi(spec[1:])
		n = current - n
	default:
		n, err = strconv.Atoi(spec)
		n--
	}
	if err != nil {
		return 0, command.Errorf("Please specify a valid line number")
	}
	return n, nil
}
