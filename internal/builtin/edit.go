package builtin

import (
	"os"
	"path/filepath"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
)

// Edit returns the edit module: edit <filename>, where filename may be a
// glob. Relative names resolve against the document directory, or the
// home directory for an untitled document.
func Edit() command.Unit {
	params := command.Params{command.Arg("filename"), command.Arg(command.KeyView)}

	return command.NewStaticUnit().SetDefault(&command.Spec{
		Doc: "Edit file: edit <filename>",
		Call: command.Func(params, func(c *command.Call) (any, error) {
			if c.Context.Window == nil {
				return nil, command.Errorf("No window to open files in")
			}

			name := c.String("filename")
			if !filepath.IsAbs(name) {
				name = filepath.Join(editBaseDir(c.Context), name)
			}

			files, err := filepath.Glob(name)
			if err != nil || len(files) == 0 {
				files = []string{name}
			}
			if err := c.Context.Window.Open(files...); err != nil {
				return nil, command.Errorf("Failed to open %s: %v", name, err)
			}
			return command.Hide, nil
		}),
		Autocomplete: map[string]command.Completer{
			"filename": completion.Filename,
		},
	})
}

func editBaseDir(ctx *command.Context) string {
	if doc := ctx.Document(); doc != nil && doc.Path() != "" {
		return filepath.Dir(doc.Path())
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
