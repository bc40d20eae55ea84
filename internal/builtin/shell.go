package builtin

import (
	"path/filepath"
	"strings"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/logging"
	"github.com/dshills/commander/internal/process"
)

// InputMarker in a shell command line stands for the selection, or the
// whole document when nothing is selected.
const InputMarker = "<!"

type shellMode int

const (
	shellOutput shellMode = iota
	shellReplace
	shellBackground
)

const (
	shellDoc = `Run shell command: ! <command>

You can use <! as a special input meaning the current selection or current
document.`
	backgroundDoc = `Run shell command in the background: !& <command>

You can use <! as a special input meaning the current selection or current
document.`
	replaceDoc = `Run shell command and place output in document: !! <command>

You can use <! as a special input meaning the current selection or current
document.`
)

type shell struct {
	path string
	log  *logging.Logger
}

// Shell returns the shell module. Its commands are also reachable through
// the roots "!" (show output), "!!" (replace the selection with the output)
// and "!&" (run in the background).
func Shell(path string, log *logging.Logger) command.Unit {
	sh := &shell{path: path, log: logging.OrDefault(log)}

	output := sh.spec(shellOutput, shellDoc)
	replace := sh.spec(shellReplace, replaceDoc)
	background := sh.spec(shellBackground, backgroundDoc)

	return command.NewStaticUnit().
		SetDefault(output).
		Add("background", background).
		Add("replace", replace).
		AddRoot("!", output).
		AddRoot("!!", replace).
		AddRoot("!&", background)
}

func (sh *shell) spec(mode shellMode, doc string) *command.Spec {
	params := command.Params{command.Arg(command.KeyView), command.Arg(command.KeyEntry), command.Arg(command.KeyArgStr)}
	return &command.Spec{
		Doc: doc,
		Call: command.Func(params, func(c *command.Call) (any, error) {
			return sh.run(c, mode)
		}),
	}
}

func (sh *shell) run(c *command.Call, mode shellMode) (any, error) {
	line := strings.TrimSpace(c.String(command.KeyArgStr))
	if line == "" {
		return nil, command.Errorf("Please specify a command to run")
	}
	entry := entryOf(c)
	view := viewOf(c)
	doc := c.Context.Document()

	opts := []process.Option{process.WithShell(sh.path), process.WithLogger(sh.log)}
	if doc != nil && doc.Path() != "" {
		opts = append(opts, process.WithDir(filepath.Dir(doc.Path())))
	}
	if strings.Contains(line, InputMarker) && doc != nil {
		input, ok := doc.Selection()
		if !ok {
			input = doc.Text()
		}
		line = strings.ReplaceAll(line, InputMarker, "<&0")
		opts = append(opts, process.WithStdin(strings.NewReader(input)))
	}

	switch mode {
	case shellBackground:
		p, err := process.Start(line, opts...)
		if err != nil {
			return nil, command.Errorf("Failed to execute: %v", err)
		}
		sh.log.Debug("started %s in the background", p.ID)
		return command.Hide, nil
	case shellReplace:
		opts = append(opts, process.WithCapture())
	default:
		if entry != nil {
			opts = append(opts, process.WithOutput(func(out string) {
				entry.Post(func() { entry.InfoShow(out) })
			}))
		}
	}

	p, err := process.Start(line, opts...)
	if err != nil {
		return nil, command.Errorf("Failed to execute: %v", err)
	}
	if mode == shellReplace && view != nil {
		view.SetEditable(false)
	}

	sus := command.NewSuspend()
	go func() {
		<-p.Done()
		sus.Resume()
	}()

	return command.Go(func(co *command.Coroutine) error {
		defer func() {
			if p.IsRunning() {
				if err := p.Kill(); err != nil {
					sh.log.Warn("kill %s: %v", p.ID, err)
				}
			}
			if mode == shellReplace && view != nil {
				view.SetEditable(true)
			}
		}()

		if err := co.Wait(sus); err != nil {
			return err
		}

		select {
		case <-p.Done():
			if mode == shellReplace && doc != nil {
				doc.ReplaceSelection(p.Output())
			}
		default:
			// Resumed by the user before the process finished.
		}

		_, err := co.Yield(command.Done)
		return err
	}), nil
}
