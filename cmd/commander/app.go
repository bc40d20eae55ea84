package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/dshills/commander/internal/builtin"
	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/completion"
	"github.com/dshills/commander/internal/config"
	"github.com/dshills/commander/internal/engine"
	"github.com/dshills/commander/internal/history"
	"github.com/dshills/commander/internal/host/memhost"
	"github.com/dshills/commander/internal/input/key"
	"github.com/dshills/commander/internal/logging"
	luaplugin "github.com/dshills/commander/internal/plugin/lua"
	"github.com/dshills/commander/internal/registry"
	"github.com/dshills/commander/internal/session"
	"github.com/dshills/commander/internal/watcher"
)

var (
	enterKey  = key.NewSpecialEvent(key.KeyEnter, 0)
	escapeKey = key.NewSpecialEvent(key.KeyEscape, 0)
)

// app wires the registry, engine and session to an in-memory document.
type app struct {
	cfg     config.Config
	log     *logging.Logger
	logFile io.Closer

	doc   *memhost.Document
	win   *memhost.Window
	entry *memhost.Entry

	watch *watcher.Watcher
	reg   *registry.Registry
	hist  *history.History
	sess  *session.Session

	cancel   context.CancelFunc
	done     chan struct{}
	opened   int
	shutdown sync.Once
}

func newApp(opts options) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	a := &app{cfg: cfg, done: make(chan struct{})}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logCfg.Output = f
		a.logFile = f
	} else if opts.UI == "term" {
		logCfg.Output = io.Discard
	}
	a.log = logging.New(logCfg)
	logging.SetDefault(a.log)

	text, err := readDocument(opts.File)
	if err != nil {
		return nil, err
	}
	a.doc = memhost.NewDocument(opts.File, text)
	a.win = memhost.NewWindow()
	a.entry = memhost.NewEntry(memhost.NewView(a.doc, a.win))

	regOpts := []registry.Option{
		registry.WithLogger(a.log.WithComponent("registry")),
		registry.WithDeleteDelay(cfg.Commander.DeleteDelay.Std()),
		registry.WithScheduler(a.entry.Post),
		registry.WithLoaders(luaplugin.NewLoader(
			luaplugin.WithLogger(a.log.WithComponent("lua")),
			luaplugin.WithNamedCompleters(map[string]command.Completer{
				"filename": completion.Filename,
				"command":  a.completeCommand,
			}),
		)),
	}
	if cfg.Commander.Watch {
		w, err := watcher.New()
		if err != nil {
			a.log.Warn("module watching disabled: %v", err)
		} else {
			a.watch = w
			regOpts = append(regOpts, registry.WithWatcher(w))
		}
	}

	a.reg = registry.New(regOpts...)
	a.reg.SetScanDirs(cfg.Commander.Dirs...)
	builtin.Register(a.reg, a.reg, builtin.WithLogger(a.log.WithComponent("builtin")))

	var histOpts []history.Option
	if cfg.Commander.HistorySize > 0 {
		histOpts = append(histOpts, history.WithMaxSize(cfg.Commander.HistorySize))
	}
	a.hist = history.New(cfg.Commander.History, histOpts...)
	if err := a.hist.Load(); err != nil {
		a.log.Warn("loading history: %v", err)
	}

	eng := engine.New(a.reg, engine.WithLogger(a.log.WithComponent("engine")))
	a.sess = session.New(a.entry, eng, a.reg, a.hist, session.WithLogger(a.log.WithComponent("session")))

	a.reg.Ensure()
	a.reg.ScanAccelerators()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		defer close(a.done)
		a.reg.Run(ctx)
	}()

	a.log.Info("commander %s started with %d modules", version, len(a.reg.Modules()))
	return a, nil
}

func (a *app) completeCommand(req command.CompletionRequest) (*command.Completion, bool) {
	return completion.Command(a.reg, req.Words, req.Index)
}

// Shutdown stops watching, closes every loaded module and saves the
// history. It is safe to call more than once.
func (a *app) Shutdown() {
	a.shutdown.Do(func() {
		a.cancel()
		a.waitDone()
		a.reg.Stop()
		if a.watch != nil {
			if err := a.watch.Close(); err != nil {
				a.log.Warn("closing watcher: %v", err)
			}
		}
		if err := a.hist.Save(); err != nil {
			a.log.Warn("saving history: %v", err)
		}
		if a.logFile != nil {
			a.logFile.Close()
		}
	})
}

// waitDone runs posts until the registry loop has returned, so a loop
// blocked on a full post queue can observe the cancellation.
func (a *app) waitDone() {
	for {
		select {
		case <-a.done:
			return
		case fn := <-a.entry.Posts():
			fn()
		}
	}
}

// drain runs every pending post without blocking.
func (a *app) drain() {
	for {
		select {
		case fn := <-a.entry.Posts():
			fn()
		default:
			return
		}
	}
}

// syncOpened loads the last file opened through the window into the
// document.
func (a *app) syncOpened() {
	opened := a.win.Opened()
	if len(opened) == a.opened {
		return
	}
	a.opened = len(opened)

	path := opened[len(opened)-1]
	text, err := readDocument(path)
	if err != nil {
		a.entry.InfoShow("Error: " + err.Error())
		return
	}
	a.doc.SetPath(path)
	a.doc.SetText(text)
	a.doc.Goto(0, 0)
}

func readDocument(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
