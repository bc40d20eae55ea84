package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/command"
	"github.com/dshills/commander/internal/logging"
)

// Module source names.
const (
	Ext      = ".lua"
	InitFile = "init.lua"
)

// Loader loads Lua command modules: a single name.lua file, or a name/
// directory holding init.lua. It satisfies registry.Loader.
type Loader struct {
	log         *logging.Logger
	completers  map[string]command.Completer
	loadTimeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(l *logging.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithNamedCompleters registers completers modules can name in their
// autocomplete declarations.
func WithNamedCompleters(c map[string]command.Completer) LoaderOption {
	return func(ld *Loader) {
		ld.completers = c
	}
}

// WithModuleLoadTimeout bounds how long a module chunk may run.
func WithModuleLoadTimeout(d time.Duration) LoaderOption {
	return func(ld *Loader) {
		ld.loadTimeout = d
	}
}

// NewLoader creates a Lua module loader.
func NewLoader(opts ...LoaderOption) *Loader {
	ld := &Loader{
		log:         logging.Discard(),
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Match reports whether path is a Lua module source.
func (ld *Loader) Match(path string) (string, bool, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return "", false, false
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", false, false
	}
	if fi.IsDir() {
		initInfo, err := os.Stat(filepath.Join(path, InitFile))
		if err != nil || initInfo.IsDir() {
			return "", false, false
		}
		return base, true, true
	}
	if filepath.Ext(base) != Ext {
		return "", false, false
	}
	return strings.TrimSuffix(base, Ext), false, true
}

// Load runs the module source in a new state and reads the table it
// returns.
func (ld *Loader) Load(path string, isDir bool) (command.Unit, error) {
	file := path
	opts := []StateOption{
		WithLoadTimeout(ld.loadTimeout),
		WithStateLogger(ld.log.WithField("module", path)),
		WithCompleters(ld.completers),
	}
	if isDir {
		file = filepath.Join(path, InitFile)
		opts = append(opts, WithModuleDir(path))
	}

	st, err := NewState(opts...)
	if err != nil {
		return nil, err
	}

	ret, err := st.DoFile(file)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load %s: %w", path, scriptError(err))
	}
	t, ok := ret.(*lua.LTable)
	if !ok {
		st.Close()
		return nil, fmt.Errorf("load %s: %w", path, ErrNotModule)
	}

	u := st.buildUnit(t)
	u.close = st.Close
	ld.log.Debug("loaded %s (%d exports, %d required files)", path, len(u.exports), len(st.Required()))
	return u, nil
}
