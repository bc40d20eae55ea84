package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment variables that override file settings.
const (
	EnvLogLevel    = "COMMANDER_LOG_LEVEL"
	EnvDirs        = "COMMANDER_DIRS"
	EnvHistory     = "COMMANDER_HISTORY"
	EnvDeleteDelay = "COMMANDER_DELETE_DELAY"
	EnvWatch       = "COMMANDER_WATCH"
)

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from the environment. COMMANDER_DIRS is a
// filepath.ListSeparator separated list; COMMANDER_DELETE_DELAY accepts a Go
// duration or a plain number of milliseconds.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvDirs); ok {
		var dirs []string
		for _, d := range filepath.SplitList(v) {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		cfg.Commander.Dirs = dirs
	}
	if v, ok := lookup(EnvHistory); ok {
		cfg.Commander.History = v
	}
	if v, ok := lookup(EnvDeleteDelay); ok {
		d, err := parseDelay(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDeleteDelay, err)
		}
		cfg.Commander.DeleteDelay = Duration(d)
	}
	if v, ok := lookup(EnvWatch); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWatch, err)
		}
		cfg.Commander.Watch = b
	}
	return nil
}

func parseDelay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}
