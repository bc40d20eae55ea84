// Package config loads the commander configuration from a TOML or YAML file
// and applies environment overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Commander Commander `toml:"commander" yaml:"commander"`
	Logging   Logging   `toml:"logging" yaml:"logging"`
}

// Commander configures module discovery and the command bar.
type Commander struct {
	// Dirs are the module directories, highest priority first.
	Dirs []string `toml:"dirs" yaml:"dirs"`

	// History is the command history file.
	History string `toml:"history" yaml:"history"`

	// DeleteDelay is how long a deleted module file may stay gone before
	// the module is unloaded.
	DeleteDelay Duration `toml:"delete_delay" yaml:"delete_delay"`

	// Watch enables filesystem watching of module directories.
	Watch bool `toml:"watch" yaml:"watch"`

	// HistorySize caps the number of persisted history lines. Zero keeps all.
	HistorySize int `toml:"history_size" yaml:"history_size"`
}

// Logging configures the logger.
type Logging struct {
	Level string `toml:"level" yaml:"level"`
}

// Duration is a time.Duration written as "500ms" in configuration files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML accepts the same strings as UnmarshalText.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	base := configDir()
	return Config{
		Commander: Commander{
			Dirs:        []string{filepath.Join(base, "modules")},
			History:     filepath.Join(base, "history"),
			DeleteDelay: Duration(500 * time.Millisecond),
			Watch:       true,
		},
		Logging: Logging{Level: "info"},
	}
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "commander")
	}
	return filepath.Join(os.TempDir(), "commander")
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error. The format is chosen by extension:
// ".yaml" and ".yml" are YAML, anything else is TOML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Decode(&cfg, path, data); err != nil {
				return cfg, err
			}
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.expand()
	return cfg, nil
}

// Decode parses data into cfg using the format implied by name.
func Decode(cfg *Config, name string, data []byte) error {
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	}
	if err != nil {
		return &ParseError{Path: name, Message: err.Error(), Err: err}
	}
	return nil
}

func (c *Config) expand() {
	for i, dir := range c.Commander.Dirs {
		c.Commander.Dirs[i] = expandHome(dir)
	}
	c.Commander.History = expandHome(c.Commander.History)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
