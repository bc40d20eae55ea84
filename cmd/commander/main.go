// Package main is the entry point for the commander command bar.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	UI         string
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	a, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer a.Shutdown()

	switch opts.UI {
	case "term":
		err = runTerm(a)
	default:
		err = runLine(a)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", defaultConfigPath(), "Path to configuration file (TOML or YAML)")
	flag.StringVar(&opts.ConfigPath, "c", defaultConfigPath(), "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file instead of stderr")
	flag.StringVar(&opts.UI, "ui", "line", "Frontend: line or term")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Commander - scriptable command bar\n\n")
		fmt.Fprintf(os.Stderr, "Usage: commander [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  commander notes.txt           Run commands against notes.txt\n")
		fmt.Fprintf(os.Stderr, "  commander -ui term main.go    Full screen with accelerators\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Commander %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}
	switch opts.UI {
	case "line", "term":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid frontend %q (must be line or term)\n", opts.UI)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			opts.File = abs
		} else {
			opts.File = args[0]
		}
	}
	return opts
}

// defaultConfigPath prefers commander.toml and falls back to an existing
// commander.yaml in the user configuration directory.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	base := filepath.Join(dir, "commander")
	for _, name := range []string{"commander.yaml", "commander.yml"} {
		if _, err := os.Stat(filepath.Join(base, name)); err == nil {
			return filepath.Join(base, name)
		}
	}
	return filepath.Join(base, "commander.toml")
}

func trimPrompt(p string) string {
	return strings.TrimRight(p, ": ")
}
