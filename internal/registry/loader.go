package registry

import "github.com/dshills/commander/internal/command"

// Loader turns module sources on disk into units.
type Loader interface {
	// Match reports whether path is a module source this loader handles
	// and returns the module name. isDir is true for directory modules.
	Match(path string) (name string, isDir bool, ok bool)
	// Load loads the source at path. Every call returns a fresh unit.
	Load(path string, isDir bool) (command.Unit, error)
}
