package command

import "github.com/dshills/commander/internal/accel"

// Spec declares one invocable exported by a module source.
type Spec struct {
	Doc          string
	Call         Callable
	Accelerator  *accel.Accelerator
	Autocomplete map[string]Completer
}

// Export is one exported name of a unit: either a command (Spec) or a
// nested module (Module).
type Export struct {
	Name   string
	Spec   *Spec
	Module Unit
}

// Unit is a loaded module source. Loading a unit must not leave state
// behind in any shared namespace: everything it acquires is released by
// Close, so a reload starts from nothing.
type Unit interface {
	// Default returns the module's own invocable, or nil.
	Default() *Spec
	// Roots names exports that are promoted to the parent's scope instead
	// of appearing inside the module.
	Roots() []string
	// Exports lists the exported names. Names starting with "_" are
	// private and skipped.
	Exports() []Export
	// Close releases the unit's resources.
	Close() error
}

// StaticUnit is a Unit assembled in Go.
type StaticUnit struct {
	DefaultSpec *Spec
	RootNames   []string
	ExportList  []Export
	OnClose     func() error
}

// NewStaticUnit creates an empty unit.
func NewStaticUnit() *StaticUnit {
	return &StaticUnit{}
}

// SetDefault sets the default invocable and returns u.
func (u *StaticUnit) SetDefault(spec *Spec) *StaticUnit {
	u.DefaultSpec = spec
	return u
}

// Add exports a command and returns u.
func (u *StaticUnit) Add(name string, spec *Spec) *StaticUnit {
	u.ExportList = append(u.ExportList, Export{Name: name, Spec: spec})
	return u
}

// AddRoot exports a command that is promoted to the parent scope.
func (u *StaticUnit) AddRoot(name string, spec *Spec) *StaticUnit {
	u.RootNames = append(u.RootNames, name)
	return u.Add(name, spec)
}

// AddModule exports a nested module and returns u.
func (u *StaticUnit) AddModule(name string, sub Unit) *StaticUnit {
	u.ExportList = append(u.ExportList, Export{Name: name, Module: sub})
	return u
}

func (u *StaticUnit) Default() *Spec    { return u.DefaultSpec }
func (u *StaticUnit) Roots() []string   { return u.RootNames }
func (u *StaticUnit) Exports() []Export { return u.ExportList }

func (u *StaticUnit) Close() error {
	if u.OnClose != nil {
		return u.OnClose()
	}
	return nil
}
