package lua

import (
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/command"
)

// Special keys of a module table.
const (
	rootKey    = "__root"
	defaultKey = "__default"
)

// unit is a module table read into command specs. Only the top-level unit
// owns the state.
type unit struct {
	def     *command.Spec
	roots   []string
	exports []command.Export
	close   func() error
}

func (u *unit) Default() *command.Spec     { return u.def }
func (u *unit) Roots() []string            { return u.roots }
func (u *unit) Exports() []command.Export { return u.exports }

func (u *unit) Close() error {
	if u.close != nil {
		return u.close()
	}
	return nil
}

// buildUnit reads a module table. Functions and commander.command values
// become commands, commander.module values nested modules; anything else
// is ignored.
func (s *State) buildUnit(t *lua.LTable) *unit {
	u := &unit{}

	u.roots = StringList(t.RawGetString(rootKey))
	isRoot := make(map[string]bool, len(u.roots))
	for _, r := range u.roots {
		isRoot[r] = true
	}
	if def := t.RawGetString(defaultKey); def != lua.LNil {
		u.def = s.spec(def)
	}

	var names []string
	t.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			names = append(names, string(ks))
		}
	})
	sort.Strings(names)

	for _, name := range names {
		if strings.HasPrefix(name, "_") && !isRoot[name] {
			continue
		}
		v := t.RawGetString(name)
		if ud, ok := v.(*lua.LUserData); ok {
			if m, ok := ud.Value.(*luaModule); ok {
				u.exports = append(u.exports, command.Export{Name: name, Module: s.buildUnit(m.table)})
				continue
			}
		}
		if spec := s.spec(v); spec != nil {
			u.exports = append(u.exports, command.Export{Name: name, Spec: spec})
		}
	}
	return u
}
