package completion

import (
	"github.com/sahilm/fuzzy"

	"github.com/dshills/commander/internal/command"
)

// Suggest returns up to limit invocable command paths ("grep.hide") that
// fuzzily match name, best first.
func Suggest(src Source, name string, limit int) []string {
	if name == "" {
		return nil
	}

	var all []string
	var walk func(path string, n command.Node)
	walk = func(path string, n command.Node) {
		if n.Callable() != nil {
			all = append(all, path)
		}
		if m, ok := n.(*command.Module); ok {
			for _, child := range m.Children() {
				walk(path+"."+child.Name(), child)
			}
		}
	}
	for _, top := range src.Modules() {
		walk(top.Name(), top)
	}
	if len(all) == 0 {
		return nil
	}

	matches := fuzzy.Find(name, all)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}
