package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/commander/internal/command"
)

// Filename completes a path. Relative paths are resolved against the
// directory of the current document, or the home directory for an untitled
// one. Hidden entries are offered only when the typed name starts with ".".
//
// A single match completes fully, followed by "/" for a directory and " "
// otherwise. Several matches complete to their common prefix and list the
// entries in natural order, directories marked with a trailing "/".
func Filename(req command.CompletionRequest) (*command.Completion, bool) {
	word := req.Word()
	prefix, _ := splitPath(word)

	partial := expandHome(word)
	if !filepath.IsAbs(partial) {
		partial = filepath.Join(baseDir(req.Context), partial)
		if word == "" || strings.HasSuffix(word, "/") {
			partial += "/"
		}
	}
	dir, base := splitPath(partial)
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}

	type match struct {
		name  string
		isDir bool
	}
	var matches []match
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if base == "" && strings.HasPrefix(name, ".") {
			continue
		}
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(dir, name)); err == nil {
				isDir = fi.IsDir()
			}
		}
		matches = append(matches, match{name: name, isDir: isDir})
	}
	if len(matches) == 0 {
		return nil, false
	}

	sort.Slice(matches, func(i, j int) bool {
		return NaturalLess(matches[i].name, matches[j].name)
	})

	typed := make([]string, len(matches))
	for i, m := range matches {
		typed[i] = joinTyped(prefix, m.name)
	}

	if len(matches) == 1 {
		after := " "
		if matches[0].isDir {
			after = "/"
		}
		return &command.Completion{Items: typed, Completed: typed[0], After: after}, true
	}

	items := make([]string, len(matches))
	for i, m := range matches {
		items[i] = m.name
		if m.isDir {
			items[i] += "/"
		}
	}
	return &command.Completion{Items: items, Completed: CommonPrefix(typed, "")}, true
}

func baseDir(ctx *command.Context) string {
	if doc := ctx.Document(); doc != nil && doc.Path() != "" {
		return filepath.Dir(doc.Path())
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// splitPath splits at the last "/" without cleaning, so "dir/" yields
// ("dir", "") and "/x" yields ("/", "x").
func splitPath(p string) (dir, base string) {
	i := strings.LastIndex(p, "/")
	switch {
	case i < 0:
		return "", p
	case i == 0:
		return "/", p[1:]
	default:
		return p[:i], p[i+1:]
	}
}

func joinTyped(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case strings.HasSuffix(prefix, "/"):
		return prefix + name
	default:
		return prefix + "/" + name
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return home + strings.TrimPrefix(p, "~")
}

// NaturalLess orders strings with digit runs compared by numeric value, so
// "file2" sorts before "file10".
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, ra := nextChunk(a)
		cb, rb := nextChunk(b)

		if isDigit(ca[0]) && isDigit(cb[0]) {
			na, nb := strings.TrimLeft(ca, "0"), strings.TrimLeft(cb, "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
		} else if ca != cb {
			return ca < cb
		}
		a, b = ra, rb
	}
	return len(a) < len(b)
}

func nextChunk(s string) (chunk, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
