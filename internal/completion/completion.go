// Package completion resolves partial, hierarchical command names and
// completes command arguments.
//
// A query such as "grep.zo-i" is split on "." into levels and each level on
// "-" into fragments. A candidate matches a level when each of its
// fragments starts with the corresponding query fragment and the query has
// no more fragments than the candidate.
package completion

import (
	"strings"

	"github.com/dshills/commander/internal/command"
)

// Source provides the sorted top-level nodes.
type Source interface {
	Modules() []command.Node
}

// Command resolves words[idx] against src. It returns the matching nodes and
// the longest unambiguous completion of the query, or false when nothing
// matches.
func Command(src Source, words []string, idx int) (*command.Completion, bool) {
	if idx < 0 || idx >= len(words) {
		return nil, false
	}
	query := strings.TrimSpace(words[idx])
	levels := strings.Split(query, ".")

	var cmds []command.Node
	for i, level := range levels {
		if i == 0 {
			cmds = src.Modules()
		} else {
			cmds = expand(cmds)
		}
		if len(cmds) == 0 {
			return nil, false
		}

		cmds = filter(cmds, strings.Split(level, "-"))
		if len(cmds) == 0 {
			return nil, false
		}
	}

	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name()
	}

	var completed string
	if len(levels) == 1 {
		completed = CommonPrefix(names, "")
	} else {
		completed = strings.Join(levels[:len(levels)-1], ".") + "." + CommonPrefix(names, "-")
	}

	return &command.Completion{Items: names, Completed: completed, Nodes: cmds}, true
}

// SingleCommand returns the first invocable node matching words[idx], or nil.
func SingleCommand(src Source, words []string, idx int) command.Node {
	res, ok := Command(src, words, idx)
	if !ok {
		return nil
	}
	for _, n := range res.Nodes {
		if n.Callable() != nil {
			return n
		}
	}
	return nil
}

// expand replaces every module in cmds by its children. Other nodes pass
// through unchanged. The result is sorted.
func expand(cmds []command.Node) []command.Node {
	var out []command.Node
	for _, c := range cmds {
		m, ok := c.(*command.Module)
		if !ok {
			out = command.Insert(out, c)
			continue
		}
		for _, child := range m.Children() {
			out = command.Insert(out, child)
		}
	}
	return out
}

// filter narrows the sorted cmds to those matching the query fragments.
// Candidates must start with the first fragment, so the scan begins at its
// binary-search position and stops at the first name that does not.
func filter(cmds []command.Node, subs []string) []command.Node {
	var out []command.Node
	for i := command.Search(cmds, subs[0]); i < len(cmds); i++ {
		name := cmds[i].Name()
		if !strings.HasPrefix(name, subs[0]) {
			break
		}
		if matchFragments(name, subs) {
			out = append(out, cmds[i])
		}
	}
	return out
}

func matchFragments(name string, subs []string) bool {
	parts := strings.Split(name, "-")
	if len(subs) > len(parts) {
		return false
	}
	for i, sub := range subs {
		if !strings.HasPrefix(parts[i], sub) {
			return false
		}
	}
	return true
}

// MatchName reports whether query names cmd by fragment prefixes, e.g.
// "zo-i" matches "zoom-in".
func MatchName(query, name string) bool {
	return matchFragments(name, strings.Split(query, "-"))
}

// CommonPrefix returns the longest prefix shared by items. With a separator
// the prefix is computed per segment: "some-thing" and "sho-tar" give "s-t".
func CommonPrefix(items []string, sep string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}

	prefix := items[0]
	for _, item := range items[1:] {
		if sep == "" {
			prefix = commonPart(prefix, item)
			continue
		}
		a, b := strings.Split(prefix, sep), strings.Split(item, sep)
		n := min(len(a), len(b))
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			parts[i] = commonPart(a[i], b[i])
		}
		prefix = strings.Join(parts, sep)
	}
	return prefix
}

func commonPart(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// Words returns a completer offering the given words.
func Words(list ...string) command.Completer {
	return func(req command.CompletionRequest) (*command.Completion, bool) {
		word := req.Word()
		var items []string
		for _, w := range list {
			if strings.HasPrefix(w, word) {
				items = append(items, w)
			}
		}
		if len(items) == 0 {
			return nil, false
		}
		return &command.Completion{Items: items, Completed: CommonPrefix(items, "")}, true
	}
}

// CommandCompleter returns a completer for arguments that name a command.
func CommandCompleter(src Source) command.Completer {
	return func(req command.CompletionRequest) (*command.Completion, bool) {
		return Command(src, req.Words, req.Index)
	}
}
