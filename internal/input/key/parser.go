package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a chord specification string into an Event.
//
// Supported formats:
//   - GTK-style: "<Control>k", "<Control><Shift>F4", "<Primary>Return"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//   - Single character or key name: "a", "A", "Enter", "F5"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") {
		if mods, rest, ok := parseTags(spec); ok {
			if rest == "" {
				return Event{}, fmt.Errorf("%w: %q has no key", ErrInvalidSpec, spec)
			}
			return parseKeyWithModifiers(rest, mods)
		}
		if strings.HasSuffix(spec, ">") && len(spec) > 2 {
			return parseVimStyle(spec[1 : len(spec)-1])
		}
	}

	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseModifierStyle(spec)
	}

	return parseSingle(spec)
}

// parseTags consumes leading GTK modifier tags such as "<Control><Alt>".
// ok is false when the first tag is not a modifier name.
func parseTags(spec string) (Modifier, string, bool) {
	var mods Modifier
	rest := spec
	consumed := false

	for strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			break
		}
		tag := rest[1:end]
		if strings.Contains(tag, "-") {
			break
		}
		mod := ModifierFromName(tag)
		if mod == ModNone {
			break
		}
		mods = mods.With(mod)
		rest = rest[end+1:]
		consumed = true
	}

	return mods, strings.TrimSpace(rest), consumed
}

// parseVimStyle parses Vim-style notation like "C-s", "A-F4", "CR", "Esc"
func parseVimStyle(inner string) (Event, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Event{}, ErrInvalidSpec
	}

	parts := strings.Split(inner, "-")
	keyPart := parts[len(parts)-1]

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseModifierStyle parses "Ctrl+S" style notation
func parseModifierStyle(spec string) (Event, error) {
	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]
	if keyPart == "" {
		// "Ctrl++" binds the plus key itself.
		keyPart = "+"
		parts = parts[:len(parts)-1]
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		if strings.TrimSpace(p) == "" {
			continue
		}
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseSingle parses a single character or key name
func parseSingle(spec string) (Event, error) {
	if key := KeyFromName(spec); key != KeyNone {
		return NewSpecialEvent(key, ModNone), nil
	}

	runes := []rune(spec)
	if len(runes) == 1 {
		return NewRuneEvent(runes[0], ModNone).Canonical(), nil
	}

	return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
}

// parseKeyWithModifiers parses a key part with already-known modifiers
func parseKeyWithModifiers(keyPart string, mods Modifier) (Event, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	switch strings.ToLower(keyPart) {
	case "lt", "less":
		return NewRuneEvent('<', mods), nil
	case "gt", "greater":
		return NewRuneEvent('>', mods), nil
	case "bar":
		return NewRuneEvent('|', mods), nil
	case "bslash", "backslash":
		return NewRuneEvent('\\', mods), nil
	case "comma":
		return NewRuneEvent(',', mods), nil
	}

	if key := KeyFromName(keyPart); key != KeyNone {
		return NewSpecialEvent(key, mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		r := runes[0]
		// Modified letters are case-insensitive; Shift must be explicit.
		if mods.IsModified() {
			r = unicode.ToLower(r)
		}
		return NewRuneEvent(r, mods).Canonical(), nil
	}

	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// IsModified reports whether m holds Ctrl, Alt or Meta.
func (m Modifier) IsModified() bool {
	return m&(ModCtrl|ModAlt|ModMeta) != 0
}

// MustParse parses a chord specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}

// Normalize parses a chord specification and returns its canonical name.
func Normalize(spec string) (string, error) {
	event, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return event.Name(), nil
}
