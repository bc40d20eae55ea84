package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Event represents a single key press event (one chord).
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsModified returns true if Ctrl, Alt or Meta is held.
// Shift alone does not count: it is part of the character for runes and
// does not start an accelerator chord on its own.
func (e Event) IsModified() bool {
	return e.Modifiers.IsModified()
}

// Canonical returns the event with letter case folded into the Shift
// modifier and the timestamp dropped. A Control+K key press from the
// terminal and the chord "<Control><Shift>k" compare equal.
func (e Event) Canonical() Event {
	c := Event{Key: e.Key, Rune: e.Rune, Modifiers: e.Modifiers & ModMask}
	if c.Key == KeyRune {
		if c.Rune == ' ' {
			c.Key, c.Rune = KeySpace, 0
		} else if unicode.IsUpper(c.Rune) {
			c.Rune = unicode.ToLower(c.Rune)
			c.Modifiers = c.Modifiers.With(ModShift)
		}
	}
	return c
}

// Name returns the canonical GTK-style name of the chord.
// Examples: "<Control>k", "<Control><Shift>F4", "Escape", "a"
func (e Event) Name() string {
	c := e.Canonical()
	var keyName string
	if c.Key == KeyRune {
		keyName = string(c.Rune)
	} else {
		keyName = c.Key.String()
	}
	return c.Modifiers.Tags() + keyName
}

// String returns a short human-readable label like "C-k" or "Enter".
func (e Event) String() string {
	var parts []string
	for _, p := range []struct {
		mod   Modifier
		label string
	}{{ModCtrl, "C"}, {ModAlt, "A"}, {ModMeta, "M"}} {
		if e.Modifiers.Has(p.mod) {
			parts = append(parts, p.label)
		}
	}
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		parts = append(parts, "Space")
	case e.Key == KeyRune:
		parts = append(parts, string(e.Rune))
	default:
		parts = append(parts, e.Key.String())
	}
	return strings.Join(parts, "-")
}

// Equals returns true if two events represent the same chord.
// Timestamps and letter case versus Shift are not distinguished.
func (e Event) Equals(other Event) bool {
	a, b := e.Canonical(), other.Canonical()
	return a.Key == b.Key && a.Rune == b.Rune && a.Modifiers == b.Modifiers
}

// Matches checks if this event matches a chord specification string.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Equals(parsed)
}

// IsEscape returns true if this is the Escape key (with no modifiers).
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers.IsEmpty()
}

// IsEnter returns true if this is Enter, with or without modifiers.
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter
}

// IsTab returns true if this is Tab (Shift allowed, for ISO_Left_Tab).
func (e Event) IsTab() bool {
	return e.Key == KeyTab && !e.IsModified()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %q}",
		e.Key.String(), e.Rune, e.Modifiers.Tags())
}
