package key

import "strings"

// Modifier is a set of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModCtrl
	// ModAlt is Mod1 in GTK terms.
	ModAlt
	// ModMeta is Super or Cmd.
	ModMeta
)

// ModMask holds every modifier that participates in accelerator matching.
const ModMask = ModShift | ModCtrl | ModAlt | ModMeta

// modifierTags is the canonical tag order used by Tags.
var modifierTags = []struct {
	mod Modifier
	tag string
}{
	{ModCtrl, "<Control>"},
	{ModAlt, "<Alt>"},
	{ModShift, "<Shift>"},
	{ModMeta, "<Meta>"},
}

var modifierByName = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"primary": ModCtrl,
	"c":       ModCtrl,
	"alt":     ModAlt,
	"mod1":    ModAlt,
	"a":       ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"s":       ModShift,
	"meta":    ModMeta,
	"super":   ModMeta,
	"m":       ModMeta,
	"cmd":     ModMeta,
	"win":     ModMeta,
	"d":       ModMeta,
}

func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// IsEmpty reports whether no accelerator modifier is held.
func (m Modifier) IsEmpty() bool {
	return m&ModMask == ModNone
}

// Tags returns the GTK-style modifier prefix, e.g. "<Control><Shift>".
func (m Modifier) Tags() string {
	var sb strings.Builder
	for _, t := range modifierTags {
		if m.Has(t.mod) {
			sb.WriteString(t.tag)
		}
	}
	return sb.String()
}

// ModifierFromName returns the modifier called name, ignoring case, or
// ModNone. GTK ("Primary", "Mod1"), desktop ("Super", "Cmd") and Vim
// ("C", "A", "S", "M", "D") names are accepted.
func ModifierFromName(name string) Modifier {
	return modifierByName[strings.ToLower(strings.TrimSpace(name))]
}
