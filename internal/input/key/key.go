package key

import (
	"fmt"
	"strings"
)

// Key identifies a non-character key. Character keys are KeyRune with the
// character in Event.Rune.
type Key uint16

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeySpace
	KeyPause
	KeyPrintScreen
	KeyRune
)

// keyNames lists the accepted names per key. The first name is canonical
// and is what Event.Name produces; the rest are GTK keysym and terminal
// aliases accepted by Parse.
var keyNames = map[Key][]string{
	KeyNone:        {"None"},
	KeyEscape:      {"Escape", "Esc"},
	KeyEnter:       {"Enter", "Return", "KP_Enter", "CR"},
	KeyTab:         {"Tab", "ISO_Left_Tab"},
	KeyBackspace:   {"Backspace", "BS"},
	KeyDelete:      {"Delete", "Del"},
	KeyInsert:      {"Insert", "Ins"},
	KeyHome:        {"Home"},
	KeyEnd:         {"End"},
	KeyPageUp:      {"PageUp", "Page_Up", "Prior", "PgUp"},
	KeyPageDown:    {"PageDown", "Page_Down", "Next", "PgDn"},
	KeyUp:          {"Up"},
	KeyDown:        {"Down"},
	KeyLeft:        {"Left"},
	KeyRight:       {"Right"},
	KeySpace:       {"Space"},
	KeyPause:       {"Pause"},
	KeyPrintScreen: {"PrintScreen", "Print"},
	KeyRune:        {"Rune"},
}

var keyByName = func() map[string]Key {
	m := make(map[string]Key)
	for k, names := range keyNames {
		if k == KeyRune {
			continue
		}
		for _, n := range names {
			m[strings.ToLower(n)] = k
		}
	}
	for k := KeyF1; k <= KeyF12; k++ {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

func (k Key) String() string {
	if k >= KeyF1 && k <= KeyF12 {
		return fmt.Sprintf("F%d", k-KeyF1+1)
	}
	if names, ok := keyNames[k]; ok {
		return names[0]
	}
	return fmt.Sprintf("Key(%d)", k)
}

// KeyFromName returns the key called name, ignoring case and surrounding
// space, or KeyNone.
func KeyFromName(name string) Key {
	return keyByName[strings.ToLower(strings.TrimSpace(name))]
}
