package key

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

var tcellKeys = map[tcell.Key]Key{
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBacktab:    KeyTab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyInsert:     KeyInsert,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyF1:         KeyF1,
	tcell.KeyF2:         KeyF2,
	tcell.KeyF3:         KeyF3,
	tcell.KeyF4:         KeyF4,
	tcell.KeyF5:         KeyF5,
	tcell.KeyF6:         KeyF6,
	tcell.KeyF7:         KeyF7,
	tcell.KeyF8:         KeyF8,
	tcell.KeyF9:         KeyF9,
	tcell.KeyF10:        KeyF10,
	tcell.KeyF11:        KeyF11,
	tcell.KeyF12:        KeyF12,
	tcell.KeyPause:      KeyPause,
	tcell.KeyPrint:      KeyPrintScreen,
}

// FromTcell converts a terminal key event into a chord.
// Control letters reported by the terminal as KeyCtrlA..KeyCtrlZ become
// "<Control>a".."<Control>z".
func FromTcell(ev *tcell.EventKey) Event {
	mods := fromTcellMod(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		return NewRuneEvent(ev.Rune(), mods).Canonical()
	case k == tcell.KeyBacktab:
		return NewSpecialEvent(KeyTab, mods.With(ModShift))
	case k == tcell.KeyCtrlSpace:
		return NewSpecialEvent(KeySpace, mods.With(ModCtrl))
	}

	if mapped, ok := tcellKeys[k]; ok {
		return NewSpecialEvent(mapped, mods)
	}

	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		r := 'a' + rune(k-tcell.KeyCtrlA)
		return NewRuneEvent(r, mods.With(ModCtrl))
	}

	return Event{Key: KeyNone, Modifiers: mods, Timestamp: time.Now()}
}

func fromTcellMod(m tcell.ModMask) Modifier {
	var result Modifier
	if m&tcell.ModShift != 0 {
		result |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= ModMeta
	}
	return result
}
