package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/commander/internal/input/key"
)

var (
	styleText   = tcell.StyleDefault
	styleCursor = tcell.StyleDefault.Reverse(true)
	styleInfo   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBar    = tcell.StyleDefault.Bold(true)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// termUI shows the document full screen with the command bar and its info
// panel at the bottom. ':' opens the bar; accelerators work with the bar
// closed; Ctrl+Q quits.
type termUI struct {
	*app
	screen tcell.Screen
}

func runTerm(a *app) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	ui := &termUI{app: a, screen: screen}
	a.entry.Close()

	events := make(chan tcell.Event, 16)
	go func() {
		defer close(events)
		// PollEvent returns nil once the screen is finalized.
		for ev := screen.PollEvent(); ev != nil; ev = screen.PollEvent() {
			events <- ev
		}
	}()

	for {
		ui.draw()
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlQ {
					return nil
				}
				ui.handleKey(ev)
			}
		case fn := <-a.entry.Posts():
			fn()
		}
		a.syncOpened()
	}
}

func (ui *termUI) handleKey(ev *tcell.EventKey) {
	if ui.entry.Closed() {
		if ev.Key() == tcell.KeyRune && ev.Rune() == ':' && ev.Modifiers() == 0 {
			ui.entry.Reopen()
			return
		}
		ui.sess.KeyPress(key.FromTcell(ev))
		return
	}
	if !ui.entry.Sensitive() && ev.Key() != tcell.KeyEscape {
		return
	}
	if ui.sess.KeyPress(key.FromTcell(ev)) {
		return
	}
	ui.edit(ev)
}

// edit applies line editing keys the session left unconsumed.
func (ui *termUI) edit(ev *tcell.EventKey) {
	text, cur := ui.entry.Text(), ui.entry.Cursor()
	switch ev.Key() {
	case tcell.KeyRune:
		r := string(ev.Rune())
		ui.entry.SetText(text[:cur] + r + text[cur:])
		ui.entry.SetCursor(cur + len(r))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if cur == 0 {
			return
		}
		_, n := utf8.DecodeLastRuneInString(text[:cur])
		ui.entry.SetText(text[:cur-n] + text[cur:])
		ui.entry.SetCursor(cur - n)
	case tcell.KeyDelete:
		if cur == len(text) {
			return
		}
		_, n := utf8.DecodeRuneInString(text[cur:])
		ui.entry.SetText(text[:cur] + text[cur+n:])
		ui.entry.SetCursor(cur)
	case tcell.KeyLeft:
		if cur > 0 {
			_, n := utf8.DecodeLastRuneInString(text[:cur])
			ui.entry.SetCursor(cur - n)
		}
	case tcell.KeyRight:
		if cur < len(text) {
			_, n := utf8.DecodeRuneInString(text[cur:])
			ui.entry.SetCursor(cur + n)
		}
	case tcell.KeyHome, tcell.KeyCtrlA:
		ui.entry.SetCursor(0)
	case tcell.KeyEnd, tcell.KeyCtrlE:
		ui.entry.SetCursor(-1)
	}
}

func (ui *termUI) draw() {
	s := ui.screen
	s.Clear()
	width, height := s.Size()

	var bottom []string
	var styles []tcell.Style
	if !ui.entry.Closed() {
		for _, line := range ui.entry.Info() {
			bottom = append(bottom, line)
			styles = append(styles, styleInfo)
		}
		if st := ui.entry.Status(); st != "" {
			bottom = append(bottom, st)
			styles = append(styles, styleStatus)
		}
		bottom = append(bottom, ui.barText())
		styles = append(styles, styleBar)
	}
	if len(bottom) > height {
		bottom, styles = bottom[len(bottom)-height:], styles[len(styles)-height:]
	}

	docRows := height - len(bottom)
	lines := strings.Split(ui.doc.Text(), "\n")
	cursorLine := ui.doc.CursorLine()
	first := max(0, cursorLine-docRows+1)
	for row := 0; row < docRows && first+row < len(lines); row++ {
		style := styleText
		if first+row == cursorLine && ui.entry.Closed() {
			style = styleCursor
		}
		putLine(s, row, width, lines[first+row], style)
	}

	for i, line := range bottom {
		putLine(s, docRows+i, width, line, styles[i])
	}
	if !ui.entry.Closed() && height > 0 {
		prefix := ui.barText()[:len(ui.barText())-len(ui.entry.Text())]
		col := utf8.RuneCountInString(prefix) + utf8.RuneCountInString(ui.entry.Text()[:ui.entry.Cursor()])
		s.ShowCursor(min(col, width-1), height-1)
	} else {
		s.HideCursor()
	}
	s.Show()
}

func (ui *termUI) barText() string {
	prompt := ":"
	if p := trimPrompt(ui.sess.Prompt()); p != "" {
		prompt = p + ":"
	}
	return prompt + " " + ui.entry.Text()
}

func putLine(s tcell.Screen, row, width int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= width {
			return
		}
		if r == '\t' {
			r = ' '
		}
		s.SetContent(col, row, r, nil, style)
		col++
	}
}
