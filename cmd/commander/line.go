package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
)

// lineUI runs the command bar as a prompt on a plain terminal.
type lineUI struct {
	*app
	out     io.Writer
	printed int
	status  string
}

func runLine(a *app) error {
	ui := &lineUI{app: a, out: os.Stdout}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetTabCompletionStyle(liner.TabCircular)
	ln.SetWordCompleter(ui.complete)
	for _, line := range a.hist.Lines() {
		if line != "" {
			ln.AppendHistory(line)
		}
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	for {
		a.drain()
		ui.flush()
		a.entry.Reopen()

		text, err := ln.Prompt(ui.prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			a.sess.KeyPress(escapeKey)
			ui.printed = 0
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(ui.out)
			return nil
		case err != nil:
			return fmt.Errorf("reading command: %w", err)
		}

		if strings.TrimSpace(text) != "" {
			ln.AppendHistory(text)
		}
		ui.printed = 0
		a.entry.SetText(text)
		a.sess.KeyPress(enterKey)
		if quit := ui.wait(interrupts); quit {
			return nil
		}
		a.syncOpened()
	}
}

// wait pumps posts while a command is suspended, printing its output as
// it arrives. An interrupt resumes the command so it can stop; a second
// terminate signal reports quit.
func (ui *lineUI) wait(interrupts <-chan os.Signal) (quit bool) {
	for ui.sess.Suspended() {
		ui.flush()
		select {
		case fn := <-ui.entry.Posts():
			fn()
		case sig := <-interrupts:
			if sig == syscall.SIGTERM {
				return true
			}
			ui.sess.KeyPress(escapeKey)
		}
	}
	ui.flush()
	return false
}

// flush prints info lines not printed yet and a changed status.
func (ui *lineUI) flush() {
	info := ui.entry.Info()
	if len(info) < ui.printed {
		ui.printed = 0
	}
	for _, line := range info[ui.printed:] {
		fmt.Fprintln(ui.out, line)
	}
	ui.printed = len(info)

	if st := ui.entry.Status(); st != ui.status {
		ui.status = st
		if st != "" {
			fmt.Fprintf(ui.out, "[%s]\n", st)
		}
	}
}

func (ui *lineUI) prompt() string {
	if p := trimPrompt(ui.sess.Prompt()); p != "" {
		return p + ": "
	}
	return ": "
}

// complete runs the session's completion on line and hands the result to
// liner. Candidate lists are printed with the next flush.
func (ui *lineUI) complete(line string, pos int) (string, []string, string) {
	ui.entry.SetText(line)
	ui.entry.SetCursor(pos)
	ui.sess.Complete()

	text, cur := ui.entry.Text(), ui.entry.Cursor()
	cur = min(max(cur, 0), len(text))
	if text == line {
		return line[:pos], nil, line[pos:]
	}
	return text[:cur], []string{""}, text[cur:]
}
