// Package host defines the editor surfaces the command engine talks to.
// The editor implements these; the engine never reaches past them.
package host

// Entry is the command bar: one input line, a prompt label and an info
// panel for output.
type Entry interface {
	// Text returns the current input line.
	Text() string
	// SetText replaces the input line and moves the cursor to its end.
	SetText(text string)
	// Cursor returns the cursor offset in bytes.
	Cursor() int
	// SetCursor moves the cursor; -1 means end of line.
	SetCursor(pos int)
	// SetPrompt sets the label shown before the input line.
	SetPrompt(prompt string)
	// SetSensitive enables or disables user input.
	SetSensitive(sensitive bool)
	// SetEditable controls whether typing changes the line.
	SetEditable(editable bool)

	// InfoShow appends lines to the info panel.
	InfoShow(text string)
	// InfoStatus sets the status line of the info panel; "" clears it.
	InfoStatus(text string)
	// InfoClear empties and hides the info panel.
	InfoClear()
	// InfoEmpty reports whether the info panel has no content.
	InfoEmpty() bool

	// Post schedules fn on the UI loop. Background work (process output,
	// file events) must use Post before touching the entry or the engine.
	Post(fn func())

	// Close dismisses the command bar.
	Close()

	// View returns the text view the bar is attached to.
	View() View
}

// View is a text surface showing one document.
type View interface {
	Document() Document
	Window() Window
	SetEditable(editable bool)
}

// Document is an open text buffer.
type Document interface {
	// Path returns the file path, or "" for an untitled document.
	Path() string
	Text() string
	SetText(text string)
	// Selection returns the selected text and whether there is a selection.
	Selection() (string, bool)
	// ReplaceSelection replaces the selection, or inserts at the cursor
	// when nothing is selected.
	ReplaceSelection(text string)
	LineCount() int
	// CursorLine returns the zero-based cursor line.
	CursorLine() int
	// LineLength returns the number of characters on a zero-based line.
	LineLength(line int) int
	// Goto places the cursor at a zero-based line and column.
	Goto(line, column int)
}

// Window is the top-level editor window.
type Window interface {
	// Open opens files in new tabs.
	Open(paths ...string) error
}
