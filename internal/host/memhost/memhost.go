// Package memhost is an in-memory editor host: a document held as a string,
// a command-bar entry that records what it was asked to show, and a post
// queue standing in for the UI loop.
package memhost

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dshills/commander/internal/host"
)

// Document is a text buffer with a cursor and an optional selection.
// Offsets are byte offsets.
type Document struct {
	mu     sync.Mutex
	path   string
	text   string
	cursor int
	selEnd int // selection is [cursor, selEnd) when selEnd > cursor
}

// NewDocument creates a document; path "" means untitled.
func NewDocument(path, text string) *Document {
	return &Document{path: path, text: text}
}

func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// SetPath renames the document.
func (d *Document) SetPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path = path
}

func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *Document) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.cursor, d.selEnd = 0, 0
}

// Select selects [start, end).
func (d *Document) Select(start, end int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = clamp(start, 0, len(d.text))
	d.selEnd = clamp(end, d.cursor, len(d.text))
}

func (d *Document) Selection() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selEnd <= d.cursor {
		return "", false
	}
	return d.text[d.cursor:d.selEnd], true
}

func (d *Document) ReplaceSelection(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	end := max(d.selEnd, d.cursor)
	d.text = d.text[:d.cursor] + text + d.text[end:]
	d.cursor += len(text)
	d.selEnd = d.cursor
}

func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Count(d.text, "\n") + 1
}

func (d *Document) CursorLine() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Count(d.text[:d.cursor], "\n")
}

// CursorColumn returns the zero-based character column of the cursor.
func (d *Document) CursorColumn() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := strings.LastIndexByte(d.text[:d.cursor], '\n') + 1
	return utf8.RuneCountInString(d.text[start:d.cursor])
}

func (d *Document) LineLength(line int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines := strings.Split(d.text, "\n")
	if line < 0 || line >= len(lines) {
		return 0
	}
	return utf8.RuneCountInString(lines[line])
}

func (d *Document) Goto(line, column int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines := strings.Split(d.text, "\n")
	line = clamp(line, 0, len(lines)-1)

	off := 0
	for _, l := range lines[:line] {
		off += len(l) + 1
	}

	col := len(lines[line])
	n := 0
	for i := range lines[line] {
		if n == column {
			col = i
			break
		}
		n++
	}
	d.cursor = off + col
	d.selEnd = d.cursor
}

// Cursor returns the cursor byte offset.
func (d *Document) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Window records opened paths.
type Window struct {
	mu     sync.Mutex
	opened []string
}

// NewWindow creates a window.
func NewWindow() *Window {
	return &Window{}
}

func (w *Window) Open(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened = append(w.opened, paths...)
	return nil
}

// Opened returns every path opened so far.
func (w *Window) Opened() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.opened...)
}

// View shows a Document in a Window.
type View struct {
	mu       sync.Mutex
	doc      *Document
	win      *Window
	editable bool
}

// NewView creates an editable view.
func NewView(doc *Document, win *Window) *View {
	return &View{doc: doc, win: win, editable: true}
}

func (v *View) Document() host.Document { return v.doc }
func (v *View) Window() host.Window     { return v.win }

// Doc returns the concrete document.
func (v *View) Doc() *Document { return v.doc }

func (v *View) SetEditable(editable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editable = editable
}

// Editable reports the last SetEditable value.
func (v *View) Editable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editable
}

// Entry is an in-memory command bar.
type Entry struct {
	mu        sync.Mutex
	view      *View
	text      string
	cursor    int
	prompt    string
	sensitive bool
	editable  bool
	info      []string
	status    string
	closed    bool
	posts     chan func()
}

// NewEntry creates a command bar attached to view.
func NewEntry(view *View) *Entry {
	return &Entry{
		view:      view,
		sensitive: true,
		editable:  true,
		posts:     make(chan func(), 256),
	}
}

func (e *Entry) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *Entry) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	e.cursor = len(text)
}

func (e *Entry) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

func (e *Entry) SetCursor(pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos < 0 || pos > len(e.text) {
		pos = len(e.text)
	}
	e.cursor = pos
}

func (e *Entry) SetPrompt(prompt string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompt = prompt
}

// Prompt returns the current prompt label.
func (e *Entry) Prompt() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prompt
}

func (e *Entry) SetSensitive(sensitive bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sensitive = sensitive
}

// Sensitive reports whether input is enabled.
func (e *Entry) Sensitive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sensitive
}

func (e *Entry) SetEditable(editable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editable = editable
}

// Editable reports whether typing changes the line.
func (e *Entry) Editable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editable
}

func (e *Entry) InfoShow(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info = append(e.info, strings.Split(text, "\n")...)
}

func (e *Entry) InfoStatus(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = text
}

func (e *Entry) InfoClear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info = nil
	e.status = ""
}

func (e *Entry) InfoEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.info) == 0
}

// Info returns the info panel lines.
func (e *Entry) Info() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.info...)
}

// Status returns the info status line.
func (e *Entry) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Entry) Post(fn func()) {
	e.posts <- fn
}

// Pump runs the next posted function, waiting up to timeout for one.
func (e *Entry) Pump(timeout time.Duration) bool {
	select {
	case fn := <-e.posts:
		fn()
		return true
	case <-time.After(timeout):
		return false
	}
}

// Posts exposes the post queue for hosts running their own loop.
func (e *Entry) Posts() <-chan func() {
	return e.posts
}

func (e *Entry) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// Closed reports whether Close was called.
func (e *Entry) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Reopen clears the closed flag.
func (e *Entry) Reopen() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = false
}

func (e *Entry) View() host.View {
	return e.view
}

var (
	_ host.Entry    = (*Entry)(nil)
	_ host.View     = (*View)(nil)
	_ host.Document = (*Document)(nil)
	_ host.Window   = (*Window)(nil)
)
