package memhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSelection(t *testing.T) {
	d := NewDocument("/tmp/a.txt", "hello world")
	_, ok := d.Selection()
	assert.False(t, ok)

	d.Select(6, 11)
	sel, ok := d.Selection()
	require.True(t, ok)
	assert.Equal(t, "world", sel)

	d.ReplaceSelection("there")
	assert.Equal(t, "hello there", d.Text())
	_, ok = d.Selection()
	assert.False(t, ok)
}

func TestDocumentLines(t *testing.T) {
	d := NewDocument("", "one\ntwo\nthree")
	assert.Equal(t, 3, d.LineCount())
	assert.Equal(t, 5, d.LineLength(2))
	assert.Equal(t, 0, d.LineLength(7))

	d.Goto(2, 3)
	assert.Equal(t, 2, d.CursorLine())
	assert.Equal(t, 3, d.CursorColumn())

	d.Goto(9, 99)
	assert.Equal(t, 2, d.CursorLine())
	assert.Equal(t, 5, d.CursorColumn())
}

func TestEntryPost(t *testing.T) {
	e := NewEntry(NewView(NewDocument("", ""), NewWindow()))
	ran := make(chan struct{})
	go e.Post(func() { close(ran) })

	require.True(t, e.Pump(time.Second))
	<-ran
	assert.False(t, e.Pump(10*time.Millisecond))
}

func TestEntryInfo(t *testing.T) {
	e := NewEntry(NewView(NewDocument("", ""), NewWindow()))
	assert.True(t, e.InfoEmpty())
	e.InfoShow("a\nb")
	e.InfoStatus("busy")
	assert.Equal(t, []string{"a", "b"}, e.Info())
	assert.Equal(t, "busy", e.Status())
	e.InfoClear()
	assert.True(t, e.InfoEmpty())
	assert.Empty(t, e.Status())

	e.SetText("abc")
	assert.Equal(t, 3, e.Cursor())
	e.SetCursor(-1)
	assert.Equal(t, 3, e.Cursor())
}
