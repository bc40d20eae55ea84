package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/commander/internal/input/key"
)

func TestAddAndActivate(t *testing.T) {
	g := NewGroup()
	a := New("<Control>s")
	require.True(t, g.Add(a, nil, "save"))

	cb, nested := g.Activate(key.NewRuneEvent('s', key.ModCtrl))
	require.NotNil(t, cb)
	assert.Nil(t, nested)
	assert.Equal(t, "save", cb.Data)
	assert.Same(t, a, cb.Accelerator)

	cb, nested = g.Activate(key.NewRuneEvent('s', key.ModAlt))
	assert.Nil(t, cb)
	assert.Nil(t, nested)
}

func TestNestedChords(t *testing.T) {
	g := NewGroup()
	require.True(t, g.Add(New("<Control>x", "<Control>s"), nil, "save"))
	require.True(t, g.Add(New("Ctrl+X, Ctrl+C"), nil, "quit"))

	cb, nested := g.Activate(key.NewRuneEvent('x', key.ModCtrl))
	require.Nil(t, cb)
	require.NotNil(t, nested)
	assert.Equal(t, "<Control>x", nested.FullName())
	assert.Same(t, g, nested.Parent())
	assert.Equal(t, 2, nested.Len())

	cb, _ = nested.Activate(key.NewRuneEvent('c', key.ModCtrl))
	require.NotNil(t, cb)
	assert.Equal(t, "quit", cb.Data)
}

func TestOverlapRejected(t *testing.T) {
	g := NewGroup()
	require.True(t, g.Add(New("Ctrl+K"), nil, "kill"))

	before := g.Bindings()
	assert.False(t, g.Add(New("Ctrl+K,Ctrl+K"), nil, "other"), "continuation through a leaf")
	assert.False(t, g.Add(New("<Control>k"), nil, "dup"), "same chord twice")
	assert.Equal(t, before, g.Bindings())

	require.True(t, g.Add(New("<Alt>g", "<Alt>g"), nil, "deep"))
	assert.False(t, g.Add(New("<Alt>g"), nil, "prefix"), "final chord lands on an interior node")
	assert.Equal(t, 2, g.Len())
}

func TestInvalidChordLeavesTreeUnchanged(t *testing.T) {
	g := NewGroup()
	assert.False(t, g.Add(New("<Control>a", "<Control>"), nil, nil))
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Bindings())
}

func TestRemovePrunes(t *testing.T) {
	g := NewGroup()
	a := New("<Control>x", "<Control>s")
	b := New("<Control>x", "<Control>f")
	require.True(t, g.Add(a, nil, nil))
	require.True(t, g.Add(b, nil, nil))

	assert.True(t, g.Remove(a))
	assert.False(t, g.Remove(a))
	_, nested := g.Activate(key.MustParse("<Control>x"))
	require.NotNil(t, nested)

	assert.True(t, g.Remove(b))
	cb, nested := g.Activate(key.MustParse("<Control>x"))
	assert.Nil(t, cb)
	assert.Nil(t, nested, "empty interior node should be pruned")

	require.True(t, g.Add(New("<Control>x"), nil, nil), "pruned slot is free again")
}

func TestCallbackActivate(t *testing.T) {
	g := NewGroup()
	a := New("F5").WithArguments(map[string]any{"force": true})
	var got any
	require.True(t, g.Add(a, func(cb *Callback, env any) (any, error) {
		got = env
		return cb.Accelerator.Arguments["force"], nil
	}, nil))

	cb, _ := g.Activate(key.NewSpecialEvent(key.KeyF5, key.ModNone))
	require.NotNil(t, cb)
	v, err := cb.Activate("env")
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, "env", got)

	_, err = (&Callback{}).Activate(nil)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestBindingsAndString(t *testing.T) {
	g := NewGroup()
	require.True(t, g.Add(New("Ctrl+B"), nil, nil))
	require.True(t, g.Add(New("Ctrl+A", "b"), nil, nil))

	var chords []string
	for _, b := range g.Bindings() {
		chords = append(chords, b.Chords)
	}
	assert.Equal(t, []string{"<Control>a, b", "<Control>b"}, chords)
	assert.Equal(t, "<Control><Shift>F4", New("ctrl+shift+F4").String())
	assert.Equal(t, "bogus chord", New("bogus chord").String())
}
