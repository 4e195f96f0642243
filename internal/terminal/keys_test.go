package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/zeusync/zoowalk/internal/core/components"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestHoldKeysWindow(t *testing.T) {
	clock := &manualClock{t: time.Unix(100, 0)}
	keys := NewHoldKeys(200*time.Millisecond, clock.now)

	assert.True(t, keys.Handle(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone)))
	assert.Equal(t, components.KeyState{Forward: true}, keys.Keys())

	clock.advance(150 * time.Millisecond)
	keys.Handle(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone))
	clock.advance(150 * time.Millisecond)
	assert.True(t, keys.Keys().Forward, "repeat extends the hold")

	clock.advance(100 * time.Millisecond)
	assert.Equal(t, components.KeyState{}, keys.Keys())
}

func TestHoldKeysMapping(t *testing.T) {
	clock := &manualClock{t: time.Unix(100, 0)}
	keys := NewHoldKeys(time.Second, clock.now)

	keys.Handle(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	keys.Handle(tcell.NewEventKey(tcell.KeyRune, 'S', tcell.ModNone))
	keys.Handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	assert.Equal(t, components.KeyState{Left: true, Backward: true, Sprint: true, Action: true}, keys.Keys())

	assert.False(t, keys.Handle(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))

	keys.Reset()
	assert.Equal(t, components.KeyState{}, keys.Keys())

	keys.Handle(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModShift))
	assert.Equal(t, components.KeyState{Forward: true, Sprint: true}, keys.Keys())
}
