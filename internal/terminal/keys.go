package terminal

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/zoowalk/internal/core/components"
)

// DefaultHold covers the gap between a key press and the terminal's first
// auto-repeat on common setups.
const DefaultHold = 300 * time.Millisecond

type key int

const (
	keyForward key = iota
	keyBackward
	keyLeft
	keyRight
	keySprint
	keyAction
	keyCount
)

var _ components.KeySource = (*HoldKeys)(nil)

// HoldKeys turns key press events into key state. Terminals report presses
// and repeats but never releases, so a key counts as held until hold has
// passed since its last event.
type HoldKeys struct {
	mu   sync.Mutex
	hold time.Duration
	now  func() time.Time
	last [keyCount]time.Time
}

func NewHoldKeys(hold time.Duration, now func() time.Time) *HoldKeys {
	if hold <= 0 {
		hold = DefaultHold
	}
	if now == nil {
		now = time.Now
	}
	return &HoldKeys{hold: hold, now: now}
}

// Handle records ev and reports whether it mapped to a movement key.
// Arrows and WASD move; Shift (or capital letters) sprints; E or space is
// the action key.
func (h *HoldKeys) Handle(ev *tcell.EventKey) bool {
	var pressed []key
	sprint := ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyUp:
		pressed = append(pressed, keyForward)
	case tcell.KeyDown:
		pressed = append(pressed, keyBackward)
	case tcell.KeyLeft:
		pressed = append(pressed, keyLeft)
	case tcell.KeyRight:
		pressed = append(pressed, keyRight)
	case tcell.KeyRune:
		r := ev.Rune()
		switch r {
		case 'W', 'A', 'S', 'D':
			sprint = true
		}
		switch r {
		case 'w', 'W':
			pressed = append(pressed, keyForward)
		case 's', 'S':
			pressed = append(pressed, keyBackward)
		case 'a', 'A':
			pressed = append(pressed, keyLeft)
		case 'd', 'D':
			pressed = append(pressed, keyRight)
		case 'e', 'E', ' ':
			pressed = append(pressed, keyAction)
		}
	}
	if len(pressed) == 0 {
		return false
	}
	if sprint {
		pressed = append(pressed, keySprint)
	}

	now := h.now()
	h.mu.Lock()
	for _, k := range pressed {
		h.last[k] = now
	}
	h.mu.Unlock()
	return true
}

func (h *HoldKeys) Keys() components.KeyState {
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()

	held := func(k key) bool {
		t := h.last[k]
		return !t.IsZero() && now.Sub(t) < h.hold
	}
	return components.KeyState{
		Forward:  held(keyForward),
		Backward: held(keyBackward),
		Left:     held(keyLeft),
		Right:    held(keyRight),
		Sprint:   held(keySprint),
		Action:   held(keyAction),
	}
}

// Reset releases every key.
func (h *HoldKeys) Reset() {
	h.mu.Lock()
	h.last = [keyCount]time.Time{}
	h.mu.Unlock()
}
