// Package terminal is a text front end: a tcell screen that shows the scene
// from above and turns key presses into the player's key state.
package terminal

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

// ErrQuit is returned by Run when the user quits.
var ErrQuit = errors.New("terminal: quit")

// Host owns the screen and its event loop. The view draws on the same
// screen from the tick goroutine; Host opens and closes it through the view.
type Host struct {
	screen  tcell.Screen
	keys    *HoldKeys
	view    *View
	logger  log.Log
	started chan struct{}
}

func NewHost(screen tcell.Screen, keys *HoldKeys, view *View, logger log.Log) *Host {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Host{
		screen:  screen,
		keys:    keys,
		view:    view,
		logger:  logger.Named("terminal"),
		started: make(chan struct{}),
	}
}

func (h *Host) Keys() *HoldKeys { return h.keys }
func (h *Host) View() *View     { return h.view }

// Started is closed once the screen is initialised and accepts events.
func (h *Host) Started() <-chan struct{} { return h.started }

// Run initialises the screen and handles input until ctx is done, which
// returns nil, or the user presses Esc, q or Ctrl-C, which returns ErrQuit.
func (h *Host) Run(ctx context.Context) error {
	if err := h.view.Start(); err != nil {
		return err
	}
	defer h.view.Stop()
	close(h.started)

	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			// PollEvent returns nil once the screen is finalised.
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	h.logger.Info("terminal started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if h.handle(ev) {
				h.logger.Info("quit requested")
				return ErrQuit
			}
		}
	}
}

// handle reports whether ev asks to quit.
func (h *Host) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return true
		}
		h.keys.Handle(ev)
	case *tcell.EventResize:
		h.view.Sync()
	case *tcell.EventFocus:
		if !ev.Focused {
			h.keys.Reset()
		}
	}
	return false
}
