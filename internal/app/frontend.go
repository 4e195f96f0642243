package app

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/system"
	"github.com/zeusync/zoowalk/internal/scene"
	"github.com/zeusync/zoowalk/internal/server"
	"github.com/zeusync/zoowalk/internal/terminal"
)

// Frontend is the host the world renders to and reads keys from.
type Frontend struct {
	Name     string
	Scene    components.SceneGraph
	Assets   components.AssetLoader
	Keys     components.KeySource
	Camera   components.CameraSink
	Observer system.FrameObserver
	Run      func(ctx context.Context) error
	// Status, when set, receives a one-line player summary every frame.
	Status func(string)
}

func ServerFrontend(s *server.Server) Frontend {
	return Frontend{
		Name:     "server",
		Scene:    s.Scene(),
		Assets:   s.Assets(),
		Keys:     s.Keys(),
		Camera:   s.Scene(),
		Observer: s,
		Run:      s.Run,
	}
}

func TerminalFrontend(h *terminal.Host) Frontend {
	return Frontend{
		Name:     "terminal",
		Scene:    h.View(),
		Assets:   h.View(),
		Keys:     h.Keys(),
		Camera:   h.View(),
		Observer: h.View(),
		Run:      h.Run,
		Status:   h.View().SetStatus,
	}
}

type statusObserver struct {
	world  *scene.World
	status func(string)
}

func newStatusObserver(w *scene.World, status func(string)) *statusObserver {
	return &statusObserver{world: w, status: status}
}

func (o *statusObserver) OnFrame(system.Frame) {
	p := o.world.Player
	if p == nil {
		return
	}
	pos := p.Position()
	line := fmt.Sprintf("pos (%.1f, %.1f)", pos.X(), pos.Z())
	if c, ok := models.Get[*components.PlayerController](p, components.KindPlayerController); ok {
		line += fmt.Sprintf("  %s %.1fm/s", c.State(), c.Speed())
	}
	if t, ok := models.Get[*components.ProximityTrigger](p, components.KindProximity); ok {
		if near, ok := t.Nearest(); ok {
			line += "  near " + near.Name() + " [E]"
		}
	}
	o.status(line)
}

// digestObserver logs the world digest periodically at debug level.
type digestObserver struct {
	manager *models.Manager
	logger  log.Log
	every   uint64
}

func newDigestObserver(m *models.Manager, logger log.Log, every uint64) *digestObserver {
	if every == 0 {
		every = 600
	}
	return &digestObserver{manager: m, logger: logger.Named("world"), every: every}
}

func (o *digestObserver) OnFrame(f system.Frame) {
	if f.Tick%o.every != 0 {
		return
	}
	o.logger.Debug("world digest",
		log.Uint64("tick", f.Tick),
		log.Float64("time", f.Time),
		log.Int("entities", o.manager.Len()),
		log.Uint64("digest", o.manager.Digest()),
	)
}

// slowDelivery is the handler time past which a bus delivery is logged.
const slowDelivery = 5 * time.Millisecond

// busObserver logs bus deliveries that are slow or fail.
type busObserver struct {
	logger log.Log
	slow   time.Duration
}

func newBusObserver(logger log.Log, slow time.Duration) *busObserver {
	return &busObserver{logger: logger.Named("events"), slow: slow}
}

func (o *busObserver) OnPublish(string, bus.Event) {}

func (o *busObserver) OnDelivered(eventType string, handlers int, err error, took time.Duration) {
	switch {
	case err != nil:
		o.logger.Debug("event handler failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err),
		)
	case took > o.slow:
		o.logger.Warn("slow event delivery",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Duration("took", took),
		)
	}
}
