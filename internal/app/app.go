// Package app assembles the simulation and a front end and runs them.
package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/system"
	"github.com/zeusync/zoowalk/internal/scene"
)

// Runtime is an assembled application.
type Runtime struct {
	Logger    log.Log
	Manager   *models.Manager
	World     *scene.World
	Scheduler *system.Scheduler
	Frontend  Frontend
}

func NewRuntime(
	logger log.Log,
	manager *models.Manager,
	world *scene.World,
	scheduler *system.Scheduler,
	fe Frontend,
) *Runtime {
	return &Runtime{
		Logger:    logger,
		Manager:   manager,
		World:     world,
		Scheduler: scheduler,
		Frontend:  fe,
	}
}

// Run drives the tick loop and the front end until ctx is cancelled or
// either of them fails. The first error stops both and is returned; a clean
// shutdown returns nil.
func (r *Runtime) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	r.Logger.Info("starting",
		log.String("frontend", r.Frontend.Name),
		log.Int("entities", r.Manager.Len()),
	)
	g.Go(func() error { return r.Scheduler.Run(ctx) })
	if r.Frontend.Run != nil {
		g.Go(func() error { return r.Frontend.Run(ctx) })
	}

	err := g.Wait()
	r.Logger.Info("stopped", log.Uint64("ticks", r.Scheduler.Ticks()), log.Error(err))
	return err
}
