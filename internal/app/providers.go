package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/google/wire"

	"github.com/zeusync/zoowalk/internal/config"
	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/spatial"
	"github.com/zeusync/zoowalk/internal/core/system"
	"github.com/zeusync/zoowalk/internal/scene"
	"github.com/zeusync/zoowalk/internal/server"
	"github.com/zeusync/zoowalk/internal/terminal"
)

// CoreSet provides everything but the front end.
var CoreSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideGrid,
	ProvideManager,
	ProvideManifest,
	ProvideWorld,
	ProvideScheduler,
	NewRuntime,
)

var ServerSet = wire.NewSet(ProvideServer, ServerFrontend)

var TerminalSet = wire.NewSet(ProvideTerminal, TerminalFrontend)

func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.New(cfg.Log.Logger())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideBus returns the event bus with a logging observer attached.
func ProvideBus(logger log.Log) (bus.Bus, func()) {
	b := bus.New()
	obs := newBusObserver(logger, slowDelivery)
	b.AddObserver(obs)
	return b, func() { b.RemoveObserver(obs) }
}

func ProvideGrid(cfg config.Config) (*components.Grid, error) {
	return spatial.NewGrid[*models.Entity](cfg.Grid.Bounds(), cfg.Grid.Cells[0], cfg.Grid.Cells[1])
}

// ProvideManager returns the entity manager; cleanup destroys every entity.
func ProvideManager(logger log.Log, events bus.Bus) (*models.Manager, func()) {
	m := models.NewManager(logger, events)
	return m, m.Close
}

func ProvideManifest(cfg config.Config) (*scene.Manifest, error) {
	return scene.Load(cfg.Scene.Path)
}

func ProvideWorld(
	cfg config.Config,
	manifest *scene.Manifest,
	manager *models.Manager,
	grid *components.Grid,
	fe Frontend,
	events bus.Bus,
	logger log.Log,
) (*scene.World, error) {
	return scene.Build(manifest, scene.Deps{
		Manager: manager,
		Grid:    grid,
		Scene:   fe.Scene,
		Assets:  fe.Assets,
		Keys:    fe.Keys,
		Camera:  fe.Camera,
		Bus:     events,
		Logger:  logger,
	}, scene.SettingsFrom(cfg))
}

// ProvideScheduler ticks the manager and feeds frames to the front end. It
// takes the built world so the scene exists before the first tick.
func ProvideScheduler(
	cfg config.Config,
	manager *models.Manager,
	world *scene.World,
	fe Frontend,
	logger log.Log,
) (*system.Scheduler, error) {
	loop := cfg.Loop.Scheduler()
	s, err := system.NewScheduler(loop, manager, system.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if fe.Status != nil {
		s.AddObserver(newStatusObserver(world, fe.Status))
	}
	s.AddObserver(newDigestObserver(manager, logger, uint64(loop.TickRate)*10))
	if fe.Observer != nil {
		s.AddObserver(fe.Observer)
	}
	return s, nil
}

func ProvideServer(cfg config.Config, logger log.Log, events bus.Bus) (*server.Server, func(), error) {
	s, err := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		AssetRoot:    cfg.Server.AssetRoot,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadLimit:    cfg.Server.ReadLimit,
	}, logger, events)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

func ProvideTerminal(screen tcell.Screen, logger log.Log) *terminal.Host {
	keys := terminal.NewHoldKeys(terminal.DefaultHold, nil)
	view := terminal.NewView(screen, terminal.DefaultViewConfig())
	return terminal.NewHost(screen, keys, view, logger)
}
