package scene

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/zeusync/zoowalk/internal/config"
	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/physics"
)

var ErrMissingDependency = errors.New("scene: missing build dependency")

// Deps are the collaborators the built entities are wired to.
type Deps struct {
	Manager *models.Manager
	Grid    *components.Grid
	Scene   components.SceneGraph
	Assets  components.AssetLoader
	Keys    components.KeySource
	Camera  components.CameraSink
	Bus     bus.Bus
	Logger  log.Log
}

// Settings carries the tuning that comes from the main configuration.
type Settings struct {
	Seed            uint64
	Controller      components.ControllerConfig
	Follow          components.CameraConfig
	ProximityRadius float64
	PlayerDims      mgl64.Vec2
}

// World summarises what Build registered.
type World struct {
	Player   *models.Entity
	Camera   *models.Entity
	Entities []*models.Entity
	Statics  int
	Animated int
}

// SettingsFrom lifts the tuning sections of cfg.
func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		Seed:            cfg.Scene.Seed,
		Controller:      cfg.Player.Controller(),
		Follow:          cfg.Camera.Follow(""),
		ProximityRadius: cfg.Player.ProximityRadius,
		PlayerDims:      mgl64.Vec2(cfg.Player.Dims),
	}
}

var defaultDims = mgl64.Vec2{2, 2}

// Build registers the manifest's entities in order: placements, scatter
// groups, the player and finally the camera, so the camera ticks after the
// player has moved. m is defaulted and validated first, so a hand-built
// manifest gets the same checks as a parsed one. On error the entities
// registered so far stay in the manager; callers close it.
func Build(m *Manifest, deps Deps, s Settings) (*World, error) {
	if m == nil || deps.Manager == nil || deps.Grid == nil || deps.Scene == nil || deps.Assets == nil {
		return nil, ErrMissingDependency
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	b := &builder{m: m, deps: deps, settings: s, logger: logger.Named("scene")}
	b.opts = []components.Option{components.WithLogger(b.logger), components.WithBus(deps.Bus)}

	for i, p := range m.Placements {
		if err := b.placement(i, p); err != nil {
			return nil, err
		}
	}
	for i, sc := range m.Scatter {
		if err := b.scatter(i, sc); err != nil {
			return nil, err
		}
	}
	if err := b.player(); err != nil {
		return nil, err
	}
	if err := b.camera(); err != nil {
		return nil, err
	}

	b.logger.Info("scene built",
		log.Int("entities", len(b.world.Entities)),
		log.Int("static", b.world.Statics),
		log.Int("animated", b.world.Animated),
		log.Int("indexed", deps.Grid.Len()),
	)
	return &b.world, nil
}

type builder struct {
	m        *Manifest
	deps     Deps
	settings Settings
	opts     []components.Option
	logger   log.Log
	world    World
}

func (b *builder) register(e *models.Entity, name, where string) error {
	if _, err := b.deps.Manager.Add(e, name); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	b.world.Entities = append(b.world.Entities, e)
	if e.Active() {
		b.world.Animated++
	} else {
		b.world.Statics++
	}
	return nil
}

func (b *builder) renderer(key string, scale float64) *components.ModelRenderer {
	model := b.m.Models[key]
	return components.NewModelRenderer(b.deps.Scene, b.deps.Assets, components.ModelConfig{
		Path:  model.Path,
		Name:  model.Name,
		Scale: scale,
	}, b.opts...)
}

func (b *builder) placement(i int, p Placement) error {
	where := fmt.Sprintf("placements[%d]", i)
	if p.Name != "" {
		where = fmt.Sprintf("placement %q", p.Name)
	}

	e := models.NewEntity(p.Type)
	e.SetPosition(mgl64.Vec3(p.Position))
	e.SetRotation(physics.YawQuat(mgl64.DegToRad(p.Yaw)))
	if p.Range != nil {
		e.SetRange(p.Range.toRange())
	}
	if p.CorrelationID != "" {
		id, err := uuid.Parse(p.CorrelationID)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		e.SetCorrelationID(id)
	}

	animal := p.Type == "animal"
	active := animal || p.Wander != nil
	if p.Active != nil {
		active = *p.Active
	}
	e.SetActive(active)

	if err := b.register(e, p.Name, where); err != nil {
		return err
	}
	if err := e.AddComponent(b.renderer(p.Model, p.Scale)); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}

	dims := mgl64.Vec2(p.Dims)
	if dims == (mgl64.Vec2{}) && (animal || p.Wander != nil) {
		dims = defaultDims
	}
	if dims != (mgl64.Vec2{}) {
		if err := e.AddComponent(components.NewSpatialGridController(b.deps.Grid, dims)); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}

	if p.Wander != nil {
		cfg := components.DefaultWanderConfig(b.seedFor(i, p.Name))
		if p.Wander.Speed > 0 {
			cfg.Speed = p.Wander.Speed
		}
		if p.Wander.TurnRate > 0 {
			cfg.TurnRate = mgl64.DegToRad(p.Wander.TurnRate)
		}
		if p.Wander.Waypoints > 0 {
			cfg.Waypoints = p.Wander.Waypoints
		}
		if p.Wander.Radius > 0 {
			cfg.Radius = p.Wander.Radius
		}
		if err := e.AddComponent(components.NewWander(cfg)); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

func (b *builder) scatter(i int, s Scatter) error {
	if s.Count == 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(b.settings.Seed, uint64(i)+1))
	lo, hi := s.Area.Min, s.Area.Max
	for n := 0; n < s.Count; n++ {
		where := fmt.Sprintf("scatter[%d] #%d", i, n)
		key := s.Models[rng.IntN(len(s.Models))]
		pos := mgl64.Vec3{
			lerp(lo[0], hi[0], rng.Float64()),
			lerp(lo[1], hi[1], rng.Float64()),
			lerp(lo[2], hi[2], rng.Float64()),
		}
		scale := lerp(s.ScaleMin, s.ScaleMax, rng.Float64())
		if scale == 0 {
			scale = 1
		}

		e := models.NewEntity(s.Type)
		e.SetPosition(pos)
		e.SetActive(false)
		if err := b.register(e, "", where); err != nil {
			return err
		}
		if err := e.AddComponent(b.renderer(key, scale)); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

func (b *builder) player() error {
	p := b.m.Player
	where := fmt.Sprintf("player %q", p.Name)

	e := models.NewEntity("player")
	e.SetPosition(mgl64.Vec3(p.Position))
	e.SetRotation(physics.YawQuat(mgl64.DegToRad(p.Yaw)))
	if p.Range != nil {
		e.SetRange(p.Range.toRange())
	}
	if err := b.register(e, p.Name, where); err != nil {
		return err
	}

	dims := b.settings.PlayerDims
	if dims == (mgl64.Vec2{}) {
		dims = mgl64.Vec2{1, 1}
	}
	parts := []models.Component{
		components.NewPlayerInput(b.deps.Keys),
		components.NewPlayerController(b.settings.Controller, b.opts...),
		components.NewSpatialGridController(b.deps.Grid, dims),
		components.NewProximityTrigger(components.ProximityConfig{Radius: b.settings.ProximityRadius}, b.opts...),
		b.renderer(p.Model, p.Scale),
	}
	for _, c := range parts {
		if err := e.AddComponent(c); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	b.world.Player = e
	return nil
}

func (b *builder) camera() error {
	c := b.m.Camera
	where := fmt.Sprintf("camera %q", c.Name)

	e := models.NewEntity("camera")
	e.SetPosition(mgl64.Vec3(c.Position))
	if err := b.register(e, c.Name, where); err != nil {
		return err
	}
	follow := b.settings.Follow
	follow.Target = b.m.Player.Name
	if err := e.AddComponent(components.NewThirdPersonCamera(follow, b.deps.Camera)); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	b.world.Camera = e
	return nil
}

// seedFor derives a per-placement seed so reordering unrelated placements
// does not change a named animal's patrol.
func (b *builder) seedFor(i int, name string) uint64 {
	key := name
	if key == "" {
		key = fmt.Sprintf("#%d", i)
	}
	return b.settings.Seed ^ xxhash.Sum64String(key)
}

func (x Box) toRange() models.Range {
	return models.Range{Min: mgl64.Vec3(x.Min), Max: mgl64.Vec3(x.Max)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
