// Package config loads the zoowalk YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/spatial"
	"github.com/zeusync/zoowalk/internal/core/system"
)

// EnvPrefix prefixes the environment overrides applied by Load.
const EnvPrefix = "ZOOWALK_"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Loop   LoopConfig   `yaml:"loop"`
	Grid   GridConfig   `yaml:"grid"`
	Player PlayerConfig `yaml:"player"`
	Camera CameraConfig `yaml:"camera"`
	Server ServerConfig `yaml:"server"`
	Scene  SceneConfig  `yaml:"scene"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	Development bool     `yaml:"development"`
	Outputs     []string `yaml:"outputs"`
}

type LoopConfig struct {
	TickRate    int     `yaml:"tick_rate"`
	MaxStep     float64 `yaml:"max_step"`
	FixedStep   float64 `yaml:"fixed_step"`
	MaxSubsteps int     `yaml:"max_substeps"`
}

// GridConfig covers the world XZ plane.
type GridConfig struct {
	Min   [2]float64 `yaml:"min"`
	Max   [2]float64 `yaml:"max"`
	Cells [2]int     `yaml:"cells"`
}

type PlayerConfig struct {
	WalkSpeed     float64 `yaml:"walk_speed"`
	RunSpeed      float64 `yaml:"run_speed"`
	Acceleration  float64 `yaml:"acceleration"`
	Deceleration  float64 `yaml:"deceleration"`
	TurnRate      float64 `yaml:"turn_rate"` // degrees per second
	StopEpsilon   float64 `yaml:"stop_epsilon"`
	WalkThreshold float64 `yaml:"walk_threshold"`
	RunThreshold  float64 `yaml:"run_threshold"`
	CrossFade     float64 `yaml:"cross_fade"`
	// ProximityRadius is the exhibit trigger distance.
	ProximityRadius float64    `yaml:"proximity_radius"`
	Dims            [2]float64 `yaml:"dims"`
}

type CameraConfig struct {
	Offset      [3]float64 `yaml:"offset"`
	EyeHeight   float64    `yaml:"eye_height"`
	Damping     float64    `yaml:"damping"`
	SnapEpsilon float64    `yaml:"snap_epsilon"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	AssetRoot    string        `yaml:"asset_root"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadLimit    int64         `yaml:"read_limit"`
}

type SceneConfig struct {
	Path string `yaml:"path"`
	Seed uint64 `yaml:"seed"`
}

// Default returns a configuration that runs the bundled scene.
func Default() Config {
	ctrl := components.DefaultControllerConfig()
	cam := components.DefaultCameraConfig("")
	loop := system.DefaultConfig()
	return Config{
		Log: LogConfig{Level: "info", Encoding: "json"},
		Loop: LoopConfig{
			TickRate:    loop.TickRate,
			MaxStep:     loop.MaxStep,
			FixedStep:   loop.FixedStep,
			MaxSubsteps: loop.MaxSubsteps,
		},
		Grid: GridConfig{
			Min:   [2]float64{-500, -500},
			Max:   [2]float64{500, 500},
			Cells: [2]int{50, 50},
		},
		Player: PlayerConfig{
			WalkSpeed:       ctrl.WalkSpeed,
			RunSpeed:        ctrl.RunSpeed,
			Acceleration:    ctrl.Acceleration,
			Deceleration:    ctrl.Deceleration,
			TurnRate:        mgl64.RadToDeg(ctrl.TurnRate),
			StopEpsilon:     ctrl.StopEpsilon,
			WalkThreshold:   ctrl.WalkThreshold,
			RunThreshold:    ctrl.RunThreshold,
			CrossFade:       ctrl.CrossFade,
			ProximityRadius: 8,
			Dims:            [2]float64{1, 1},
		},
		Camera: CameraConfig{
			Offset:      cam.Offset,
			EyeHeight:   cam.EyeHeight,
			Damping:     cam.Damping,
			SnapEpsilon: cam.SnapEpsilon,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AssetRoot:    "",
			WriteTimeout: 5 * time.Second,
			ReadLimit:    4096,
		},
		Scene: SceneConfig{Path: "configs/scene.yaml", Seed: 1},
	}
}

// Load reads path over Default, applies ZOOWALK_* environment overrides and
// validates the result. An empty path loads the defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvPrefix + "ASSET_ROOT"); ok {
		c.Server.AssetRoot = v
	}
	if v, ok := lookup(EnvPrefix + "SCENE_PATH"); ok {
		c.Scene.Path = v
	}
	if v, ok := lookup(EnvPrefix + "SCENE_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSCENE_SEED: %v", ErrInvalid, EnvPrefix, err)
		}
		c.Scene.Seed = seed
	}
	return nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...)))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		bad("log.level", "%v", err)
	}
	if c.Log.Encoding != "" && c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		bad("log.encoding", "want json or console, got %q", c.Log.Encoding)
	}

	if err := c.Loop.Scheduler().Validate(); err != nil {
		bad("loop", "%v", err)
	}

	for i, axis := range []string{"x", "z"} {
		if !(c.Grid.Max[i] > c.Grid.Min[i]) {
			bad("grid", "max.%s must exceed min.%s", axis, axis)
		}
		if c.Grid.Cells[i] <= 0 {
			bad("grid.cells", "%s count must be positive", axis)
		}
	}

	p := c.Player
	positive := map[string]float64{
		"player.walk_speed":       p.WalkSpeed,
		"player.acceleration":     p.Acceleration,
		"player.deceleration":     p.Deceleration,
		"player.turn_rate":        p.TurnRate,
		"player.stop_epsilon":     p.StopEpsilon,
		"player.proximity_radius": p.ProximityRadius,
		"camera.damping":          c.Camera.Damping,
	}
	for _, field := range slices.Sorted(maps.Keys(positive)) {
		if v := positive[field]; !(v > 0) || math.IsInf(v, 0) {
			bad(field, "must be positive, got %v", v)
		}
	}
	if p.RunSpeed < p.WalkSpeed {
		bad("player.run_speed", "must not be below walk_speed")
	}
	if p.RunThreshold < p.WalkThreshold {
		bad("player.run_threshold", "must not be below walk_threshold")
	}
	if p.CrossFade < 0 {
		bad("player.cross_fade", "must not be negative")
	}
	if c.Camera.SnapEpsilon < 0 {
		bad("camera.snap_epsilon", "must not be negative")
	}

	if c.Server.WriteTimeout <= 0 {
		bad("server.write_timeout", "must be positive")
	}
	if c.Server.ReadLimit <= 0 {
		bad("server.read_limit", "must be positive")
	}
	return errors.Join(errs...)
}

// Logger converts the log section.
func (l LogConfig) Logger() log.Config {
	level, _ := log.ParseLevel(l.Level)
	return log.Config{
		Level:       level,
		Encoding:    l.Encoding,
		Development: l.Development,
		OutputPaths: l.Outputs,
	}
}

func (l LoopConfig) Scheduler() system.Config {
	return system.Config{
		TickRate:    l.TickRate,
		MaxStep:     l.MaxStep,
		FixedStep:   l.FixedStep,
		MaxSubsteps: l.MaxSubsteps,
	}
}

func (g GridConfig) Bounds() spatial.Bounds {
	return spatial.Bounds{
		Min: mgl64.Vec2{g.Min[0], g.Min[1]},
		Max: mgl64.Vec2{g.Max[0], g.Max[1]},
	}
}

func (p PlayerConfig) Controller() components.ControllerConfig {
	return components.ControllerConfig{
		WalkSpeed:     p.WalkSpeed,
		RunSpeed:      p.RunSpeed,
		Acceleration:  p.Acceleration,
		Deceleration:  p.Deceleration,
		TurnRate:      mgl64.DegToRad(p.TurnRate),
		StopEpsilon:   p.StopEpsilon,
		WalkThreshold: p.WalkThreshold,
		RunThreshold:  p.RunThreshold,
		CrossFade:     p.CrossFade,
	}
}

func (c CameraConfig) Follow(target string) components.CameraConfig {
	return components.CameraConfig{
		Target:      target,
		Offset:      mgl64.Vec3(c.Offset),
		EyeHeight:   c.EyeHeight,
		Damping:     c.Damping,
		SnapEpsilon: c.SnapEpsilon,
	}
}
