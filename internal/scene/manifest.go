// Package scene loads the YAML scene manifest and builds a world from it.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var ErrInvalidManifest = errors.New("scene: invalid manifest")

// Manifest is the content of a scene file.
type Manifest struct {
	// Models maps a model key to its asset location.
	Models     map[string]Model `yaml:"models"`
	Placements []Placement      `yaml:"placements"`
	Scatter    []Scatter        `yaml:"scatter"`
	Player     Player           `yaml:"player"`
	Camera     Camera           `yaml:"camera"`
}

type Model struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// Placement is one hand-placed entity.
type Placement struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Model    string     `yaml:"model"`
	Position [3]float64 `yaml:"position"`
	// Yaw is in degrees.
	Yaw   float64 `yaml:"yaw"`
	Scale float64 `yaml:"scale"`
	// Active defaults to false for scenery and to true for anything that
	// wanders.
	Active        *bool      `yaml:"active"`
	Range         *Box       `yaml:"range"`
	Dims          [2]float64 `yaml:"dims"`
	Wander        *Wander    `yaml:"wander"`
	CorrelationID string     `yaml:"correlation_id"`
}

// Box is an axis-aligned range.
type Box struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

type Wander struct {
	Speed     float64 `yaml:"speed"`
	TurnRate  float64 `yaml:"turn_rate"` // degrees per second
	Waypoints int     `yaml:"waypoints"`
	Radius    float64 `yaml:"radius"`
}

// Scatter places Count copies of randomly chosen models at seeded random
// positions inside Area. Scattered entities are always inactive.
type Scatter struct {
	Type   string   `yaml:"type"`
	Models []string `yaml:"models"`
	Count  int      `yaml:"count"`
	Area   Box      `yaml:"area"`
	// ScaleMin and ScaleMax bound the uniform random scale.
	ScaleMin float64 `yaml:"scale_min"`
	ScaleMax float64 `yaml:"scale_max"`
}

type Player struct {
	Name     string     `yaml:"name"`
	Model    string     `yaml:"model"`
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw"`
	Scale    float64    `yaml:"scale"`
	Range    *Box       `yaml:"range"`
}

type Camera struct {
	Name     string     `yaml:"name"`
	Position [3]float64 `yaml:"position"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Player.Name == "" {
		m.Player.Name = "player"
	}
	if m.Camera.Name == "" {
		m.Camera.Name = "camera"
	}
}

// Validate checks references and ranges, naming the offending entry.
func (m *Manifest) Validate() error {
	var errs []error
	bad := func(where, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidManifest, where, fmt.Sprintf(format, args...)))
	}

	for _, key := range slices.Sorted(maps.Keys(m.Models)) {
		if m.Models[key].Name == "" {
			bad("models."+key, "name is required")
		}
	}

	names := map[string]string{m.Player.Name: "player", m.Camera.Name: "camera"}
	if m.Player.Name == m.Camera.Name {
		bad("camera.name", "%q is also the player name", m.Camera.Name)
	}
	if _, ok := m.Models[m.Player.Model]; !ok {
		bad("player.model", "unknown model %q", m.Player.Model)
	}
	if m.Player.Scale < 0 {
		bad("player.scale", "must not be negative")
	}

	for i, p := range m.Placements {
		where := fmt.Sprintf("placements[%d]", i)
		if p.Name != "" {
			where = fmt.Sprintf("placements[%d] %q", i, p.Name)
			if first, dup := names[p.Name]; dup {
				bad(where, "name already used by %s", first)
			}
			names[p.Name] = where
		}
		if _, ok := m.Models[p.Model]; !ok {
			bad(where, "unknown model %q", p.Model)
		}
		if p.Scale < 0 {
			bad(where, "scale must not be negative")
		}
		if p.Dims[0] < 0 || p.Dims[1] < 0 {
			bad(where, "dims must not be negative")
		}
		if p.Wander != nil && p.Wander.Speed < 0 {
			bad(where, "wander.speed must not be negative")
		}
		if p.CorrelationID != "" {
			if _, err := uuid.Parse(p.CorrelationID); err != nil {
				bad(where, "correlation_id: %v", err)
			}
		}
	}

	for i, s := range m.Scatter {
		where := fmt.Sprintf("scatter[%d]", i)
		if s.Count < 0 {
			bad(where, "count must not be negative")
		}
		if s.Count > 0 && len(s.Models) == 0 {
			bad(where, "models must not be empty")
		}
		for _, key := range s.Models {
			if _, ok := m.Models[key]; !ok {
				bad(where, "unknown model %q", key)
			}
		}
		if s.ScaleMax < s.ScaleMin {
			bad(where, "scale_max below scale_min")
		}
	}
	return errors.Join(errs...)
}
