package terminal

import (
	"fmt"
	"math"
	"path"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/components"
	"github.com/zeusync/zoowalk/internal/core/physics"
	"github.com/zeusync/zoowalk/internal/core/system"
)

var (
	_ components.SceneGraph  = (*View)(nil)
	_ components.AssetLoader = (*View)(nil)
	_ components.CameraSink  = (*View)(nil)
	_ system.FrameObserver   = (*View)(nil)
)

// ViewConfig controls the top-down projection.
type ViewConfig struct {
	// Scale is screen columns per world unit. Rows use half of it since
	// terminal cells are about twice as tall as wide.
	Scale float64
	// Glyphs overrides the rune drawn for a mesh. By default the first
	// letter of the mesh file name is used.
	Glyphs map[components.MeshHandle]rune
	// MaxHeight hides nodes above it, e.g. clouds. Zero shows everything.
	MaxHeight float64
}

func DefaultViewConfig() ViewConfig {
	return ViewConfig{Scale: 0.5, MaxHeight: 20}
}

type viewNode struct {
	glyph     rune
	transform components.Transform
	moving    bool
}

// View draws the scene graph top down, centred on the camera's look-at
// point, with +Z up and the player's left (+X) to the left.
type View struct {
	screen tcell.Screen
	cfg    ViewConfig

	mu     sync.Mutex
	ready  bool
	next   components.NodeID
	nodes  map[components.NodeID]*viewNode
	camera components.CameraPose
	status string
}

func NewView(screen tcell.Screen, cfg ViewConfig) *View {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultViewConfig().Scale
	}
	return &View{screen: screen, cfg: cfg, nodes: make(map[components.NodeID]*viewNode)}
}

// Start initialises the screen. Frames are dropped until Start returns and
// again after Stop.
func (v *View) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ready {
		return nil
	}
	if err := v.screen.Init(); err != nil {
		return err
	}
	v.screen.Clear()
	v.ready = true
	return nil
}

// Stop finalises the screen.
func (v *View) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.ready {
		return
	}
	v.ready = false
	v.screen.Fini()
}

// Sync repaints the whole screen, e.g. after a resize.
func (v *View) Sync() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ready {
		v.screen.Sync()
	}
}

// Load accepts any asset; the view only needs a name to pick a glyph.
func (v *View) Load(dir, name string) (components.MeshHandle, error) {
	return components.MeshHandle(path.Join(dir, name)), nil
}

func (v *View) Attach(mesh components.MeshHandle, t components.Transform) components.NodeID {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.next++
	v.nodes[v.next] = &viewNode{glyph: v.glyphFor(mesh), transform: t}
	return v.next
}

func (v *View) Detach(id components.NodeID) {
	v.mu.Lock()
	delete(v.nodes, id)
	v.mu.Unlock()
}

func (v *View) Move(id components.NodeID, t components.Transform) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.nodes[id]; ok {
		n.transform = t
	}
}

// Blend marks nodes that are walking or running so they draw highlighted.
func (v *View) Blend(id components.NodeID, w components.AnimationWeights) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.nodes[id]; ok {
		n.moving = w.Idle < 0.5
	}
}

func (v *View) SetCamera(pose components.CameraPose) {
	v.mu.Lock()
	v.camera = pose
	v.mu.Unlock()
}

// SetStatus replaces the text drawn on the bottom line.
func (v *View) SetStatus(s string) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
}

// OnFrame redraws the screen.
func (v *View) OnFrame(f system.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.ready {
		return
	}
	w, h := v.screen.Size()
	if w <= 0 || h <= 1 {
		return
	}
	v.screen.Clear()

	for _, n := range v.nodes {
		p := n.transform.Position
		if v.cfg.MaxHeight > 0 && p.Y() > v.cfg.MaxHeight {
			continue
		}
		x, y, ok := v.project(physics.Planar(p), w, h-1)
		if !ok {
			continue
		}
		style := tcell.StyleDefault
		if n.moving {
			style = style.Bold(true).Foreground(tcell.ColorYellow)
		}
		v.screen.SetContent(x, y, n.glyph, nil, style)
	}

	status := fmt.Sprintf("tick %d  t=%.1fs  nodes %d", f.Tick, f.Time, len(v.nodes))
	if v.status != "" {
		status += "  " + v.status
	}
	drawText(v.screen, 0, h-1, w, status, tcell.StyleDefault.Reverse(true))
	v.screen.Show()
}

// project maps a planar world point to a screen cell of a w x h viewport.
func (v *View) project(p mgl64.Vec2, w, h int) (int, int, bool) {
	d := p.Sub(physics.Planar(v.camera.LookAt))
	dx := d.X() * v.cfg.Scale
	dz := d.Y() * v.cfg.Scale / 2
	x := w/2 - int(math.Round(dx))
	y := h/2 - int(math.Round(dz))
	if x < 0 || x >= w || y < 0 || y >= h {
		return 0, 0, false
	}
	return x, y, true
}

func (v *View) glyphFor(mesh components.MeshHandle) rune {
	if r, ok := v.cfg.Glyphs[mesh]; ok {
		return r
	}
	base := strings.TrimSuffix(path.Base(string(mesh)), path.Ext(string(mesh)))
	r, _ := utf8.DecodeRuneInString(base)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return '?'
	}
	return unicode.ToUpper(r)
}

func drawText(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= maxWidth {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < maxWidth; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}
