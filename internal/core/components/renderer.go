package components

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/zoowalk/internal/core/models"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

var ErrNoSceneGraph = errors.New("components: model renderer needs a scene graph and an asset loader")

// ModelConfig names the mesh a ModelRenderer loads.
type ModelConfig struct {
	Path  string
	Name  string
	Scale float64
}

// ModelRenderer mirrors its entity into the host scene graph.
type ModelRenderer struct {
	scene  SceneGraph
	loader AssetLoader
	cfg    ModelConfig
	opts   Options

	entity   *models.Entity
	mesh     MeshHandle
	node     NodeID
	attached bool
}

func NewModelRenderer(scene SceneGraph, loader AssetLoader, cfg ModelConfig, opts ...Option) *ModelRenderer {
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	return &ModelRenderer{
		scene:  scene,
		loader: loader,
		cfg:    cfg,
		opts:   newOptions("renderer", opts),
	}
}

func (r *ModelRenderer) Kind() models.Kind { return KindModelRenderer }

// Init loads the mesh and attaches it with the entity's current transform.
func (r *ModelRenderer) Init(e *models.Entity) error {
	if r.scene == nil || r.loader == nil {
		return ErrNoSceneGraph
	}
	mesh, err := r.loader.Load(r.cfg.Path, r.cfg.Name)
	if err != nil {
		return fmt.Errorf("load %s%s: %w", r.cfg.Path, r.cfg.Name, err)
	}

	r.entity = e
	r.mesh = mesh
	r.node = r.scene.Attach(mesh, r.transform())
	r.attached = true

	e.Subscribe(models.UpdatePosition, r.onMove)
	e.Subscribe(models.UpdateRotation, r.onMove)
	e.Subscribe(models.AnimationWeights, func(msg models.Message) {
		if w, ok := msg.Value.(AnimationWeights); ok && r.attached {
			r.scene.Blend(r.node, w)
		}
	})

	r.opts.Logger.Debug("mesh attached",
		log.String("mesh", string(mesh)),
		log.Uint64("node", uint64(r.node)),
	)
	return nil
}

func (r *ModelRenderer) Update(float64) {}

// Destroy detaches the node. Calling it twice is harmless.
func (r *ModelRenderer) Destroy() {
	if !r.attached {
		return
	}
	r.scene.Detach(r.node)
	r.attached = false
}

// Node returns the scene graph node and whether it is attached.
func (r *ModelRenderer) Node() (NodeID, bool) { return r.node, r.attached }

// Mesh returns the loaded mesh handle.
func (r *ModelRenderer) Mesh() MeshHandle { return r.mesh }

func (r *ModelRenderer) onMove(models.Message) {
	if r.attached {
		r.scene.Move(r.node, r.transform())
	}
}

func (r *ModelRenderer) transform() Transform {
	if r.entity == nil {
		return Transform{Rotation: mgl64.QuatIdent(), Scale: r.cfg.Scale}
	}
	return Transform{
		Position: r.entity.Position(),
		Rotation: r.entity.Rotation(),
		Scale:    r.cfg.Scale,
	}
}
